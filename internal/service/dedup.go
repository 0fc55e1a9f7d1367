package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/atmoscale/compute-gateway/internal/domain"
)

// ComputeDedupKey derives the canonical fingerprint of a submission:
// plugin identity and version, the canonicalized AOI, and the parameters.
// Semantically identical requests must always yield the same key, so the
// encoding is fully deterministic: encoding/json serializes map keys in
// sorted order, and AOI coordinates are rounded to a fixed precision by
// Canonical.
func ComputeDedupKey(pluginKey, pluginVersion string, aoi *domain.AOIFeature, params map[string]any) (string, error) {
	fingerprint := struct {
		Plugin  string             `json:"plugin"`
		Version string             `json:"version"`
		AOI     *domain.AOIFeature `json:"aoi"`
		Params  map[string]any     `json:"params"`
	}{
		Plugin:  pluginKey,
		Version: pluginVersion,
		AOI:     aoi.Canonical(),
		Params:  params,
	}

	encoded, err := json.Marshal(fingerprint)
	if err != nil {
		return "", fmt.Errorf("failed to encode dedup fingerprint: %w", err)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
