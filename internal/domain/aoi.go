package domain

import (
	"errors"
	"math"
)

// Common validation errors for AOI features
var (
	ErrInvalidFeatureType  = errors.New("AOI must be a GeoJSON Feature")
	ErrInvalidGeometryType = errors.New("AOI geometry must be a MultiPolygon")
	ErrEmptyGeometry       = errors.New("AOI geometry cannot be empty")
	ErrOpenRing            = errors.New("AOI polygon rings must be closed")
	ErrShortRing           = errors.New("AOI polygon rings need at least four positions")
	ErrEmptyAOIName        = errors.New("AOI name cannot be empty")
	ErrEmptyAOIID          = errors.New("AOI id cannot be empty")
)

// coordinatePrecision is the number of decimal places coordinates are rounded
// to when canonicalizing an AOI. Six decimals is roughly 0.1m at the equator,
// well below any resolution a plugin computes at.
const coordinatePrecision = 6

// AOIProperties carries the descriptive properties of an area of interest.
type AOIProperties struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// MultiPolygon is a GeoJSON MultiPolygon geometry: a list of polygons, each a
// list of linear rings, each a list of [lon, lat] positions.
type MultiPolygon struct {
	Type        string          `json:"type"`
	Coordinates [][][][]float64 `json:"coordinates"`
}

// AOIFeature is the GeoJSON Feature submitted with every computation request.
type AOIFeature struct {
	Type       string        `json:"type"`
	Properties AOIProperties `json:"properties"`
	Geometry   MultiPolygon  `json:"geometry"`
}

// Validate checks structural well-formedness of the feature. Semantic
// validation against a plugin's schema happens worker-side.
func (f *AOIFeature) Validate() error {
	if f.Type != "Feature" {
		return ErrInvalidFeatureType
	}

	if f.Geometry.Type != "MultiPolygon" {
		return ErrInvalidGeometryType
	}

	if len(f.Geometry.Coordinates) == 0 {
		return ErrEmptyGeometry
	}

	for _, polygon := range f.Geometry.Coordinates {
		if len(polygon) == 0 {
			return ErrEmptyGeometry
		}
		for _, ring := range polygon {
			if len(ring) < 4 {
				return ErrShortRing
			}
			first, last := ring[0], ring[len(ring)-1]
			if len(first) < 2 || len(last) < 2 || first[0] != last[0] || first[1] != last[1] {
				return ErrOpenRing
			}
		}
	}

	if f.Properties.Name == "" {
		return ErrEmptyAOIName
	}

	if f.Properties.ID == "" {
		return ErrEmptyAOIID
	}

	return nil
}

// Canonical returns a copy of the feature with coordinates rounded to a fixed
// precision. Two features describing the same area always canonicalize to the
// same value, which keeps dedup keys stable across clients.
func (f *AOIFeature) Canonical() *AOIFeature {
	out := &AOIFeature{
		Type:       f.Type,
		Properties: f.Properties,
		Geometry: MultiPolygon{
			Type:        f.Geometry.Type,
			Coordinates: make([][][][]float64, len(f.Geometry.Coordinates)),
		},
	}

	for i, polygon := range f.Geometry.Coordinates {
		out.Geometry.Coordinates[i] = make([][][]float64, len(polygon))
		for j, ring := range polygon {
			out.Geometry.Coordinates[i][j] = make([][]float64, len(ring))
			for k, position := range ring {
				rounded := make([]float64, len(position))
				for l, coord := range position {
					rounded[l] = roundCoordinate(coord)
				}
				out.Geometry.Coordinates[i][j][k] = rounded
			}
		}
	}

	return out
}

func roundCoordinate(v float64) float64 {
	factor := math.Pow10(coordinatePrecision)
	return math.Round(v*factor) / factor
}
