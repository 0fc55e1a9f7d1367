package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/store"
)

// PostgresPluginStore implements the store.PluginStore interface. Plugins
// upsert their own rows when they start up; the gateway only reads.
type PostgresPluginStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPluginStore creates a new PostgreSQL implementation of the
// PluginStore interface. If logger is nil, a default logger is used.
func NewPostgresPluginStore(db store.DBTX, logger *slog.Logger) *PostgresPluginStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPluginStore{
		db:     db,
		logger: logger.With(slog.String("component", "plugin_store")),
	}
}

// Ensure PostgresPluginStore implements store.PluginStore
var _ store.PluginStore = (*PostgresPluginStore)(nil)

// ListKeys implements store.PluginStore.ListKeys.
func (s *PostgresPluginStore) ListKeys(ctx context.Context) ([]string, error) {
	query := `SELECT key FROM plugins ORDER BY key`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, MapError(err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return keys, nil
}

// Get implements store.PluginStore.Get.
// Returns store.ErrPluginNotFound if the plugin is not registered.
func (s *PostgresPluginStore) Get(ctx context.Context, key string) (*domain.PluginInfo, error) {
	query := `
		SELECT key, name, version, protocol_version, info, updated_at
		FROM plugins
		WHERE key = $1
	`
	row := s.db.QueryRowContext(ctx, query, key)

	var (
		info    domain.PluginInfo
		infoRaw []byte
	)
	err := row.Scan(
		&info.Key,
		&info.Name,
		&info.Version,
		&info.ProtocolVersion,
		&infoRaw,
		&info.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPluginNotFound
		}
		return nil, MapError(err)
	}

	// The info document carries the free-form part of the self-description:
	// teaser, description, concerns, params schema and demo config.
	if len(infoRaw) > 0 {
		var doc struct {
			Teaser       string             `json:"teaser"`
			Description  string             `json:"description"`
			Concerns     []string           `json:"concerns"`
			ParamsSchema map[string]any     `json:"params_schema"`
			DemoConfig   *domain.DemoConfig `json:"demo_config"`
		}
		if err := json.Unmarshal(infoRaw, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plugin info document: %w", err)
		}
		info.Teaser = doc.Teaser
		info.Description = doc.Description
		info.Concerns = doc.Concerns
		info.ParamsSchema = doc.ParamsSchema
		info.DemoConfig = doc.DemoConfig
	}

	return &info, nil
}
