package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// PostgresTaskQueue implements the broker.TaskQueue interface over two
// tables: broker_tasks, which workers claim and update, and
// worker_heartbeats, which workers refresh periodically. There is no
// dead-letter reporting: a task row a worker never claims stays PENDING
// forever, which is the condition the status resolver self-heals.
type PostgresTaskQueue struct {
	db           store.DBTX
	logger       *slog.Logger
	heartbeatTTL time.Duration
}

// NewPostgresTaskQueue creates a new PostgreSQL-backed task queue client.
// heartbeatTTL bounds how stale a worker heartbeat may be before the worker
// counts as offline. If logger is nil, a default logger is used.
func NewPostgresTaskQueue(db store.DBTX, heartbeatTTL time.Duration, logger *slog.Logger) *PostgresTaskQueue {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskQueue{
		db:           db,
		logger:       logger.With(slog.String("component", "task_queue")),
		heartbeatTTL: heartbeatTTL,
	}
}

// Ensure PostgresTaskQueue implements broker.TaskQueue
var _ broker.TaskQueue = (*PostgresTaskQueue)(nil)

// Enqueue implements broker.TaskQueue.Enqueue. Enqueues happen after the
// dispatch transaction commits; a record whose enqueue failed stays PENDING
// and is picked up by the status resolver's self-heal.
func (q *PostgresTaskQueue) Enqueue(ctx context.Context, task broker.Task) error {
	log := logger.FromContextOrDefault(ctx, q.logger)

	payload, err := json.Marshal(struct {
		AOI    *domain.AOIFeature `json:"aoi"`
		Params map[string]any     `json:"params"`
	}{task.AOI, task.Params})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	query := `
		INSERT INTO broker_tasks
			(id, plugin_key, payload, state, time_limit_secs, queue_timeout_secs,
			 cache_forever, enqueued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	now := time.Now().UTC()
	_, err = q.db.ExecContext(
		ctx,
		query,
		task.ComputationID,
		task.PluginKey,
		payload,
		domain.ComputationStatePending,
		int64(task.TimeLimit.Seconds()),
		int64(task.QueueTimeout.Seconds()),
		task.CacheForever,
		now,
	)
	if err != nil {
		log.Error("failed to enqueue task",
			slog.String("error", err.Error()),
			slog.String("computation_id", task.ComputationID.String()),
			slog.String("plugin_key", task.PluginKey))
		return fmt.Errorf("%w: enqueue: %v", broker.ErrUnavailable, err)
	}

	log.Info("task enqueued",
		slog.String("computation_id", task.ComputationID.String()),
		slog.String("plugin_key", task.PluginKey),
		slog.Bool("cache_forever", task.CacheForever))
	return nil
}

// GetState implements broker.TaskQueue.GetState. A task the broker has no
// row for reports PENDING with no result, mirroring broker semantics where
// an unknown task id is indistinguishable from a queued one.
func (q *PostgresTaskQueue) GetState(
	ctx context.Context,
	computationID uuid.UUID,
) (domain.ComputationState, *broker.Result, error) {
	query := `SELECT state, result FROM broker_tasks WHERE id = $1`

	var (
		state     domain.ComputationState
		resultRaw []byte
	)
	err := q.db.QueryRowContext(ctx, query, computationID).Scan(&state, &resultRaw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ComputationStatePending, nil, nil
		}
		return "", nil, fmt.Errorf("%w: get state: %v", broker.ErrUnavailable, err)
	}

	if !state.IsValid() {
		return "", nil, fmt.Errorf("%w: unknown task state %q", broker.ErrUnavailable, state)
	}

	var result *broker.Result
	if len(resultRaw) > 0 {
		result = &broker.Result{}
		if err := json.Unmarshal(resultRaw, result); err != nil {
			return "", nil, fmt.Errorf("%w: malformed result payload: %v", broker.ErrUnavailable, err)
		}
	}

	return state, result, nil
}

// Ping implements broker.TaskQueue.Ping. A worker counts as online when its
// heartbeat is fresher than the configured TTL.
func (q *PostgresTaskQueue) Ping(ctx context.Context, pluginKeys []string) (map[string]bool, error) {
	liveness := make(map[string]bool, len(pluginKeys))
	if len(pluginKeys) == 0 {
		return liveness, nil
	}
	for _, key := range pluginKeys {
		liveness[key] = false
	}

	query := `
		SELECT plugin_key FROM worker_heartbeats
		WHERE plugin_key = ANY($1) AND last_seen > $2
	`
	cutoff := time.Now().UTC().Add(-q.heartbeatTTL)
	rows, err := q.db.QueryContext(ctx, query, pluginKeys, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: ping: %v", broker.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: ping: %v", broker.ErrUnavailable, err)
		}
		liveness[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", broker.ErrUnavailable, err)
	}

	return liveness, nil
}
