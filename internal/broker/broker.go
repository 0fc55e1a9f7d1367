// Package broker defines the task-queue collaborator interface the gateway
// dispatches computations through. The broker's delivery guarantees are out
// of the gateway's hands; notably there is no dead-letter mechanism, which is
// why the status-resolution layer self-heals stale PENDING computations.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/google/uuid"
)

// ErrUnavailable is returned when the broker cannot be reached or a query
// times out. It is never swallowed: callers surface it as a server-side
// error.
var ErrUnavailable = errors.New("broker unavailable")

// ResultKind classifies a worker's result payload for diagnostics.
type ResultKind string

// Result payload classifications reported by workers.
const (
	// ResultKindNone means the payload carries no diagnostic.
	ResultKindNone ResultKind = ""

	// ResultKindUserError means the computation failed on user input at the
	// plugin level. Detail carries a human-readable description.
	ResultKindUserError ResultKind = "user_error"

	// ResultKindInputValidation means the parameters failed the plugin's
	// declared schema. Detail carries the validation message.
	ResultKindInputValidation ResultKind = "input_validation"

	// ResultKindTimeLimit means the computation exceeded its time limit.
	ResultKindTimeLimit ResultKind = "time_limit_exceeded"

	// ResultKindRevoked means the task was revoked before completion.
	ResultKindRevoked ResultKind = "revoked"
)

// Result is the broker-reported outcome payload of a task.
type Result struct {
	Kind   ResultKind `json:"kind,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// Task is one unit of plugin work handed to the broker.
type Task struct {
	ComputationID uuid.UUID          `json:"computation_id"`
	PluginKey     string             `json:"plugin_key"`
	AOI           *domain.AOIFeature `json:"aoi"`
	Params        map[string]any     `json:"params"`

	// TimeLimit bounds the worker-side execution; zero means unlimited.
	TimeLimit time.Duration `json:"time_limit"`

	// QueueTimeout is how long the task may sit unclaimed before the gateway
	// treats it as silently dropped.
	QueueTimeout time.Duration `json:"queue_timeout"`

	// CacheForever marks demo tasks whose artifacts are static per plugin
	// release.
	CacheForever bool `json:"cache_forever"`
}

// TaskQueue is the task-queue collaborator consumed by the gateway.
type TaskQueue interface {
	// Enqueue hands a task to the broker. Called exactly once per newly
	// created computation, never for reused ones.
	Enqueue(ctx context.Context, task Task) error

	// GetState reports the broker's view of a task. A task the broker has
	// never heard of reports PENDING with a nil result; the broker cannot
	// distinguish "queued" from "lost", which is exactly the gap the
	// stale-PENDING self-healing closes.
	GetState(ctx context.Context, computationID uuid.UUID) (domain.ComputationState, *Result, error)

	// Ping probes worker liveness for the given plugin keys. The returned
	// map holds one entry per requested key; absent workers report false.
	Ping(ctx context.Context, pluginKeys []string) (map[string]bool, error)
}
