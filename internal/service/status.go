package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/cache"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/platform/logger"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// Canned diagnostics attached to classified failure states.
const (
	// MessageTimeLimit is returned when a computation exceeded its time limit.
	MessageTimeLimit = "The requested computation is too big, try using a smaller area or revise the input parameters."

	// MessageRevoked is returned when a computation was revoked, including by
	// the stale-PENDING self-healing path.
	MessageRevoked = "The task has been canceled due to high server load, please retry."
)

// StatusInfo is the state of a computation with an optional human-readable
// diagnostic.
type StatusInfo struct {
	State   domain.ComputationState `json:"state"`
	Message string                  `json:"message"`
}

// StatusResolver reconciles the broker's view of a computation with the
// persisted record. The broker reports unknown tasks as PENDING and has no
// dead-letter mechanism, so a computation that stays PENDING past the queue
// timeout is treated as proof the queue silently dropped it and is revoked.
type StatusResolver struct {
	resolver     *CorrelationResolver
	computations store.ComputationStore
	queue        broker.TaskQueue
	cache        *cache.Cache

	cacheCfg     config.CacheConfig
	queueTimeout time.Duration

	// now is the clock; overridable in tests.
	now func() time.Time

	logger *slog.Logger
}

// NewStatusResolver creates a StatusResolver.
// If logger is nil, a default logger is used.
func NewStatusResolver(
	resolver *CorrelationResolver,
	computations store.ComputationStore,
	queue broker.TaskQueue,
	c *cache.Cache,
	cacheCfg config.CacheConfig,
	queueTimeout time.Duration,
	logger *slog.Logger,
) *StatusResolver {
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if computations == nil {
		panic("computations cannot be nil")
	}
	if queue == nil {
		panic("queue cannot be nil")
	}
	if c == nil {
		panic("cache cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &StatusResolver{
		resolver:     resolver,
		computations: computations,
		queue:        queue,
		cache:        c,
		cacheCfg:     cacheCfg,
		queueTimeout: queueTimeout,
		now:          time.Now,
		logger:       logger.With(slog.String("component", "status_resolver")),
	}
}

// GetStatus returns the current state of the computation behind the given
// correlation ID, with a diagnostic message for classified failures.
// Returns ErrUnknownCorrelation for IDs this gateway never issued. Broker
// failures propagate; there is no silent default state.
func (sr *StatusResolver) GetStatus(ctx context.Context, correlationID uuid.UUID) (StatusInfo, error) {
	return cache.Through(ctx, sr.cache, "status:"+correlationID.String(), sr.cacheCfg.TTL(sr.cacheCfg.StatusTTL),
		func(ctx context.Context) (StatusInfo, error) {
			return sr.getStatus(ctx, correlationID)
		})
}

func (sr *StatusResolver) getStatus(ctx context.Context, correlationID uuid.UUID) (StatusInfo, error) {
	computationID, err := sr.resolver.Resolve(ctx, correlationID)
	if err != nil {
		return StatusInfo{}, err
	}

	state, result, err := sr.queue.GetState(ctx, computationID)
	if err != nil {
		return StatusInfo{}, err
	}

	if state == domain.ComputationStatePending {
		return sr.reconcilePending(ctx, computationID)
	}

	return StatusInfo{State: state, Message: classifyResult(result)}, nil
}

// reconcilePending checks a broker-reported PENDING against the persisted
// record. A record already revoked by an earlier self-heal keeps reporting
// REVOKED even though the broker still says PENDING; a record pending past
// the queue timeout is revoked now.
func (sr *StatusResolver) reconcilePending(ctx context.Context, computationID uuid.UUID) (StatusInfo, error) {
	log := logger.FromContextOrDefault(ctx, sr.logger)

	record, err := sr.computations.GetByID(ctx, computationID)
	if err != nil {
		return StatusInfo{}, err
	}

	if record.Status.IsTerminal() {
		// The persisted record already reached an outcome the broker has no
		// row for anymore (earlier self-heal, or a purged result).
		message := record.StatusMessage
		if message == "" && record.Status == domain.ComputationStateRevoked {
			message = MessageRevoked
		}
		return StatusInfo{State: record.Status, Message: message}, nil
	}

	if sr.now().UTC().Sub(record.RegisteredAt) <= sr.queueTimeout {
		return StatusInfo{State: domain.ComputationStatePending}, nil
	}

	// Pending past the queue timeout: the queue dropped the work. The
	// transition is conditional on the record still being PENDING, so a
	// concurrent caller observing the same stale condition re-applies it as
	// a no-op instead of a double-revocation error.
	applied, err := sr.computations.TransitionStatus(
		ctx,
		computationID,
		domain.ComputationStatePending,
		domain.ComputationStateRevoked,
		MessageRevoked,
	)
	if err != nil {
		return StatusInfo{}, err
	}

	if !applied {
		// The record moved off PENDING between the read and the conditional
		// update. Whatever state won the race is the one to report.
		record, err = sr.computations.GetByID(ctx, computationID)
		if err != nil {
			return StatusInfo{}, err
		}
		return StatusInfo{State: record.Status, Message: record.StatusMessage}, nil
	}

	log.Warn("revoked stale pending computation",
		slog.String("computation_id", computationID.String()),
		slog.Duration("queue_timeout", sr.queueTimeout))

	return StatusInfo{State: domain.ComputationStateRevoked, Message: MessageRevoked}, nil
}

// classifyResult turns a broker result payload into a diagnostic message.
func classifyResult(result *broker.Result) string {
	if result == nil {
		return ""
	}

	switch result.Kind {
	case broker.ResultKindUserError, broker.ResultKindInputValidation:
		return result.Detail
	case broker.ResultKindTimeLimit:
		return MessageTimeLimit
	case broker.ResultKindRevoked:
		return MessageRevoked
	default:
		return ""
	}
}
