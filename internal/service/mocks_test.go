package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/atmoscale/compute-gateway/internal/blob"
	"github.com/atmoscale/compute-gateway/internal/broker"
	"github.com/atmoscale/compute-gateway/internal/cache"
	"github.com/atmoscale/compute-gateway/internal/config"
	"github.com/atmoscale/compute-gateway/internal/domain"
	"github.com/atmoscale/compute-gateway/internal/store"
	"github.com/google/uuid"
)

// fakeTransactor runs the callback directly with a nil transaction. The fake
// stores ignore the transaction handle, so transactional flows exercise the
// same code path they do in production.
type fakeTransactor struct {
	beginErr error
	calls    int
}

func (t *fakeTransactor) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	t.calls++
	if t.beginErr != nil {
		return t.beginErr
	}
	return fn(ctx, nil)
}

// fakeComputationStore keeps computations in memory and reproduces the
// CreateOrReuse contract: at most one live record per dedup key.
type fakeComputationStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Computation

	createErr     error
	getErr        error
	transitionErr error

	// beforeTransition runs at the start of TransitionStatus, outside the
	// lock, so tests can interleave a concurrent state change.
	beforeTransition func()

	now func() time.Time
}

func newFakeComputationStore() *fakeComputationStore {
	return &fakeComputationStore{
		records: make(map[uuid.UUID]*domain.Computation),
		now:     time.Now,
	}
}

func (s *fakeComputationStore) CreateOrReuse(ctx context.Context, computation *domain.Computation) (*domain.Computation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return nil, false, s.createErr
	}

	for _, existing := range s.records {
		if existing.DedupKey == computation.DedupKey && !existing.Expired(s.now().UTC()) {
			copied := *existing
			return &copied, false, nil
		}
	}

	copied := *computation
	s.records[computation.ID] = &copied
	result := copied
	return &result, true, nil
}

func (s *fakeComputationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Computation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	record, ok := s.records[id]
	if !ok {
		return nil, store.ErrComputationNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeComputationStore) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.ComputationState,
	message string,
) (bool, error) {
	if s.beforeTransition != nil {
		s.beforeTransition()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transitionErr != nil {
		return false, s.transitionErr
	}

	record, ok := s.records[id]
	if !ok {
		return false, store.ErrComputationNotFound
	}
	if record.Status != expected {
		return false, nil
	}

	record.Status = target
	record.StatusMessage = message
	return true, nil
}

func (s *fakeComputationStore) WithTx(tx *sql.Tx) store.ComputationStore { return s }

func (s *fakeComputationStore) put(record *domain.Computation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *record
	s.records[record.ID] = &copied
}

// fakeCorrelationStore keeps correlations in memory.
type fakeCorrelationStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*domain.Correlation

	createErr error
}

func newFakeCorrelationStore() *fakeCorrelationStore {
	return &fakeCorrelationStore{records: make(map[uuid.UUID]*domain.Correlation)}
}

func (s *fakeCorrelationStore) Create(ctx context.Context, correlation *domain.Correlation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return s.createErr
	}
	copied := *correlation
	s.records[correlation.ID] = &copied
	return nil
}

func (s *fakeCorrelationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Correlation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return nil, store.ErrCorrelationNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *fakeCorrelationStore) ResolveComputationID(ctx context.Context, correlationID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[correlationID]
	if !ok {
		return uuid.Nil, store.ErrCorrelationNotFound
	}
	return record.ComputationID, nil
}

func (s *fakeCorrelationStore) WithTx(tx *sql.Tx) store.CorrelationStore { return s }

func (s *fakeCorrelationStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// fakePluginStore serves a fixed set of plugins.
type fakePluginStore struct {
	plugins map[string]*domain.PluginInfo

	listErr error
	getErr  error
}

func newFakePluginStore(plugins ...*domain.PluginInfo) *fakePluginStore {
	s := &fakePluginStore{plugins: make(map[string]*domain.PluginInfo)}
	for _, p := range plugins {
		s.plugins[p.Key] = p
	}
	return s
}

func (s *fakePluginStore) ListKeys(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	keys := make([]string, 0, len(s.plugins))
	for key := range s.plugins {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *fakePluginStore) Get(ctx context.Context, key string) (*domain.PluginInfo, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	info, ok := s.plugins[key]
	if !ok {
		return nil, store.ErrPluginNotFound
	}
	copied := *info
	return &copied, nil
}

// fakeTaskQueue records enqueued tasks and serves canned broker responses.
type fakeTaskQueue struct {
	mu       sync.Mutex
	enqueued []broker.Task

	enqueueErr error

	state    domain.ComputationState
	result   *broker.Result
	stateErr error

	liveness map[string]bool
	pingErr  error
}

func newFakeTaskQueue() *fakeTaskQueue {
	return &fakeTaskQueue{
		state:    domain.ComputationStatePending,
		liveness: make(map[string]bool),
	}
}

func (q *fakeTaskQueue) Enqueue(ctx context.Context, task broker.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, task)
	return nil
}

func (q *fakeTaskQueue) GetState(ctx context.Context, computationID uuid.UUID) (domain.ComputationState, *broker.Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stateErr != nil {
		return "", nil, q.stateErr
	}
	return q.state, q.result, nil
}

func (q *fakeTaskQueue) Ping(ctx context.Context, pluginKeys []string) (map[string]bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pingErr != nil {
		return nil, q.pingErr
	}
	out := make(map[string]bool, len(pluginKeys))
	for _, key := range pluginKeys {
		out[key] = q.liveness[key]
	}
	return out, nil
}

func (q *fakeTaskQueue) enqueuedTasks() []broker.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]broker.Task(nil), q.enqueued...)
}

// fakeBlobStore serves canned URLs and records the expiry it was asked for.
type fakeBlobStore struct {
	mu sync.Mutex

	icons     map[string]string
	artifacts map[string]string
	listed    []domain.ArtifactDescriptor
	listErr   error

	lastExpiry time.Duration
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		icons:     make(map[string]string),
		artifacts: make(map[string]string),
	}
}

func (b *fakeBlobStore) IconURL(ctx context.Context, pluginKey string, expires time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastExpiry = expires
	url, ok := b.icons[pluginKey]
	if !ok {
		return "", blob.ErrObjectNotFound
	}
	return url, nil
}

func (b *fakeBlobStore) ArtifactURL(ctx context.Context, computationID uuid.UUID, storeID string, expires time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastExpiry = expires
	url, ok := b.artifacts[computationID.String()+"/"+storeID]
	if !ok {
		return "", blob.ErrObjectNotFound
	}
	return url, nil
}

func (b *fakeBlobStore) ListAll(ctx context.Context, computationID uuid.UUID) ([]domain.ArtifactDescriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]domain.ArtifactDescriptor(nil), b.listed...), nil
}

// testCacheCfg returns a cache configuration with every TTL class enabled.
func testCacheCfg() config.CacheConfig {
	return config.CacheConfig{
		PluginListTTL: time.Minute,
		PluginInfoTTL: time.Hour,
		PluginPingTTL: time.Minute,
		DispatchTTL:   3 * time.Second,
		StatusTTL:     2 * time.Second,
		DemoTTL:       cache.Forever,
	}
}

// testPlugin returns a registered plugin speaking the given protocol version.
func testPlugin(key, protocolVersion string) *domain.PluginInfo {
	return &domain.PluginInfo{
		Key:             key,
		Name:            key,
		Version:         "1.2.0",
		ProtocolVersion: protocolVersion,
		UpdatedAt:       time.Now().UTC(),
	}
}

// testAOI returns a structurally valid single-polygon AOI.
func testAOI() *domain.AOIFeature {
	return &domain.AOIFeature{
		Type: "Feature",
		Properties: domain.AOIProperties{
			Name: "Test Field",
			ID:   "field-1",
		},
		Geometry: domain.MultiPolygon{
			Type: "MultiPolygon",
			Coordinates: [][][][]float64{{{
				{8.0, 50.0},
				{8.1, 50.0},
				{8.1, 50.1},
				{8.0, 50.0},
			}}},
		},
	}
}
