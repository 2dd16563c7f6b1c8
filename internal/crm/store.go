package crm

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"evictioncrm/internal/ident"
	"evictioncrm/pkg/domain"
)

// MetricsRecorder observes dispatch outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Store owns the session's single snapshot. All mutations go through Dispatch,
// which runs the root reducer, evaluates rules against the candidate snapshot
// and commits it atomically.
type Store struct {
	mu          sync.RWMutex
	state       State
	engine      *domain.RulesEngine
	nowFn       func() time.Time
	idFn        func() string
	last        time.Time
	logger      *zap.Logger
	metrics     MetricsRecorder
	seed        bool
	initial     *State
	subMu       sync.Mutex
	subscribers map[int]func(State)
	nextSub     int
	ready       bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock. The store still forces strictly
// increasing timestamps across dispatches.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

// WithIDGenerator replaces ident.New.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.idFn = fn }
}

// WithRulesEngine replaces DefaultRulesEngine.
func WithRulesEngine(engine *domain.RulesEngine) Option {
	return func(s *Store) { s.engine = engine }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches a dispatch metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// WithoutSeed starts from an empty snapshot instead of the demo data.
func WithoutSeed() Option {
	return func(s *Store) { s.seed = false }
}

// WithState starts from the supplied snapshot.
func WithState(st State) Option {
	return func(s *Store) {
		cp := st.clone()
		s.initial = &cp
	}
}

// NewStore constructs a store seeded with demo data unless WithoutSeed or
// WithState is given.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nowFn:       func() time.Time { return time.Now().UTC() },
		idFn:        ident.New,
		logger:      zap.NewNop(),
		metrics:     noopMetrics{},
		seed:        true,
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = DefaultRulesEngine()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	switch {
	case s.initial != nil:
		s.state = *s.initial
		s.initial = nil
		s.last = latestTimestamp(s.state)
	case s.seed:
		s.state = Seed(s.nowFn())
		s.last = latestTimestamp(s.state)
	default:
		s.state = NewState()
	}
	s.ready = true
	return s
}

func (s *Store) mustReady() {
	if s == nil || !s.ready {
		panic(ErrNoStore)
	}
}

// tick returns the dispatch timestamp; callers hold mu.
func (s *Store) tick() time.Time {
	now := s.nowFn()
	if !now.After(s.last) {
		now = s.last.Add(time.Millisecond)
	}
	s.last = now
	return now
}

// Dispatch applies action to the snapshot. The returned patch carries the
// change records of a committed dispatch. Rejected actions and blocking rule
// violations leave the snapshot untouched.
func (s *Store) Dispatch(ctx context.Context, action Action) (Patch, error) {
	s.mustReady()
	start := time.Now()
	op := string(action.Kind())

	s.mu.Lock()
	env := Env{Now: s.tick(), NewID: s.idFn}
	patch := Reduce(s.state, action, env)
	if patch.Reject != nil {
		s.mu.Unlock()
		s.logger.Debug("dispatch rejected", zap.String("action", op), zap.Error(patch.Reject))
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return Patch{}, patch.Reject
	}
	next := s.state.apply(patch)
	res, err := s.engine.Evaluate(ctx, ruleView{state: &next}, patch.Changes)
	if err != nil {
		s.mu.Unlock()
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return Patch{}, err
	}
	if res.HasBlocking() {
		s.mu.Unlock()
		s.logger.Warn("dispatch blocked by rules", zap.String("action", op), zap.Int("violations", len(res.Violations)))
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return Patch{}, domain.RuleViolationError{Result: res}
	}
	s.state = next
	snapshot := next.clone()
	s.mu.Unlock()

	for _, v := range res.Violations {
		s.logger.Warn("rule violation", zap.String("rule", v.Rule), zap.String("entity", string(v.Entity)),
			zap.String("entity_id", v.EntityID), zap.String("message", v.Message))
	}
	s.metrics.Observe(ctx, op, true, time.Since(start))
	if len(patch.Changes) > 0 {
		s.notify(snapshot)
	}
	return patch, nil
}

// Subscribe registers fn to receive the snapshot after every committed
// change. The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mustReady()
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Snapshot returns a deep copy of the normalized snapshot.
func (s *Store) Snapshot() State {
	s.mustReady()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// ExportState is Snapshot under the name used by persistence adapters.
func (s *Store) ExportState() State { return s.Snapshot() }

// ImportState replaces the snapshot wholesale and notifies subscribers.
func (s *Store) ImportState(st State) {
	s.mustReady()
	cp := st.clone()
	s.mu.Lock()
	s.state = cp
	if latest := latestTimestamp(cp); latest.After(s.last) {
		s.last = latest
	}
	snapshot := cp.clone()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Now returns the store clock's current reading without advancing it.
func (s *Store) Now() time.Time {
	s.mustReady()
	return s.nowFn()
}

func (s *Store) view(fn func(st *State)) {
	s.mustReady()
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

func latestTimestamp(st State) time.Time {
	var latest time.Time
	bump := func(t time.Time) {
		if t.After(latest) {
			latest = t
		}
	}
	for _, o := range st.Owners {
		bump(o.CreatedAt)
	}
	for _, c := range st.Cases {
		bump(c.CreatedAt)
		bump(c.UpdatedAt)
	}
	for _, d := range st.Documents {
		bump(d.UploadedAt)
	}
	for _, n := range st.Notes {
		bump(n.CreatedAt)
	}
	return latest
}
