// Package indexsync keeps the search index eventually consistent with the
// primary store.
//
// A Synchronizer bulk-loads the index at startup, then polls the primary
// store for novels modified after its cursor, removes index documents whose
// novel no longer exists, and periodically runs a full field-by-field
// reconciliation. Write paths may also hint individual novels through
// Enqueue for lower latency; the poll remains the source of truth.
package indexsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/metrics"
	"github.com/inkwell/inkwell-server/internal/search"
)

// cursorName keys the synchronizer's row in the sync_state table.
const cursorName = "search_index"

// Source is the primary store as seen by the synchronizer.
type Source interface {
	NovelsModifiedSince(ctx context.Context, since time.Time) ([]*domain.Novel, error)
	ListLiveNovelsAfter(ctx context.Context, afterID string, limit int) ([]*domain.Novel, error)
	ListLiveNovelIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
	GetNovelIncludingDeleted(ctx context.Context, id string) (*domain.Novel, error)
	GetSyncCursor(ctx context.Context, name string) (time.Time, bool, error)
	SetSyncCursor(ctx context.Context, name string, cursor time.Time) error
}

// Index is the secondary store as seen by the synchronizer.
type Index interface {
	Upsert(ctx context.Context, doc *search.NovelDocument) error
	Delete(ctx context.Context, id string) error
	DeleteBatch(ctx context.Context, ids []string) error
	Get(ctx context.Context, id string) (*search.NovelDocument, error)
	ListIDs(ctx context.Context, after string, limit int) ([]string, error)
}

// State is the synchronizer lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateBulkLoading   State = "bulk_loading"
	StatePolling       State = "polling"
)

// Config tunes scheduling, batching and retries.
type Config struct {
	PollInterval      time.Duration
	ReconcileInterval time.Duration
	BatchSize         int
	PageSize          int
	RetryAttempts     int
	RetryBase         time.Duration
	RetryCap          time.Duration
	QueueSize         int
	// CursorLag holds the cursor behind the poll time so a write stamped
	// before the poll but committed after it still falls in the next window.
	// It should exceed the store's lock wait. Zero disables it.
	CursorLag time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:      30 * time.Second,
		ReconcileInterval: 24 * time.Hour,
		BatchSize:         100,
		PageSize:          500,
		RetryAttempts:     3,
		RetryBase:         time.Second,
		RetryCap:          10 * time.Second,
		QueueSize:         1024,
		CursorLag:         10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = d.ReconcileInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.PageSize <= 0 {
		c.PageSize = d.PageSize
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = d.RetryAttempts
	}
	if c.RetryBase <= 0 {
		c.RetryBase = d.RetryBase
	}
	if c.RetryCap < c.RetryBase {
		c.RetryCap = max(d.RetryCap, c.RetryBase)
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	c.CursorLag = max(c.CursorLag, 0)
}

// Option customises a Synchronizer.
type Option func(*Synchronizer)

// WithClock overrides the time source used for poll windows and status.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) { s.now = now }
}

// Synchronizer owns the sync cursor and drives index maintenance.
type Synchronizer struct {
	source  Source
	index   Index
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time
	breaker *gobreaker.CircuitBreaker[struct{}]
	queue   chan string

	// runMu serialises poll and full reconciliation.
	runMu sync.Mutex

	mu              sync.Mutex
	state           State
	cursor          time.Time
	lastPoll        *Report
	lastReconcile   *ReconcileReport
	lastReconcileAt time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Synchronizer. Call BulkLoad, then Start.
func New(source Source, index Index, cfg Config, logger *slog.Logger, opts ...Option) *Synchronizer {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Synchronizer{
		source: source,
		index:  index,
		cfg:    cfg,
		logger: logger.With("component", "indexsync"),
		now:    time.Now,
		queue:  make(chan string, cfg.QueueSize),
		state:  StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.breaker = newBreaker(s.logger)
	return s
}

// Status is a point-in-time snapshot for the admin API.
type Status struct {
	State           State            `json:"state"`
	Cursor          time.Time        `json:"cursor"`
	LastPoll        *Report          `json:"last_poll,omitempty"`
	LastReconcile   *ReconcileReport `json:"last_reconcile,omitempty"`
	LastReconcileAt *time.Time       `json:"last_reconcile_at,omitempty"`
	QueueDepth      int              `json:"queue_depth"`
	Breaker         string           `json:"breaker"`
}

// Status returns the current state.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:         s.state,
		Cursor:        s.cursor,
		LastPoll:      s.lastPoll,
		LastReconcile: s.lastReconcile,
		QueueDepth:    len(s.queue),
		Breaker:       s.breaker.State().String(),
	}
	if !s.lastReconcileAt.IsZero() {
		at := s.lastReconcileAt
		st.LastReconcileAt = &at
	}
	return st
}

// Cursor returns the exclusive lower bound of the next poll window.
func (s *Synchronizer) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Synchronizer) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// advanceCursor persists and then publishes a new cursor. The cursor never
// moves backwards.
func (s *Synchronizer) advanceCursor(ctx context.Context, to time.Time) error {
	if !to.After(s.Cursor()) {
		return nil
	}
	if err := s.source.SetSyncCursor(ctx, cursorName, to); err != nil {
		return err
	}
	s.mu.Lock()
	s.cursor = to
	s.mu.Unlock()
	metrics.SyncCursor.Set(float64(to.Unix()))
	return nil
}

// Start launches the poll loop, the reconciliation loop and the enqueue
// worker. Each loop arms its next tick only after the current one returns.
func (s *Synchronizer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, s.cfg.PollInterval, func(ctx context.Context) {
			_, _ = s.PollOnce(ctx, s.now())
		})
	}()
	go func() {
		defer s.wg.Done()
		s.loop(ctx, s.cfg.ReconcileInterval, func(ctx context.Context) {
			_, _ = s.FullReconcile(ctx)
		})
	}()
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()

	s.logger.Info("index synchronizer started",
		"poll_interval", s.cfg.PollInterval,
		"reconcile_interval", s.cfg.ReconcileInterval,
	)
}

// Stop cancels the loops and the worker. In-flight index writes observe the
// cancelled context and return early.
func (s *Synchronizer) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("index synchronizer stopped")
}

func (s *Synchronizer) loop(ctx context.Context, interval time.Duration, tick func(context.Context)) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			tick(ctx)
			timer.Reset(interval)
		}
	}
}

// Enqueue hints that a novel changed. It never blocks: when the queue is
// full the hint is dropped and the next poll picks the change up.
func (s *Synchronizer) Enqueue(novelID string) {
	select {
	case s.queue <- novelID:
	default:
		metrics.SyncQueueDropped.Inc()
		s.logger.Debug("index queue full, dropping hint", "novel_id", novelID)
	}
}

// NovelChanged implements store.ChangeNotifier.
func (s *Synchronizer) NovelChanged(_ context.Context, novelID string) {
	s.Enqueue(novelID)
}

func (s *Synchronizer) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			if res := s.SyncNovel(ctx, id); res.Err != nil && ctx.Err() == nil {
				s.logger.Warn("index update failed", "novel_id", id, "op", res.Op, "error", res.Err)
			}
		}
	}
}
