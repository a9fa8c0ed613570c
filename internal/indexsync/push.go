package indexsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/metrics"
	"github.com/inkwell/inkwell-server/internal/search"
	"github.com/inkwell/inkwell-server/internal/store"
)

const breakerName = "search-index"

func newBreaker(logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Caller errors say nothing about index health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

// IsTransient reports whether an index write failure is worth retrying.
// An open breaker fails fast and is not retried within the same push.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.IsTransient(err)
}

// guarded runs an index write through the circuit breaker.
func (s *Synchronizer) guarded(fn func() error) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// retry runs op with capped exponential backoff, retrying transient errors
// only. It returns the number of attempts made.
func (s *Synchronizer) retry(ctx context.Context, what string, op func() error) (int, error) {
	attempts := 0
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			attempts++
			err := s.guarded(op)
			if err != nil && !IsTransient(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		},
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     s.cfg.RetryBase,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         s.cfg.RetryCap,
		}),
		backoff.WithMaxTries(uint(s.cfg.RetryAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.SyncRetries.Inc()
			s.logger.Debug("retrying index write", "what", what, "error", err, "next", next)
		}),
	)
	return attempts, err
}

// push writes one novel's current state: live novels are upserted and
// tombstones deleted.
func (s *Synchronizer) push(ctx context.Context, n *domain.Novel) ItemResult {
	res := ItemResult{NovelID: n.ID, Op: OpUpsert}
	if n.IsDeleted() {
		res.Op = OpDelete
	}

	res.Attempts, res.Err = s.retry(ctx, n.ID, func() error {
		if res.Op == OpDelete {
			return s.index.Delete(ctx, n.ID)
		}
		return s.index.Upsert(ctx, search.FromNovel(n))
	})
	res.finish()
	return res
}

// pushAll pushes novels in fixed-size batches. Members of a batch run
// concurrently; batches run one after another.
func (s *Synchronizer) pushAll(ctx context.Context, novels []*domain.Novel) []ItemResult {
	results := make([]ItemResult, len(novels))

	for start := 0; start < len(novels); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(novels))

		var g errgroup.Group
		g.SetLimit(s.cfg.BatchSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = s.push(ctx, novels[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	return results
}

// SyncNovel resolves a novel's current primary state and pushes it. A novel
// missing from the primary store is removed from the index.
func (s *Synchronizer) SyncNovel(ctx context.Context, novelID string) ItemResult {
	n, err := s.source.GetNovelIncludingDeleted(ctx, novelID)
	if store.IsNotFound(err) {
		res := ItemResult{NovelID: novelID, Op: OpDelete}
		res.Attempts, res.Err = s.retry(ctx, novelID, func() error {
			return s.index.Delete(ctx, novelID)
		})
		res.finish()
		return res
	}
	if err != nil {
		res := ItemResult{NovelID: novelID, Op: OpUpsert, Err: err}
		res.finish()
		return res
	}
	return s.push(ctx, n)
}
