package indexsync

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/metrics"
)

// BulkLoad pushes every live novel to the index. It is idempotent: each run
// overwrites whatever the index holds for those ids.
//
// A primary store failure is returned and should abort startup. Index
// failures are not fatal: the state still moves to Polling, but the cursor
// stays put so the next poll covers the failed records.
func (s *Synchronizer) BulkLoad(ctx context.Context) (*BulkReport, error) {
	s.setState(StateBulkLoading)
	started := s.now()
	report := &BulkReport{StartedAt: started}

	persisted, ok, err := s.source.GetSyncCursor(ctx, cursorName)
	if err != nil {
		metrics.SyncCycles.WithLabelValues("bulk", "failed").Inc()
		return nil, fmt.Errorf("load sync cursor: %w", err)
	}
	if ok {
		s.mu.Lock()
		s.cursor = persisted
		s.mu.Unlock()
	}

	after := ""
	for {
		page, err := s.source.ListLiveNovelsAfter(ctx, after, s.cfg.PageSize)
		if err != nil {
			metrics.SyncCycles.WithLabelValues("bulk", "failed").Inc()
			return nil, fmt.Errorf("bulk load page after %q: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		for _, res := range s.pushAll(ctx, page) {
			if res.OK() {
				report.Pushed++
			} else {
				report.Failed = append(report.Failed, res)
			}
		}

		if len(page) < s.cfg.PageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	report.Duration = s.now().Sub(started)
	s.setState(StatePolling)

	if len(report.Failed) > 0 {
		metrics.SyncCycles.WithLabelValues("bulk", "partial").Inc()
		s.logger.Warn("bulk load finished with failures, cursor not advanced",
			"pushed", report.Pushed,
			"failed", len(report.Failed),
		)
		return report, nil
	}

	if err := s.advanceCursor(ctx, started.Add(-s.cfg.CursorLag)); err != nil {
		s.logger.Warn("failed to persist sync cursor after bulk load", "error", err)
	}
	metrics.SyncCycles.WithLabelValues("bulk", "success").Inc()
	s.logger.Info("bulk load complete", "pushed", report.Pushed, "duration", report.Duration)
	return report, nil
}

// PollOnce runs one incremental cycle for the window (cursor, now].
//
// The cursor moves to now minus CursorLag only when the modified-record
// query succeeded, deletion reconciliation succeeded and every push
// succeeded after retries. Otherwise the whole window is retried on the
// next tick. Records inside the lag are pushed again next tick.
func (s *Synchronizer) PollOnce(ctx context.Context, now time.Time) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	report := &Report{StartedAt: now, From: s.Cursor()}
	var errs []error

	novels, err := s.source.NovelsModifiedSince(ctx, report.From)
	if err != nil {
		errs = append(errs, fmt.Errorf("query modified novels: %w", err))
	} else {
		report.Found = len(novels)
		report.add(s.pushAll(ctx, novels))
		if len(report.Failed) > 0 {
			errs = append(errs, &PushFailedError{Failed: len(report.Failed), Total: len(novels)})
		}
	}

	// Runs even when the query failed.
	removed, err := s.ReconcileDeletions(ctx)
	report.StaleRemoved = removed
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile deletions: %w", err))
	}

	if len(errs) == 0 {
		if err := s.advanceCursor(ctx, now.Add(-s.cfg.CursorLag)); err != nil {
			errs = append(errs, fmt.Errorf("persist cursor: %w", err))
		} else {
			report.CursorAdvanced = true
		}
	}

	cycleErr := errors.Join(errs...)
	report.Duration = s.now().Sub(now)
	if cycleErr != nil {
		report.Error = cycleErr.Error()
	}

	s.mu.Lock()
	s.lastPoll = report
	s.mu.Unlock()

	switch {
	case cycleErr != nil:
		metrics.SyncCycles.WithLabelValues("poll", "failed").Inc()
		s.logger.Error("poll cycle failed, cursor not advanced",
			"from", report.From,
			"found", report.Found,
			"failed", len(report.Failed),
			"error", cycleErr,
		)
	default:
		metrics.SyncCycles.WithLabelValues("poll", "success").Inc()
		if report.Found > 0 || report.StaleRemoved > 0 {
			s.logger.Info("poll cycle complete",
				"upserted", report.Upserted,
				"deleted", report.Deleted,
				"stale_removed", report.StaleRemoved,
			)
		}
	}

	return report, cycleErr
}

// ReconcileDeletions removes index documents with no live primary
// counterpart. Both id sets are walked page by page in ascending id order
// and merged, so neither is ever held in full.
func (s *Synchronizer) ReconcileDeletions(ctx context.Context) (int, error) {
	primary := newIDPager(s.source.ListLiveNovelIDsAfter, s.cfg.PageSize)
	indexed := newIDPager(s.index.ListIDs, s.cfg.PageSize)

	var stale []string
	removed := 0
	flush := func() error {
		if len(stale) == 0 {
			return nil
		}
		batch := stale
		if _, err := s.retry(ctx, "stale batch", func() error {
			return s.index.DeleteBatch(ctx, batch)
		}); err != nil {
			return err
		}
		removed += len(batch)
		metrics.SyncStaleDeleted.Add(float64(len(batch)))
		stale = nil
		return nil
	}

	for {
		id, ok, err := indexed.next(ctx)
		if err != nil {
			return removed, fmt.Errorf("list index ids: %w", err)
		}
		if !ok {
			break
		}

		live, err := primary.seek(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("list primary ids: %w", err)
		}
		if live {
			continue
		}

		stale = append(stale, id)
		if len(stale) >= s.cfg.PageSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}

	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}

// idPager streams ids in ascending order from a keyset-paginated source.
type idPager struct {
	fetch func(ctx context.Context, after string, limit int) ([]string, error)
	limit int
	buf   []string
	pos   int
	after string
	done  bool
}

func newIDPager(fetch func(ctx context.Context, after string, limit int) ([]string, error), limit int) *idPager {
	return &idPager{fetch: fetch, limit: limit}
}

// peek returns the current id without consuming it.
func (p *idPager) peek(ctx context.Context) (string, bool, error) {
	if p.pos < len(p.buf) {
		return p.buf[p.pos], true, nil
	}
	if p.done {
		return "", false, nil
	}

	page, err := p.fetch(ctx, p.after, p.limit)
	if err != nil {
		return "", false, err
	}
	if len(page) < p.limit {
		p.done = true
	}
	if len(page) == 0 {
		return "", false, nil
	}
	p.buf, p.pos = page, 0
	p.after = page[len(page)-1]
	return p.buf[0], true, nil
}

func (p *idPager) next(ctx context.Context) (string, bool, error) {
	id, ok, err := p.peek(ctx)
	if ok {
		p.pos++
	}
	return id, ok, err
}

// seek advances past every id below target and reports whether target
// itself is present.
func (p *idPager) seek(ctx context.Context, target string) (bool, error) {
	for {
		id, ok, err := p.peek(ctx)
		if err != nil || !ok {
			return false, err
		}
		switch {
		case id < target:
			p.pos++
		case id == target:
			p.pos++
			return true, nil
		default:
			return false, nil
		}
	}
}
