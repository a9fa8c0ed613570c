package indexsync

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/metrics"
	"github.com/inkwell/inkwell-server/internal/search"
)

// FullReconcile compares every live novel with its index document and
// re-pushes those that are missing or differ. It is independent of the
// cursor and shares the run lock with PollOnce.
func (s *Synchronizer) FullReconcile(ctx context.Context) (*ReconcileReport, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := s.now()
	report := &ReconcileReport{StartedAt: started}

	err := s.reconcileAll(ctx, report)
	report.Duration = s.now().Sub(started)
	if err != nil {
		report.Error = err.Error()
	}

	s.mu.Lock()
	s.lastReconcile = report
	s.lastReconcileAt = started
	s.mu.Unlock()

	if err != nil {
		metrics.SyncCycles.WithLabelValues("reconcile", "failed").Inc()
		s.logger.Error("full reconciliation failed", "checked", report.Checked, "error", err)
		return report, err
	}

	result := "success"
	if len(report.Failed) > 0 {
		result = "partial"
	}
	metrics.SyncCycles.WithLabelValues("reconcile", result).Inc()
	s.logger.Info("full reconciliation complete",
		"checked", report.Checked,
		"missing", report.Missing,
		"drifted", report.Drifted,
		"repaired", report.Repaired,
		"failed", len(report.Failed),
	)
	return report, nil
}

// Rebuilder is an index that can be dropped and recreated empty.
type Rebuilder interface {
	Rebuild() error
}

// Rebuild drops the index and bulk-loads it again, for mapping changes or a
// corrupted index. Polls and reconciliations wait until it finishes.
func (s *Synchronizer) Rebuild(ctx context.Context) (*BulkReport, error) {
	rb, ok := s.index.(Rebuilder)
	if !ok {
		return nil, fmt.Errorf("index %T cannot be rebuilt", s.index)
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.logger.Warn("rebuilding search index")
	if err := rb.Rebuild(); err != nil {
		return nil, errors.Unavailable("rebuild search index", err)
	}
	return s.BulkLoad(ctx)
}

func (s *Synchronizer) reconcileAll(ctx context.Context, report *ReconcileReport) error {
	after := ""
	for {
		page, err := s.source.ListLiveNovelsAfter(ctx, after, s.cfg.PageSize)
		if err != nil {
			return fmt.Errorf("list novels after %q: %w", after, err)
		}

		var repair []*domain.Novel
		for _, n := range page {
			report.Checked++

			doc, err := s.index.Get(ctx, n.ID)
			switch {
			case errors.Is(err, search.ErrDocumentNotFound):
				report.Missing++
				metrics.SyncRepairs.WithLabelValues("missing").Inc()
				repair = append(repair, n)
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				res := ItemResult{NovelID: n.ID, Op: OpUpsert, Err: err, Error: err.Error()}
				report.Failed = append(report.Failed, res)
			case Drifted(n, doc):
				report.Drifted++
				metrics.SyncRepairs.WithLabelValues("drift").Inc()
				repair = append(repair, n)
			}
		}

		for _, res := range s.pushAll(ctx, repair) {
			if res.OK() {
				report.Repaired++
			} else {
				report.Failed = append(report.Failed, res)
			}
		}

		if len(page) < s.cfg.PageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}

// Drifted reports whether the indexed document no longer matches the novel
// on the compared fields.
func Drifted(n *domain.Novel, doc *search.NovelDocument) bool {
	return n.Title != doc.Title ||
		n.Description != doc.Description ||
		string(n.Status) != doc.Status ||
		!sameSet(n.Genres, doc.Genres) ||
		!sameSet(n.Tags, doc.Tags) ||
		math.Abs(n.RatingAverage-doc.RatingAverage) > 1e-9 ||
		n.RatingCount != doc.RatingCount ||
		n.ViewCount != doc.ViewCount ||
		n.ChapterCount != doc.ChapterCount
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
