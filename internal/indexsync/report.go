package indexsync

import (
	"fmt"
	"time"

	"github.com/inkwell/inkwell-server/internal/metrics"
)

// Op is the index operation applied for one novel.
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// ItemResult is the outcome of pushing one novel.
type ItemResult struct {
	NovelID  string `json:"novel_id"`
	Op       Op     `json:"op"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// OK reports whether the push succeeded.
func (r ItemResult) OK() bool { return r.Err == nil }

func (r *ItemResult) finish() {
	result := "success"
	if r.Err != nil {
		result = "failed"
		r.Error = r.Err.Error()
	}
	metrics.SyncItems.WithLabelValues(string(r.Op), result).Inc()
}

// Report describes one poll cycle.
type Report struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	From           time.Time     `json:"from"`
	Found          int           `json:"found"`
	Upserted       int           `json:"upserted"`
	Deleted        int           `json:"deleted"`
	Failed         []ItemResult  `json:"failed,omitempty"`
	StaleRemoved   int           `json:"stale_removed"`
	CursorAdvanced bool          `json:"cursor_advanced"`
	Error          string        `json:"error,omitempty"`
}

func (r *Report) add(results []ItemResult) {
	for _, res := range results {
		switch {
		case !res.OK():
			r.Failed = append(r.Failed, res)
		case res.Op == OpDelete:
			r.Deleted++
		default:
			r.Upserted++
		}
	}
}

// PushFailedError reports a cycle whose pushes did not all succeed.
type PushFailedError struct {
	Failed int
	Total  int
}

func (e *PushFailedError) Error() string {
	return fmt.Sprintf("%d of %d index pushes failed", e.Failed, e.Total)
}

// ReconcileReport describes one full reconciliation.
type ReconcileReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Missing   int           `json:"missing"`
	Drifted   int           `json:"drifted"`
	Repaired  int           `json:"repaired"`
	Failed    []ItemResult  `json:"failed,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// BulkReport describes one bulk load.
type BulkReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Pushed    int           `json:"pushed"`
	Failed    []ItemResult  `json:"failed,omitempty"`
}
