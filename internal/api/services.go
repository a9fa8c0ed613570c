package api

import (
	"context"

	"github.com/inkwell/inkwell-server/internal/indexsync"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/service"
)

// SyncAdmin is the synchronizer surface exposed to administrators.
type SyncAdmin interface {
	Status() indexsync.Status
	FullReconcile(ctx context.Context) (*indexsync.ReconcileReport, error)
	Rebuild(ctx context.Context) (*indexsync.BulkReport, error)
}

// Pinger reports whether the primary store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// Services groups everything the handlers call.
type Services struct {
	Auth      *service.AuthService
	Novels    *service.NovelService
	Chapters  *service.ChapterService
	Library   *service.LibraryService
	Ratings   *service.RatingService
	Comments  *service.CommentService
	Import    *service.ImportService
	Search    *service.SearchService
	Recommend *recommend.Engine
	Sync      SyncAdmin

	// Health probes
	Database Pinger
	Index    DocumentCounter
}
