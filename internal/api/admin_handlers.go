package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/indexsync"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/sync",
		Summary:     "Index sync status",
		Description: "Returns the search index synchronizer state, cursor and last reports",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetSyncStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/sync/reconcile",
		Summary:     "Reconcile search index",
		Description: "Compares every live novel with its index document and repairs drift",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReconcile)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/sync/rebuild",
		Summary:     "Rebuild search index",
		Description: "Drops the search index and reloads every live novel",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRebuild)
}

// RebuildOutput wraps a bulk load report for Huma.
type RebuildOutput struct {
	Body *indexsync.BulkReport
}

// SyncStatusOutput wraps the synchronizer status for Huma.
type SyncStatusOutput struct {
	Body indexsync.Status
}

// ReconcileOutput wraps a reconcile report for Huma.
type ReconcileOutput struct {
	Body *indexsync.ReconcileReport
}

func (s *Server) handleGetSyncStatus(ctx context.Context, _ *AuthenticatedInput) (*SyncStatusOutput, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if s.services.Sync == nil {
		return nil, huma.Error503ServiceUnavailable("Index sync is not running")
	}
	return &SyncStatusOutput{Body: s.services.Sync.Status()}, nil
}

func (s *Server) handleReconcile(ctx context.Context, _ *AuthenticatedInput) (*ReconcileOutput, error) {
	userID, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if s.services.Sync == nil {
		return nil, huma.Error503ServiceUnavailable("Index sync is not running")
	}
	s.logger.Info("manual reconcile requested", "user_id", userID)
	report, err := s.services.Sync.FullReconcile(ctx)
	if err != nil {
		return nil, domainerrors.Unavailable("index reconcile failed", err).WithDetails(report)
	}
	return &ReconcileOutput{Body: report}, nil
}

func (s *Server) handleRebuild(ctx context.Context, _ *AuthenticatedInput) (*RebuildOutput, error) {
	userID, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if s.services.Sync == nil {
		return nil, huma.Error503ServiceUnavailable("Index sync is not running")
	}
	s.logger.Warn("index rebuild requested", "user_id", userID)
	report, err := s.services.Sync.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return &RebuildOutput{Body: report}, nil
}
