package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/inkwell/inkwell-server/internal/config"
	"github.com/inkwell/inkwell-server/internal/indexsync"
	"github.com/inkwell/inkwell-server/internal/logger"
)

// SynchronizerHandle wraps the index synchronizer with shutdown capability.
type SynchronizerHandle struct {
	*indexsync.Synchronizer
}

// Shutdown implements do.Shutdownable.
func (h *SynchronizerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideSynchronizer builds the synchronizer, registers it for store change
// notifications and runs the initial bulk load before starting the
// background loops. A failed bulk load aborts startup.
func ProvideSynchronizer(i do.Injector) (*SynchronizerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	syncer := indexsync.New(storeHandle.Store, indexHandle.Index, indexsync.Config{
		PollInterval:      cfg.Sync.PollInterval,
		ReconcileInterval: cfg.Sync.ReconcileInterval,
		BatchSize:         cfg.Sync.BatchSize,
		PageSize:          cfg.Sync.PageSize,
		RetryAttempts:     cfg.Sync.RetryAttempts,
		RetryBase:         cfg.Sync.RetryBase,
		RetryCap:          cfg.Sync.RetryCap,
		QueueSize:         cfg.Sync.QueueSize,
		CursorLag:         cfg.Sync.CursorLag,
	}, log.Logger)

	ctx := context.Background()
	report, err := syncer.BulkLoad(ctx)
	if err != nil {
		return nil, fmt.Errorf("initial index load: %w", err)
	}
	log.Info("Search index loaded",
		"pushed", report.Pushed,
		"failed", len(report.Failed),
		"duration", report.Duration,
	)

	storeHandle.SetChangeNotifier(syncer)
	syncer.Start(ctx)

	return &SynchronizerHandle{Synchronizer: syncer}, nil
}
