package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/inkwell/inkwell-server/internal/api"
	"github.com/inkwell/inkwell-server/internal/config"
	"github.com/inkwell/inkwell-server/internal/logger"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/service"
)

// HTTPServerHandle wraps http.Server and the API with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	return errors.Join(err, h.api.Shutdown(ctx))
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	syncHandle := do.MustInvoke[*SynchronizerHandle](i)

	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Novels:    do.MustInvoke[*service.NovelService](i),
		Chapters:  do.MustInvoke[*service.ChapterService](i),
		Library:   do.MustInvoke[*service.LibraryService](i),
		Ratings:   do.MustInvoke[*service.RatingService](i),
		Comments:  do.MustInvoke[*service.CommentService](i),
		Import:    do.MustInvoke[*service.ImportService](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		Recommend: do.MustInvoke[*recommend.Engine](i),
		Sync:      syncHandle.Synchronizer,
		Database:  storeHandle.Store,
		Index:     indexHandle.Index,
	}

	handler := api.NewServer(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AdminEmails:    cfg.Auth.AdminEmails,
		MaxEPUBBytes:   cfg.Import.MaxEPUBBytes,
	}, log.Logger)

	srv := handler.HTTPServer(":"+cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
