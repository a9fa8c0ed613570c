// Package di provides dependency injection configuration for the Inkwell server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/inkwell/inkwell-server/internal/auth"
	"github.com/inkwell/inkwell-server/internal/config"
	"github.com/inkwell/inkwell-server/internal/di/providers"
	"github.com/inkwell/inkwell-server/internal/logger"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideRecommendCache)

	// Derived state
	do.Provide(injector, providers.ProvideSynchronizer)
	do.Provide(injector, providers.ProvideRecommendEngine)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideNovelService)
	do.Provide(injector, providers.ProvideChapterService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideRatingService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvideImportService)
	do.Provide(injector, providers.ProvideSearchService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order. The index bulk
// load runs here, before the HTTP server starts accepting requests.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	steps := []func() error{
		invoke[providers.AuthKey](injector),
		invoke[*providers.StoreHandle](injector),
		invoke[*providers.SearchIndexHandle](injector),
		invoke[*providers.RecommendCacheHandle](injector),
		invoke[*providers.SynchronizerHandle](injector),
		invoke[*recommend.Engine](injector),
		invoke[*auth.TokenService](injector),
		invoke[*service.AuthService](injector),
		invoke[*service.NovelService](injector),
		invoke[*service.ChapterService](injector),
		invoke[*service.LibraryService](injector),
		invoke[*service.RatingService](injector),
		invoke[*service.CommentService](injector),
		invoke[*service.ImportService](injector),
		invoke[*service.SearchService](injector),
		invoke[*providers.HTTPServerHandle](injector),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](injector *do.RootScope) func() error {
	return func() error {
		_, err := do.Invoke[T](injector)
		return err
	}
}
