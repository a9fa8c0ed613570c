package providers

import (
	"github.com/samber/do/v2"

	"github.com/inkwell/inkwell-server/internal/auth"
	"github.com/inkwell/inkwell-server/internal/logger"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Component("auth"), service.Options{}), nil
}

// ProvideNovelService provides the novel service.
func ProvideNovelService(i do.Injector) (*service.NovelService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNovelService(storeHandle.Store, log.Component("novels"), service.Options{}), nil
}

// ProvideChapterService provides the chapter service.
func ProvideChapterService(i do.Injector) (*service.ChapterService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewChapterService(storeHandle.Store, log.Component("chapters"), service.Options{}), nil
}

// ProvideLibraryService provides the library service. Library changes drop
// the user's cached recommendations.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*recommend.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, engine, log.Component("library"), service.Options{}), nil
}

// ProvideRatingService provides the rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*recommend.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(storeHandle.Store, engine, log.Component("ratings"), service.Options{}), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, log.Component("comments"), service.Options{}), nil
}

// ProvideImportService provides the EPUB import service.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	novels := do.MustInvoke[*service.NovelService](i)
	chapters := do.MustInvoke[*service.ChapterService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewImportService(storeHandle.Store, novels, chapters, log.Component("import"), service.Options{}), nil
}
