package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/epub"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/media"
)

// MaxEPUBBytes bounds an uploaded EPUB.
const MaxEPUBBytes = 50 << 20

const (
	maxTitleRunes  = 200
	maxImportGenre = 10
)

// ImportService turns an EPUB into a novel with chapters.
type ImportService struct {
	store    Store
	novels   *NovelService
	chapters *ChapterService
	logger   *slog.Logger
	now      func() time.Time
}

// NewImportService creates a new import service.
func NewImportService(s Store, novels *NovelService, chapters *ChapterService, logger *slog.Logger, opts Options) *ImportService {
	return &ImportService{store: s, novels: novels, chapters: chapters, logger: logger, now: opts.now()}
}

// ImportResult summarises an import.
type ImportResult struct {
	Novel    *domain.Novel `json:"novel"`
	Chapters int           `json:"chapters"`
	HasCover bool          `json:"has_cover"`
}

// ImportEPUB creates a novel owned by userID from an EPUB archive. If a
// chapter cannot be stored the half-built novel is deleted again. A bad
// cover image is skipped.
func (s *ImportService) ImportEPUB(ctx context.Context, userID string, data []byte) (*ImportResult, error) {
	if len(data) == 0 {
		return nil, errors.Validation("empty upload")
	}
	if len(data) > MaxEPUBBytes {
		return nil, errors.TooLarge(fmt.Sprintf("epub exceeds %d bytes", MaxEPUBBytes))
	}

	book, err := epub.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	title := truncateRunes(book.Title, maxTitleRunes)
	var subjects []string
	for _, sub := range book.Subjects {
		if n := utf8.RuneCountInString(sub); n > 0 && n <= 50 && len(subjects) < maxImportGenre {
			subjects = append(subjects, sub)
		}
	}
	n, err := s.novels.Create(ctx, userID, CreateNovelRequest{
		Title:       title,
		Description: truncateRunes(book.Description, 20000),
		Genres:      subjects,
	})
	if err != nil {
		return nil, err
	}

	for i, ch := range book.Chapters {
		chTitle := truncateRunes(ch.Title, maxTitleRunes)
		if chTitle == "" {
			chTitle = fmt.Sprintf("Chapter %d", i+1)
		}
		_, err := s.chapters.create(ctx, n.ID, CreateChapterRequest{
			Number:  i + 1,
			Title:   chTitle,
			Content: ch.HTML,
		})
		if err != nil {
			s.rollback(n.ID)
			return nil, fmt.Errorf("import chapter %d: %w", i+1, err)
		}
	}

	result := &ImportResult{Chapters: len(book.Chapters)}
	if book.Cover != nil {
		cover, err := media.ProcessCover(book.Cover.Data)
		if err == nil {
			err = s.store.SetCover(ctx, n.ID, cover)
		}
		if err != nil {
			s.logger.Warn("skipping epub cover", "novel_id", n.ID, "href", book.Cover.Href, "error", err)
		} else {
			result.HasCover = true
		}
	}

	if result.Novel, err = s.store.GetNovel(ctx, n.ID); err != nil {
		return nil, err
	}
	s.logger.Info("epub imported", "novel_id", n.ID, "title", title, "chapters", result.Chapters)
	return result, nil
}

// rollback runs detached from the request so a cancelled upload still
// cleans up.
func (s *ImportService) rollback(novelID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.DeleteNovel(ctx, novelID, s.now()); err != nil {
		s.logger.Error("failed to roll back import", "novel_id", novelID, "error", err)
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
