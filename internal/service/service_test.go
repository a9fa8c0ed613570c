package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/auth"
	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store/sqlite"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// tickingClock advances one second per reading so rows get distinct
// timestamps.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// recordingInvalidator remembers which users had their cache dropped.
type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
	return nil
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}

type testEnv struct {
	store    *sqlite.Store
	cache    *recordingInvalidator
	auth     *AuthService
	novels   *NovelService
	chapters *ChapterService
	library  *LibraryService
	ratings  *RatingService
	comments *CommentService
	importer *ImportService
	tokens   *auth.TokenService
	clock    *tickingClock
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := &tickingClock{now: testEpoch}
	s.SetClock(clock.Now)
	opts := Options{Now: clock.Now}

	tokens, err := auth.NewTokenService(make([]byte, auth.KeySize), time.Hour)
	require.NoError(t, err)

	cache := &recordingInvalidator{}
	novels := NewNovelService(s, logger, opts)
	chapters := NewChapterService(s, logger, opts)
	return &testEnv{
		store:    s,
		cache:    cache,
		auth:     NewAuthService(s, tokens, logger, opts),
		novels:   novels,
		chapters: chapters,
		library:  NewLibraryService(s, cache, logger, opts),
		ratings:  NewRatingService(s, cache, logger, opts),
		comments: NewCommentService(s, logger, opts),
		importer: NewImportService(s, novels, chapters, logger, opts),
		tokens:   tokens,
		clock:    clock,
		ctx:      context.Background(),
	}
}

// register creates a user and returns its id.
func (e *testEnv) register(t *testing.T, email, name string) string {
	t.Helper()
	resp, err := e.auth.Register(e.ctx, RegisterRequest{
		Email:       email,
		Password:    "correct horse battery",
		DisplayName: name,
	})
	require.NoError(t, err)
	return resp.User.ID
}

func (e *testEnv) novel(t *testing.T, authorID, title string, genres ...string) *domain.Novel {
	t.Helper()
	n, err := e.novels.Create(e.ctx, authorID, CreateNovelRequest{Title: title, Genres: genres})
	require.NoError(t, err)
	return n
}
