package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/auth"
	"github.com/inkwell/inkwell-server/internal/indexsync"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/search"
	"github.com/inkwell/inkwell-server/internal/service"
	"github.com/inkwell/inkwell-server/internal/store/sqlite"
)

const adminEmail = "admin@example.com"

// testEnvelope mirrors the response envelope with a typed payload.
type testEnvelope[T any] struct {
	Version int            `json:"v"`
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

type testServer struct {
	server *Server
	api    humatest.TestAPI
	store  *sqlite.Store
	index  *search.Index
	sync   *indexsync.Synchronizer
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.NewIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	syncer := indexsync.New(s, index, indexsync.Config{RetryBase: time.Millisecond}, logger)

	cache, err := recommend.OpenCache(recommend.CacheOptions{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	engine := recommend.NewEngine(s, cache, logger)

	tokens, err := auth.NewTokenService(make([]byte, auth.KeySize), time.Hour)
	require.NoError(t, err)

	svcOpts := service.Options{}
	novels := service.NewNovelService(s, logger, svcOpts)
	chapters := service.NewChapterService(s, logger, svcOpts)

	services := &Services{
		Auth:      service.NewAuthService(s, tokens, logger, svcOpts),
		Novels:    novels,
		Chapters:  chapters,
		Library:   service.NewLibraryService(s, engine, logger, svcOpts),
		Ratings:   service.NewRatingService(s, engine, logger, svcOpts),
		Comments:  service.NewCommentService(s, logger, svcOpts),
		Import:    service.NewImportService(s, novels, chapters, logger, svcOpts),
		Search:    service.NewSearchService(index, logger),
		Recommend: engine,
		Sync:      syncer,
		Database:  s,
		Index:     index,
	}

	if opts.AdminEmails == nil {
		opts.AdminEmails = []string{adminEmail}
	}
	server := NewServer(services, opts, logger)
	t.Cleanup(func() { _ = server.Shutdown(context.Background()) })

	return &testServer{
		server: server,
		api:    humatest.Wrap(t, server.api),
		store:  s,
		index:  index,
		sync:   syncer,
	}
}

// register creates a user and returns its id and an Authorization header.
func (ts *testServer) register(t *testing.T, email, name string) (userID, authHeader string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct horse",
		"display_name": name,
	})
	require.Equal(t, 201, resp.Code, resp.Body.String())
	env := decode[service.AuthResponse](t, resp)
	return env.Data.User.ID, "Authorization: Bearer " + env.Data.AccessToken
}

// createNovel creates a novel through the API and returns its id.
func (ts *testServer) createNovel(t *testing.T, authHeader, title string, genres ...string) string {
	t.Helper()
	body := map[string]any{"title": title}
	if len(genres) > 0 {
		body["genres"] = genres
	}
	resp := ts.api.Post("/api/v1/novels", authHeader, body)
	require.Equal(t, 201, resp.Code, resp.Body.String())
	env := decode[struct {
		ID string `json:"id"`
	}](t, resp)
	return env.Data.ID
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 36))
	for y := range 36 {
		for x := range 24 {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 7), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func chapterPath(novelID string, n int) string {
	return fmt.Sprintf("/api/v1/novels/%s/chapters/%d", novelID, n)
}
