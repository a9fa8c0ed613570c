package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/recommend"
	"github.com/inkwell/inkwell-server/internal/service"
)

func TestLibrary_Flow(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, author := ts.register(t, "ava@example.com", "Ava")
	_, reader := ts.register(t, "ben@example.com", "Ben")
	first := ts.createNovel(t, author, "First", "fantasy")
	second := ts.createNovel(t, author, "Second", "fantasy")

	resp := ts.api.Post("/api/v1/library", reader, map[string]any{"novel_id": first, "status": "reading"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	entry := decode[domain.LibraryEntry](t, resp).Data
	assert.Equal(t, domain.ReadingStatusReading, entry.Status)
	require.NotNil(t, entry.Novel)
	assert.Equal(t, "First", entry.Novel.Title)

	resp = ts.api.Post("/api/v1/library", reader, map[string]any{"novel_id": first})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_EXISTS", decode[any](t, resp).Code)

	resp = ts.api.Post("/api/v1/library", reader, map[string]any{"novel_id": "novel-missing"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Post("/api/v1/library", reader, map[string]any{"novel_id": second})
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, domain.ReadingStatusPlanToRead, decode[domain.LibraryEntry](t, resp).Data.Status)

	resp = ts.api.Patch("/api/v1/library/"+second, reader, map[string]any{"status": "completed", "last_read_chapter": 3})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[domain.LibraryEntry](t, resp).Data
	assert.Equal(t, domain.ReadingStatusCompleted, updated.Status)
	assert.Equal(t, 3, updated.LastReadChapter)

	resp = ts.api.Get("/api/v1/library?status=completed", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	completed := decode[LibraryResponse](t, resp).Data
	require.Len(t, completed.Entries, 1)
	assert.Equal(t, second, completed.Entries[0].NovelID)

	resp = ts.api.Get("/api/v1/library?status=finished", reader)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get("/api/v1/library/stats", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	stats := decode[service.LibraryStats](t, resp).Data
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.ReadingStatusReading])

	resp = ts.api.Delete("/api/v1/library/"+first, reader)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = ts.api.Delete("/api/v1/library/"+first, reader)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/library", author)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[LibraryResponse](t, resp).Data.Entries)
}

func TestRatings_UpdateAggregate(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, author := ts.register(t, "ava@example.com", "Ava")
	_, r1 := ts.register(t, "ben@example.com", "Ben")
	_, r2 := ts.register(t, "cy@example.com", "Cy")
	novelID := ts.createNovel(t, author, "Rated")
	path := "/api/v1/novels/" + novelID + "/rating"

	resp := ts.api.Put(path, r1, map[string]any{"score": 5, "review": "Great"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	resp = ts.api.Put(path, r2, map[string]any{"score": 2})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Put(path, r2, map[string]any{"score": 6})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Get(path, r1)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 5, decode[domain.Rating](t, resp).Data.Score)

	novel := decode[domain.Novel](t, ts.api.Get("/api/v1/novels/"+novelID)).Data
	assert.InDelta(t, 3.5, novel.RatingAverage, 1e-9)
	assert.Equal(t, 2, novel.RatingCount)

	resp = ts.api.Delete(path, r2)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, r2).Code)

	novel = decode[domain.Novel](t, ts.api.Get("/api/v1/novels/"+novelID)).Data
	assert.InDelta(t, 5.0, novel.RatingAverage, 1e-9)
	assert.Equal(t, 1, novel.RatingCount)
}

func TestRecommendations_CacheAndInvalidation(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, author := ts.register(t, "ava@example.com", "Ava")
	_, reader := ts.register(t, "ben@example.com", "Ben")
	read := ts.createNovel(t, author, "Read", "fantasy")
	ts.createNovel(t, author, "Unread", "fantasy")

	resp := ts.api.Get("/api/v1/recommendations", reader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	empty := decode[recommend.Result](t, resp).Data
	assert.Empty(t, empty.Bundle.BecauseYouRead)
	assert.NotNil(t, empty.Bundle.ReadersLikeYou)

	raw := decode[map[string]any](t, resp).Data
	bundle, ok := raw["recommendations"].(map[string]any)
	require.True(t, ok, resp.Body.String())
	keys := make([]string, 0, len(bundle))
	for k, v := range bundle {
		keys = append(keys, k)
		assert.Equal(t, []any{}, v, "list %s is an empty array, not null", k)
	}
	assert.ElementsMatch(t, []string{
		"becauseYouRead", "readersLikeYou", "popularInGenre", "fromAuthorsYouFollow", "continueReading",
	}, keys)

	resp = ts.api.Post("/api/v1/library", reader, map[string]any{"novel_id": read, "status": "completed"})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/recommendations", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	fresh := decode[recommend.Result](t, resp).Data
	assert.False(t, fresh.Cached, "library change drops the cached bundle")
	require.Len(t, fresh.Bundle.BecauseYouRead, 1)
	assert.Equal(t, "Unread", fresh.Bundle.BecauseYouRead[0].Novel.Title)
	assert.Equal(t, "Because you read Read", fresh.Bundle.BecauseYouRead[0].Reason)

	resp = ts.api.Get("/api/v1/recommendations", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[recommend.Result](t, resp).Data.Cached)

	resp = ts.api.Get("/api/v1/recommendations?refresh=true", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[recommend.Result](t, resp).Data.Cached)

	resp = ts.api.Get("/api/v1/recommendations")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
