package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := NewIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func testDoc(id, title string, genres ...string) *NovelDocument {
	return &NovelDocument{
		ID:         id,
		Title:      title,
		AuthorID:   "user-1",
		AuthorName: "Ada Writer",
		Genres:     genres,
		Status:     string(domain.NovelStatusOngoing),
	}
}

func TestNewIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNewIndex_ReopensExisting(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	index, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.Upsert(ctx, testDoc("novel-1", "Kept")))
	require.NoError(t, index.Close())

	reopened, err := NewIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestFromNovel_ExcludesCoverBytes(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := &domain.Novel{
		Title:         "The Ember Road",
		Description:   "A long walk.",
		AuthorID:      "user-1",
		AuthorName:    "Ada",
		Genres:        []string{"fantasy"},
		Tags:          []string{"found-family"},
		Status:        domain.NovelStatusCompleted,
		RatingAverage: 4.5,
		RatingCount:   2,
		ViewCount:     10,
		ChapterCount:  3,
		Cover:         &domain.Cover{MimeType: "image/png", Data: []byte{1, 2, 3}},
	}
	n.ID = "novel-1"
	n.InitTimestamps(created)

	doc := FromNovel(n)
	m := doc.ToMap()

	for _, v := range m {
		_, isBytes := v.([]byte)
		assert.False(t, isBytes)
	}
	assert.Equal(t, created.UnixMilli(), doc.CreatedAt)
	assert.Equal(t, "the ember road", m["title_sort"])
}

func TestUpsert_GetRoundTrip(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	doc := &NovelDocument{
		ID:            "novel-1",
		Title:         "The Ember Road",
		Description:   "A long walk through ash.",
		AuthorID:      "user-1",
		AuthorName:    "Ada Writer",
		Genres:        []string{"fantasy", "adventure"},
		Tags:          []string{"found-family"},
		Status:        "completed",
		RatingAverage: 4.5,
		RatingCount:   2,
		ViewCount:     17,
		ChapterCount:  12,
		CreatedAt:     1700000000000,
		UpdatedAt:     1700000001000,
	}
	require.NoError(t, index.Upsert(ctx, doc))

	got, err := index.Get(ctx, "novel-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Description, got.Description)
	assert.ElementsMatch(t, doc.Genres, got.Genres)
	// Single-valued arrays come back as a plain string from Bleve.
	assert.Equal(t, []string{"found-family"}, got.Tags)
	assert.Equal(t, doc.Status, got.Status)
	assert.InDelta(t, doc.RatingAverage, got.RatingAverage, 1e-9)
	assert.Equal(t, doc.RatingCount, got.RatingCount)
	assert.Equal(t, doc.ViewCount, got.ViewCount)
	assert.Equal(t, doc.ChapterCount, got.ChapterCount)
	assert.Equal(t, doc.UpdatedAt, got.UpdatedAt)

	// Upsert replaces wholesale.
	doc.Tags = nil
	doc.Title = "The Ember Road (Revised)"
	require.NoError(t, index.Upsert(ctx, doc))

	got, err = index.Get(ctx, "novel-1")
	require.NoError(t, err)
	assert.Equal(t, "The Ember Road (Revised)", got.Title)
	assert.Empty(t, got.Tags)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestGet_NotFound(t *testing.T) {
	index := setupTestIndex(t)

	_, err := index.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
	assert.False(t, errors.IsTransient(err))
}

func TestUpsert_RequiresID(t *testing.T) {
	index := setupTestIndex(t)

	err := index.Upsert(context.Background(), &NovelDocument{Title: "no id"})
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}

func TestDeleteAndDeleteBatch(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpsertBatch(ctx, []*NovelDocument{
		testDoc("novel-1", "One"),
		testDoc("novel-2", "Two"),
		testDoc("novel-3", "Three"),
	}))

	require.NoError(t, index.Delete(ctx, "novel-1"))
	require.NoError(t, index.Delete(ctx, "never-existed"))
	require.NoError(t, index.DeleteBatch(ctx, []string{"novel-2", "novel-3"}))
	require.NoError(t, index.DeleteBatch(ctx, nil))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestListIDs_PagesInOrder(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	var docs []*NovelDocument
	for i := range 7 {
		docs = append(docs, testDoc(fmt.Sprintf("novel-%02d", i), "Book"))
	}
	require.NoError(t, index.UpsertBatch(ctx, docs))

	var all []string
	after := ""
	for {
		page, err := index.ListIDs(ctx, after, 3)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		assert.LessOrEqual(t, len(page), 3)
		all = append(all, page...)
		after = page[len(page)-1]
	}

	assert.Equal(t, []string{
		"novel-00", "novel-01", "novel-02", "novel-03", "novel-04", "novel-05", "novel-06",
	}, all)
}

func TestSearch_TitleAndAuthor(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	hobbit := testDoc("novel-1", "The Hobbit", "fantasy")
	hobbit.AuthorName = "J.R.R. Tolkien"
	lotr := testDoc("novel-2", "The Lord of the Rings", "fantasy")
	lotr.AuthorName = "J.R.R. Tolkien"
	other := testDoc("novel-3", "Harry Potter", "fantasy")
	other.AuthorName = "J.K. Rowling"
	require.NoError(t, index.UpsertBatch(ctx, []*NovelDocument{hobbit, lotr, other}))

	params := DefaultSearchParams()
	params.Query = "Tolkien"
	result, err := index.Search(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)

	params.Query = "hobbit"
	result, err = index.Search(ctx, params)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	assert.Equal(t, "novel-1", result.Hits[0].ID)
	assert.Equal(t, "The Hobbit", result.Hits[0].Title)
	assert.NotEmpty(t, result.Hits[0].Highlights)
}

func TestSearch_Fuzzy(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, testDoc("novel-1", "Dragon", "fantasy")))

	result, err := index.Search(ctx, SearchParams{Query: "dragn", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestSearch_FiltersAndFacets(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	a := testDoc("novel-1", "Ashes", "fantasy", "romance")
	a.Tags = []string{"slow-burn"}
	a.RatingAverage = 4.8
	b := testDoc("novel-2", "Bones", "horror")
	b.Status = "completed"
	b.RatingAverage = 3.0
	c := testDoc("novel-3", "Cinders", "fantasy")
	c.RatingAverage = 4.1
	require.NoError(t, index.UpsertBatch(ctx, []*NovelDocument{a, b, c}))

	result, err := index.Search(ctx, SearchParams{Genres: []string{"fantasy"}, Limit: 10, IncludeFacets: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.NotEmpty(t, result.Facets.Genres)

	result, err = index.Search(ctx, SearchParams{Tags: []string{"slow-burn"}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "novel-1", result.Hits[0].ID)

	result, err = index.Search(ctx, SearchParams{Status: "completed", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "novel-2", result.Hits[0].ID)

	result, err = index.Search(ctx, SearchParams{MinRating: 4.0, SortBy: SortRating, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "novel-1", result.Hits[0].ID)
	assert.Equal(t, "novel-3", result.Hits[1].ID)
}

func TestSearch_SortByTitle(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.UpsertBatch(ctx, []*NovelDocument{
		testDoc("novel-1", "charlie"),
		testDoc("novel-2", "Alpha"),
		testDoc("novel-3", "bravo"),
	}))

	result, err := index.Search(ctx, SearchParams{SortBy: SortTitle, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Hits, 3)
	assert.Equal(t, "Alpha", result.Hits[0].Title)
	assert.Equal(t, "bravo", result.Hits[1].Title)
	assert.Equal(t, "charlie", result.Hits[2].Title)
}

func TestRebuild(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	require.NoError(t, index.Upsert(ctx, testDoc("novel-1", "Gone")))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	require.NoError(t, index.Upsert(ctx, testDoc("novel-2", "Fresh")))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
