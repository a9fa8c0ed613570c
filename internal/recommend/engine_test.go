package recommend

import (
	"context"
	"slices"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

func mkNovel(id, authorID, title string, genres ...string) *domain.Novel {
	n := &domain.Novel{
		Title:      title,
		AuthorID:   authorID,
		AuthorName: "Author " + authorID,
		Genres:     genres,
		Status:     domain.NovelStatusOngoing,
	}
	n.ID = id
	n.InitTimestamps(t0)
	return n
}

// fakeData is an in-memory DataSource. Novels are returned in insertion
// order, which stands in for every ordering.
type fakeData struct {
	users   map[string]bool
	novels  []*domain.Novel
	library map[string][]*domain.LibraryEntry
	reads   atomic.Int32
}

func newFakeData(novels ...*domain.Novel) *fakeData {
	return &fakeData{
		users:   map[string]bool{"u1": true},
		novels:  novels,
		library: map[string][]*domain.LibraryEntry{},
	}
}

func (f *fakeData) addToLibrary(userID string, n *domain.Novel, status domain.ReadingStatus) {
	e := &domain.LibraryEntry{UserID: userID, NovelID: n.ID, Status: status, Novel: n}
	f.library[userID] = append(f.library[userID], e)
}

func (f *fakeData) GetUser(_ context.Context, id string) (*domain.User, error) {
	if !f.users[id] {
		return nil, store.ErrUserNotFound
	}
	u := &domain.User{DisplayName: id}
	u.ID = id
	return u, nil
}

func (f *fakeData) ListLibraryEntries(_ context.Context, userID string, _ ...domain.ReadingStatus) ([]*domain.LibraryEntry, error) {
	f.reads.Add(1)
	return f.library[userID], nil
}

func (f *fakeData) FindNovels(_ context.Context, q store.NovelQuery) ([]*domain.Novel, error) {
	var out []*domain.Novel
	for _, n := range f.novels {
		if len(out) >= q.Limit {
			break
		}
		if slices.Contains(q.ExcludeIDs, n.ID) || slices.Contains(q.ExcludeAuthors, n.AuthorID) {
			continue
		}
		if q.AuthorID != "" && n.AuthorID != q.AuthorID {
			continue
		}
		if len(q.AnyGenres) > 0 && !slices.ContainsFunc(q.AnyGenres, n.HasGenre) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeData) PopularAuthors(_ context.Context, exclude []string, limit int) ([]domain.AuthorStats, error) {
	counts := map[string]int{}
	for _, n := range f.novels {
		if !slices.Contains(exclude, n.AuthorID) {
			counts[n.AuthorID]++
		}
	}
	var out []domain.AuthorStats
	for id, c := range counts {
		out = append(out, domain.AuthorStats{AuthorID: id, AuthorName: "Author " + id, NovelCount: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NovelCount != out[j].NovelCount {
			return out[i].NovelCount > out[j].NovelCount
		}
		return out[i].AuthorID < out[j].AuthorID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestEngine(t *testing.T, data *fakeData) (*Engine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	return NewEngine(data, newTestCache(t, clock), nil), clock
}

func ids(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Novel.ID)
	}
	return out
}

func TestGetUserRecommendations_UnknownUser(t *testing.T) {
	e, _ := newTestEngine(t, newFakeData())

	_, err := e.GetUserRecommendations(context.Background(), "ghost", Options{})
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestGetUserRecommendations_EmptyLibraryIsCached(t *testing.T) {
	data := newFakeData(mkNovel("n1", "a1", "Dune", "scifi"))
	e, _ := newTestEngine(t, data)
	ctx := context.Background()

	res, err := e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Empty(t, res.Bundle.BecauseYouRead)
	assert.Empty(t, res.Bundle.PopularInGenre)
	assert.Empty(t, res.Bundle.FromAuthorsYouFollow)
	assert.NotNil(t, res.Bundle.ReadersLikeYou)
	assert.NotNil(t, res.Bundle.ContinueReading)

	_, _, ok, err := e.cache.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "empty bundle is cached")

	res, err = e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), data.reads.Load())
}

func TestGetUserRecommendations_SingleGenreMatch(t *testing.T) {
	read := mkNovel("src", "a1", "The Source", "fantasy")
	match := mkNovel("cand", "a2", "Candidate", "fantasy")
	data := newFakeData(read, match)
	data.addToLibrary("u1", read, domain.ReadingStatusCompleted)
	e, _ := newTestEngine(t, data)

	res, err := e.GetUserRecommendations(context.Background(), "u1", Options{})
	require.NoError(t, err)
	require.Len(t, res.Bundle.BecauseYouRead, 1)
	item := res.Bundle.BecauseYouRead[0]
	assert.Equal(t, "cand", item.Novel.ID)
	assert.Equal(t, "Because you read The Source", item.Reason)
	assert.InDelta(t, 1.5, Score(ProfileOf(read), ProfileOf(item.Novel)), 1e-9)
}

func TestGetUserRecommendations_TTLAndRefresh(t *testing.T) {
	read := mkNovel("src", "a1", "The Source", "fantasy")
	data := newFakeData(read, mkNovel("cand", "a2", "Candidate", "fantasy"))
	data.addToLibrary("u1", read, domain.ReadingStatusReading)
	e, clock := newTestEngine(t, data)
	ctx := context.Background()

	first, err := e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	require.False(t, first.Cached)

	clock.Advance(23*time.Hour + 59*time.Minute)
	res, err := e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, ids(first.Bundle.BecauseYouRead), ids(res.Bundle.BecauseYouRead))

	res, err = e.GetUserRecommendations(ctx, "u1", Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, res.Cached)

	clock.Advance(24*time.Hour + time.Minute)
	res, err = e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, t0.Add(47*time.Hour+60*time.Minute), res.ComputedAt)
}

func TestGetUserRecommendations_InvalidateForcesRecompute(t *testing.T) {
	read := mkNovel("src", "a1", "The Source", "fantasy")
	data := newFakeData(read)
	data.addToLibrary("u1", read, domain.ReadingStatusReading)
	e, _ := newTestEngine(t, data)
	ctx := context.Background()

	_, err := e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	require.NoError(t, e.Invalidate(ctx, "u1"))

	res, err := e.GetUserRecommendations(ctx, "u1", Options{})
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, int32(2), data.reads.Load())
}

func TestContentSimilarity_RanksAndExcludesLibrary(t *testing.T) {
	src := mkNovel("src", "a1", "Source", "fantasy", "action")
	src.Tags = []string{"magic"}
	onPlan := mkNovel("plan", "a3", "Planned", "fantasy")
	weak := mkNovel("weak", "a2", "Weak", "fantasy")
	strong := mkNovel("strong", "a1", "Strong", "fantasy", "action")
	strong.Tags = []string{"magic"}

	data := newFakeData(src, onPlan, weak, strong)
	data.addToLibrary("u1", src, domain.ReadingStatusCompleted)
	data.addToLibrary("u1", onPlan, domain.ReadingStatusPlanToRead)
	e, _ := newTestEngine(t, data)

	b, err := e.Compute(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"strong", "weak"}, ids(b.BecauseYouRead))
}

func TestContentSimilarity_NoConsumedSources(t *testing.T) {
	planned := mkNovel("plan", "a1", "Planned", "fantasy")
	data := newFakeData(planned, mkNovel("other", "a2", "Other", "fantasy"))
	data.addToLibrary("u1", planned, domain.ReadingStatusPlanToRead)
	e, _ := newTestEngine(t, data)

	b, err := e.Compute(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, b.BecauseYouRead)
}

func TestContentSimilarity_FallsBackToSample(t *testing.T) {
	src := mkNovel("src", "a1", "Source", "fantasy")
	other := mkNovel("other", "a2", "Other", "romance")
	data := newFakeData(src, other)
	data.addToLibrary("u1", src, domain.ReadingStatusReading)
	e, _ := newTestEngine(t, data)

	b, err := e.Compute(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, ids(b.BecauseYouRead))
}

func TestGenrePopularity(t *testing.T) {
	lib1 := mkNovel("l1", "a1", "L1", "fantasy")
	lib2 := mkNovel("l2", "a1", "L2", "fantasy", "romance")
	f1 := mkNovel("f1", "a2", "F1", "fantasy")
	f2 := mkNovel("f2", "a2", "F2", "fantasy")
	r1 := mkNovel("r1", "a3", "R1", "romance")
	x1 := mkNovel("x1", "a4", "X1", "horror")

	data := newFakeData(lib1, lib2, f1, f2, r1, x1)
	data.addToLibrary("u1", lib1, domain.ReadingStatusReading)
	data.addToLibrary("u1", lib2, domain.ReadingStatusPlanToRead)
	e, _ := newTestEngine(t, data)

	b, err := e.Compute(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "r1", "x1"}, ids(b.PopularInGenre))
	assert.Equal(t, "Popular in fantasy", b.PopularInGenre[0].Reason)
	assert.Equal(t, "Popular in romance", b.PopularInGenre[2].Reason)
	assert.Equal(t, "Popular right now", b.PopularInGenre[3].Reason)
}

func TestSameAuthor(t *testing.T) {
	own := mkNovel("own", "u1", "Mine", "fantasy")
	lib := mkNovel("lib", "a1", "Lib", "fantasy")
	more1 := mkNovel("m1", "a1", "More 1", "fantasy")
	more2 := mkNovel("m2", "a1", "More 2", "fantasy")
	pop1 := mkNovel("p1", "a2", "Pop 1", "romance")
	pop2 := mkNovel("p2", "a2", "Pop 2", "romance")
	mine2 := mkNovel("own2", "u1", "Mine 2", "fantasy")

	data := newFakeData(own, lib, more1, more2, pop1, pop2, mine2)
	data.addToLibrary("u1", own, domain.ReadingStatusReading)
	data.addToLibrary("u1", lib, domain.ReadingStatusCompleted)
	e, _ := newTestEngine(t, data)

	b, err := e.Compute(context.Background(), "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "p1"}, ids(b.FromAuthorsYouFollow))
	assert.Equal(t, "More from Author a1", b.FromAuthorsYouFollow[0].Reason)
	assert.Equal(t, "Popular author Author a2", b.FromAuthorsYouFollow[2].Reason)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, normalizeLimit(0))
	assert.Equal(t, 7, normalizeLimit(7))
	assert.Equal(t, MaxLimit, normalizeLimit(1000))
}
