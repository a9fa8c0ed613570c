package recommend

import (
	"context"
	"slices"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/store"
)

const (
	candidatePoolSize = 100
	fallbackSample    = 10
	maxTopGenres      = 3
)

// libraryView is the read-only slice of a user's library shared by all
// heuristics.
type libraryView struct {
	userID  string
	entries []*domain.LibraryEntry
	ids     []string
}

func newLibraryView(userID string, entries []*domain.LibraryEntry) *libraryView {
	v := &libraryView{userID: userID, entries: entries}
	for _, e := range entries {
		v.ids = append(v.ids, e.NovelID)
	}
	return v
}

// novels returns the joined novels, skipping entries without one.
func (v *libraryView) novels() []*domain.Novel {
	out := make([]*domain.Novel, 0, len(v.entries))
	for _, e := range v.entries {
		if e.Novel != nil {
			out = append(out, e.Novel)
		}
	}
	return out
}

// exclusion accumulates ids that must not be suggested again.
type exclusion struct {
	ids  []string
	seen map[string]bool
}

func newExclusion(ids []string) *exclusion {
	x := &exclusion{seen: make(map[string]bool, len(ids))}
	for _, id := range ids {
		x.add(id)
	}
	return x
}

func (x *exclusion) add(id string) {
	if !x.seen[id] {
		x.seen[id] = true
		x.ids = append(x.ids, id)
	}
}

func (x *exclusion) list() []string { return slices.Clone(x.ids) }

type scored struct {
	novel  *domain.Novel
	source *domain.Novel
	score  float64
}

// contentSimilarity suggests novels resembling those the user is reading or
// has completed.
func (e *Engine) contentSimilarity(ctx context.Context, lib *libraryView, limit int) ([]Item, error) {
	var sources []*domain.Novel
	var genres []string
	for _, entry := range lib.entries {
		if entry.Novel == nil || !entry.Status.Consumed() {
			continue
		}
		sources = append(sources, entry.Novel)
		for _, g := range entry.Novel.Genres {
			if !slices.Contains(genres, g) {
				genres = append(genres, g)
			}
		}
	}
	if len(sources) == 0 {
		return []Item{}, nil
	}

	var candidates []*domain.Novel
	if len(genres) > 0 {
		var err error
		candidates, err = e.data.FindNovels(ctx, store.NovelQuery{
			AnyGenres:  genres,
			ExcludeIDs: lib.ids,
			Order:      store.OrderPopular,
			Limit:      candidatePoolSize,
		})
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		// Sparse catalogue: score an arbitrary sample instead.
		var err error
		candidates, err = e.data.FindNovels(ctx, store.NovelQuery{
			ExcludeIDs: lib.ids,
			Order:      store.OrderRandom,
			Limit:      fallbackSample,
		})
		if err != nil {
			return nil, err
		}
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		cp := ProfileOf(c)
		best := scored{novel: c}
		for i, src := range sources {
			s := Score(ProfileOf(src), cp)
			if i == 0 || s > best.score {
				best.score, best.source = s, src
			}
		}
		ranked = append(ranked, best)
	}

	// Equal scores keep candidate order.
	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	items := make([]Item, 0, min(limit, len(ranked)))
	for _, r := range ranked[:min(limit, len(ranked))] {
		items = append(items, Item{Novel: r.novel, Reason: "Because you read " + r.source.Title})
	}
	return items, nil
}

// topGenres ranks genres by how many library novels carry them. Ties keep
// the order of first appearance.
func topGenres(novels []*domain.Novel, n int) []string {
	var order []string
	counts := map[string]int{}
	for _, nv := range novels {
		for _, g := range nv.Genres {
			if counts[g] == 0 {
				order = append(order, g)
			}
			counts[g]++
		}
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	return order[:min(n, len(order))]
}

// genrePopularity suggests the best rated novels in the user's most read
// genres, topped up with globally popular novels.
func (e *Engine) genrePopularity(ctx context.Context, lib *libraryView, limit int) ([]Item, error) {
	genres := topGenres(lib.novels(), maxTopGenres)
	excluded := newExclusion(lib.ids)
	items := []Item{}

	if len(genres) > 0 {
		perGenre := ceilDiv(limit, len(genres))
		for _, g := range genres {
			want := min(perGenre, limit-len(items))
			if want <= 0 {
				break
			}
			novels, err := e.data.FindNovels(ctx, store.NovelQuery{
				AnyGenres:  []string{g},
				ExcludeIDs: excluded.list(),
				Order:      store.OrderPopular,
				Limit:      want,
			})
			if err != nil {
				return nil, err
			}
			for _, n := range novels {
				excluded.add(n.ID)
				items = append(items, Item{Novel: n, Reason: "Popular in " + g})
			}
		}
	}

	if remaining := limit - len(items); remaining > 0 {
		novels, err := e.data.FindNovels(ctx, store.NovelQuery{
			ExcludeIDs: excluded.list(),
			Order:      store.OrderPopular,
			Limit:      remaining,
		})
		if err != nil {
			return nil, err
		}
		for _, n := range novels {
			items = append(items, Item{Novel: n, Reason: "Popular right now"})
		}
	}
	return items, nil
}

// sameAuthor suggests unread novels by authors already in the library, then
// by popular authors the user has not read.
func (e *Engine) sameAuthor(ctx context.Context, lib *libraryView, limit int) ([]Item, error) {
	type author struct{ id, name string }
	var authors []author
	considered := []string{lib.userID}
	for _, n := range lib.novels() {
		if slices.Contains(considered, n.AuthorID) {
			continue
		}
		considered = append(considered, n.AuthorID)
		authors = append(authors, author{id: n.AuthorID, name: n.AuthorName})
	}

	excluded := newExclusion(lib.ids)
	items := []Item{}

	if len(authors) > 0 {
		perAuthor := ceilDiv(limit, len(authors))
		for _, a := range authors {
			want := min(perAuthor, limit-len(items))
			if want <= 0 {
				break
			}
			novels, err := e.data.FindNovels(ctx, store.NovelQuery{
				AuthorID:   a.id,
				ExcludeIDs: excluded.list(),
				Order:      store.OrderNewest,
				Limit:      want,
			})
			if err != nil {
				return nil, err
			}
			for _, n := range novels {
				excluded.add(n.ID)
				items = append(items, Item{Novel: n, Reason: "More from " + a.name})
			}
		}
	}

	remaining := limit - len(items)
	if remaining <= 0 {
		return items, nil
	}

	popular, err := e.data.PopularAuthors(ctx, considered, remaining)
	if err != nil {
		return nil, err
	}
	for _, a := range popular {
		if len(items) >= limit {
			break
		}
		novels, err := e.data.FindNovels(ctx, store.NovelQuery{
			AuthorID:   a.AuthorID,
			ExcludeIDs: excluded.list(),
			Order:      store.OrderPopular,
			Limit:      1,
		})
		if err != nil {
			return nil, err
		}
		for _, n := range novels {
			excluded.add(n.ID)
			items = append(items, Item{Novel: n, Reason: "Popular author " + a.AuthorName})
		}
	}
	return items, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
