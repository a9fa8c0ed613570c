package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort keys accepted by SearchParams.SortBy.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortRating    = "rating"
	SortViews     = "views"
	SortRecent    = "recent"
	SortUpdated   = "updated"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // User's search query; empty matches everything

	// Filters
	Genres    []string // Any of these genre slugs
	Tags      []string // All of these tag slugs
	Status    string
	AuthorID  string
	MinRating float64

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string
	SortOrder string // "asc", "desc"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        SortRelevance,
		SortOrder:     "desc",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult is one page of search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets SearchFacets `json:"facets"`
}

// SearchHit is a single matching novel.
type SearchHit struct {
	ID            string            `json:"id"`
	Score         float64           `json:"score"`
	Title         string            `json:"title"`
	AuthorID      string            `json:"author_id"`
	AuthorName    string            `json:"author_name"`
	Genres        []string          `json:"genres"`
	Tags          []string          `json:"tags"`
	Status        string            `json:"status"`
	RatingAverage float64           `json:"rating_average"`
	RatingCount   int               `json:"rating_count"`
	ViewCount     int64             `json:"view_count"`
	ChapterCount  int               `json:"chapter_count"`
	Highlights    map[string]string `json:"highlights,omitempty"`
}

// SearchFacets contains facet counts.
type SearchFacets struct {
	Genres   []FacetCount `json:"genres,omitempty"`
	Tags     []FacetCount `json:"tags,omitempty"`
	Statuses []FacetCount `json:"statuses,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

var facetFields = []string{"genres", "tags", "status"}

// Search executes a search query.
func (s *Index) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)

	if params.IncludeFacets {
		for _, field := range facetFields {
			req.AddFacet(field, bleve.NewFacetRequest(field, 20))
		}
	}

	if params.Highlight && params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author_name")
		req.Highlight.AddField("description")
	}

	req.Fields = []string{"*"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		doc := documentFromFields(hit.ID, hit.Fields)
		sh := SearchHit{
			ID:            hit.ID,
			Score:         hit.Score,
			Title:         doc.Title,
			AuthorID:      doc.AuthorID,
			AuthorName:    doc.AuthorName,
			Genres:        doc.Genres,
			Tags:          doc.Tags,
			Status:        doc.Status,
			RatingAverage: doc.RatingAverage,
			RatingCount:   doc.RatingCount,
			ViewCount:     doc.ViewCount,
			ChapterCount:  doc.ChapterCount,
		}

		if len(hit.Fragments) > 0 {
			sh.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					sh.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, sh)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(res)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author_name")
		authorMatch.SetBoost(1.5)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		// Typo tolerance on titles.
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{titleMatch, authorMatch, descMatch, fuzzy}

		// Prefix for type-ahead (minimum 2 chars).
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if len(params.Genres) > 0 {
		genreQueries := make([]query.Query, len(params.Genres))
		for i, g := range params.Genres {
			tq := bleve.NewTermQuery(g)
			tq.SetField("genres")
			genreQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(genreQueries...))
	}

	for _, tag := range params.Tags {
		tq := bleve.NewTermQuery(tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	if params.Status != "" {
		tq := bleve.NewTermQuery(params.Status)
		tq.SetField("status")
		queries = append(queries, tq)
	}

	if params.AuthorID != "" {
		tq := bleve.NewTermQuery(params.AuthorID)
		tq.SetField("author_id")
		queries = append(queries, tq)
	}

	if params.MinRating > 0 {
		lo := params.MinRating
		inclusive := true
		rq := bleve.NewNumericRangeInclusiveQuery(&lo, nil, &inclusive, nil)
		rq.SetField("rating_average")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order. Relevance is the default.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	asc := params.SortOrder == "asc"
	field := func(name string) string {
		if asc {
			return name
		}
		return "-" + name
	}

	switch params.SortBy {
	case SortTitle:
		// Alphabetical reads naturally ascending unless asked otherwise.
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title_sort", "_id"})
		} else {
			req.SortBy([]string{"title_sort", "_id"})
		}
	case SortRating:
		req.SortBy([]string{field("rating_average"), field("rating_count"), "_id"})
	case SortViews:
		req.SortBy([]string{field("view_count"), "_id"})
	case SortRecent:
		req.SortBy([]string{field("created_at"), "_id"})
	case SortUpdated:
		req.SortBy([]string{field("updated_at"), "_id"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}

// extractFacets converts Bleve facets to our format.
func extractFacets(res *bleve.SearchResult) SearchFacets {
	collect := func(name string) []FacetCount {
		f, ok := res.Facets[name]
		if !ok || f.Terms == nil {
			return nil
		}
		var out []FacetCount
		for _, term := range f.Terms.Terms() {
			out = append(out, FacetCount{Value: term.Term, Count: term.Count})
		}
		return out
	}

	return SearchFacets{
		Genres:   collect("genres"),
		Tags:     collect("tags"),
		Statuses: collect("status"),
	}
}
