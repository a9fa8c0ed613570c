package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for novel documents.
//
// Every field the full reconciliation compares is stored so documents can be
// read back from the index without touching the primary store.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = true
	descFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = en.AnalyzerName
	authorFieldMapping.Store = true
	authorFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("author_name", authorFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	for _, name := range []string{"id", "author_id", "status", "genres", "tags"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		docMapping.AddFieldMappingsAt(name, kw)
	}

	// Lowercased title for alphabetical sorting.
	sortFieldMapping := bleve.NewTextFieldMapping()
	sortFieldMapping.Analyzer = keyword.Name
	sortFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("title_sort", sortFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	for _, name := range []string{
		"rating_average", "rating_count", "view_count", "chapter_count",
		"created_at", "updated_at",
	} {
		num := bleve.NewNumericFieldMapping()
		num.Store = true
		docMapping.AddFieldMappingsAt(name, num)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
