package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for favorite documents.
//
// Titles and overviews are folded before indexing, so the standard analyzer
// only has to tokenize and lowercase. English stemming is avoided because
// most titles arrive localized.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", title)

	// Searchable but not stored.
	overview := bleve.NewTextFieldMapping()
	overview.Analyzer = standard.Name
	overview.Store = false
	docMapping.AddFieldMappingsAt("overview", overview)

	userID := bleve.NewTextFieldMapping()
	userID.Analyzer = keyword.Name
	userID.Store = false
	docMapping.AddFieldMappingsAt("user_id", userID)

	genres := bleve.NewTextFieldMapping()
	genres.Analyzer = keyword.Name
	genres.Store = false
	docMapping.AddFieldMappingsAt("genre_ids", genres)

	for _, field := range []string{"movie_id", "rating", "year", "added_at"} {
		num := bleve.NewNumericFieldMapping()
		num.Store = true
		docMapping.AddFieldMappingsAt(field, num)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
