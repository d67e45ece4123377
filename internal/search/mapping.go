package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for roster documents.
//
// Player names are game handles rather than prose, so they use the standard
// analyzer (unicode tokens, lower-cased, no stemming). Alliance scoping is an
// exact keyword filter.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldName, nameFieldMapping)

	allianceFieldMapping := bleve.NewTextFieldMapping()
	allianceFieldMapping.Analyzer = keyword.Name
	allianceFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldAlliance, allianceFieldMapping)

	hqFieldMapping := bleve.NewNumericFieldMapping()
	hqFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldHQLevel, hqFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
