package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit is used when a search asks for zero results.
const DefaultLimit = 20

// MaxLimit caps a single search.
const MaxLimit = 100

// Hit is one matching player.
type Hit struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	HQLevel  *int    `json:"hq_level,omitempty"`
	Score    float64 `json:"score"`
}

// Search finds active players of allianceID whose names resemble text.
// Exact token matches rank above prefix and one-edit fuzzy matches. Equal
// scores are ordered by player ID.
func (r *RosterIndex) Search(ctx context.Context, allianceID, text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(allianceID, text), limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	req.Fields = []string{fieldName, fieldHQLevel}

	r.mu.RLock()
	res, err := r.index.SearchInContext(ctx, req)
	r.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{PlayerID: h.ID, Score: h.Score}
		if n, ok := h.Fields[fieldName].(string); ok {
			hit.Name = n
		}
		if lvl, ok := h.Fields[fieldHQLevel].(float64); ok {
			v := int(lvl)
			hit.HQLevel = &v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildQuery restricts to one alliance and ORs three strategies over the name:
// analysed match, fuzzy per token, and prefix on the last token for
// type-ahead.
func buildQuery(allianceID, text string) query.Query {
	scope := bleve.NewTermQuery(allianceID)
	scope.SetField(fieldAlliance)

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return scope
	}

	var textQueries []query.Query

	match := bleve.NewMatchQuery(text)
	match.SetField(fieldName)
	match.SetBoost(3.0)
	textQueries = append(textQueries, match)

	for _, tok := range tokens {
		fuzzy := bleve.NewFuzzyQuery(tok)
		fuzzy.SetField(fieldName)
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)
	}

	if last := tokens[len(tokens)-1]; len(last) >= 2 {
		prefix := bleve.NewPrefixQuery(last)
		prefix.SetField(fieldName)
		prefix.SetBoost(0.5)
		textQueries = append(textQueries, prefix)
	}

	return bleve.NewConjunctionQuery(scope, bleve.NewDisjunctionQuery(textQueries...))
}
