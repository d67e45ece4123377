package search

import "github.com/warroomops/warroom-server/internal/domain"

// Index field names.
const (
	fieldName     = "name"
	fieldAlliance = "alliance_id"
	fieldHQLevel  = "hq_level"
)

// playerDocument converts a player into the map indexed by bleve.
// Keys must match the field names in buildIndexMapping.
func playerDocument(p *domain.Player) map[string]any {
	doc := map[string]any{
		fieldName:     p.Name,
		fieldAlliance: p.AllianceID,
	}
	if p.HQLevel != nil {
		doc[fieldHQLevel] = float64(*p.HQLevel)
	}
	return doc
}
