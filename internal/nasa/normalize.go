package nasa

import (
	"time"

	"github.com/skycache/skycache/pkg/types"
)

// normalizeItems converts wire records into fully-typed results. All optional
// field handling happens here, once: downstream code never inspects absence.
// Records carrying no data payload are dropped; only the first payload of a
// record is consumed.
func normalizeItems(items []searchItem) []types.Result {
	results := make([]types.Result, 0, len(items))
	for _, item := range items {
		if len(item.Data) == 0 {
			continue
		}
		data := item.Data[0]

		results = append(results, types.Result{
			NASAID:       data.NASAID,
			Title:        data.Title,
			Center:       stringValue(data.Center),
			Description:  stringValue(data.Description),
			Location:     stringValue(data.Location),
			Photographer: stringValue(data.Photographer),
			MediaType:    stringValue(data.MediaType),
			DateCreated:  parseDate(data.DateCreated),
			Keywords:     data.Keywords,
			Assets:       normalizeLinks(item.Links),
		})
	}
	return results
}

func normalizeLinks(links []searchLink) []types.ResultAsset {
	if len(links) == 0 {
		return nil
	}
	assets := make([]types.ResultAsset, len(links))
	for i, link := range links {
		assets[i] = types.ResultAsset{
			Href:   stringValue(link.Href),
			Rel:    stringValue(link.Rel),
			Render: stringValue(link.Render),
			Width:  intValue(link.Width),
			Height: intValue(link.Height),
			Size:   intValue(link.Size),
		}
	}
	return assets
}

// parseDate parses the API's ISO 8601 timestamps. Unparseable or absent dates
// become nil rather than failing the whole record.
func parseDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil
	}
	return &t
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intValue(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
