package types

import "time"

// MediaItem is a cached catalog entry, uniquely keyed by NASAID.
// At most one MediaItem per catalog identifier exists in the store.
type MediaItem struct {
	ID           int64
	NASAID       string
	Title        string
	Center       string
	Description  string
	Location     string
	Photographer string
	MediaType    string
	DateCreated  *time.Time // nil when the catalog record carries no date
	Keywords     []string
	Assets       []MediaAsset
}

// MediaAsset is one downloadable rendition of an item (thumbnail, full-res,
// caption file). Assets are exclusively owned by their item and are replaced
// wholesale on every re-upsert of the parent; they have no identity of their
// own beyond the row id.
type MediaAsset struct {
	ID     int64
	ItemID int64
	Href   string
	Rel    string
	Render string
	Width  int64
	Height int64
	Size   int64
}

// PreviewAsset returns the asset best suited as a thumbnail: the first asset
// tagged rel=preview, else the first asset, else nil.
func (m *MediaItem) PreviewAsset() *MediaAsset {
	for i := range m.Assets {
		if m.Assets[i].Rel == "preview" {
			return &m.Assets[i]
		}
	}
	if len(m.Assets) > 0 {
		return &m.Assets[0]
	}
	return nil
}

// SearchTerm is one entry of the recent-search history, uniquely keyed by its
// normalized text. LastSearchedAt is refreshed on every search of the term,
// so frequently re-searched terms bubble to the top of recency order.
type SearchTerm struct {
	ID             int64
	Term           string
	LastSearchedAt time.Time
}
