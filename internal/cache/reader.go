package cache

import (
	"context"
	"fmt"

	"github.com/skycache/skycache/internal/storage"
	"github.com/skycache/skycache/pkg/types"
)

// DefaultRecentLimit caps the recent-search history when no limit is given.
const DefaultRecentLimit = 10

// Reader answers offline queries against the entity store. All methods are
// pure reads and safe to call concurrently with an in-flight write.
type Reader struct {
	store storage.Storage
}

// NewReader creates a Reader over the given store.
func NewReader(store storage.Storage) *Reader {
	return &Reader{store: store}
}

// ItemsForTerm returns the items cached for term, title ascending with the
// catalog identifier as tiebreak, assets attached. An unknown term yields an
// empty slice, not an error.
func (r *Reader) ItemsForTerm(ctx context.Context, term string) ([]*types.MediaItem, error) {
	term = types.NormalizeTerm(term)
	if term == "" {
		return nil, types.ErrEmptyQuery
	}

	items, err := r.store.ListItemsForTerm(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("%w: list items for %q: %v", types.ErrStorage, term, err)
	}
	return items, nil
}

// RecentTerms returns the search history ordered by most recent first,
// truncated to limit (DefaultRecentLimit when limit <= 0).
func (r *Reader) RecentTerms(ctx context.Context, limit int) ([]types.SearchTerm, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	terms, err := r.store.ListRecentTerms(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list recent terms: %v", types.ErrStorage, err)
	}
	return terms, nil
}
