package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/skycache/skycache/internal/storage"
	"github.com/skycache/skycache/pkg/types"
)

// Writer records remote search results into the entity store.
type Writer struct {
	store storage.Storage
	locks *termLocks
	now   func() time.Time // injectable for deterministic recency tests
}

// NewWriter creates a Writer over the given store.
func NewWriter(store storage.Storage) *Writer {
	return &Writer{
		store: store,
		locks: newTermLocks(),
		now:   time.Now,
	}
}

// RecordSearchResults persists one batch of fetched results for term as a
// single atomic transaction:
//
//  1. get-or-create the search term, refreshing its recency timestamp
//  2. upsert each item by catalog identifier (last-write-wins)
//  3. replace the item's assets wholesale
//  4. associate the item with the term unless already associated
//  5. prune the term's associations to items absent from this batch
//
// Pruning runs last so the batch's own associations are never deleted. An
// empty batch leaves the term with zero cached results. Concurrent calls for
// the same term are serialized; any failure rolls the transaction back.
func (w *Writer) RecordSearchResults(ctx context.Context, term string, results []types.Result) error {
	term = types.NormalizeTerm(term)
	if term == "" {
		return types.ErrEmptyQuery
	}

	// A started transaction runs to completion even if the search that
	// triggered it was abandoned by the caller.
	ctx = context.WithoutCancel(ctx)

	release := w.locks.acquire(term)
	defer release()

	tx, err := w.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", types.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := w.now()

	searchTerm, err := tx.TouchTerm(ctx, term, now)
	if err != nil {
		return fmt.Errorf("%w: touch term %q: %v", types.ErrStorage, term, err)
	}

	keepItemIDs := make([]int64, 0, len(results))
	for _, result := range results {
		if !result.Valid() {
			// No catalog identifier or title: nothing to key or show.
			continue
		}

		item := itemFromResult(result)
		if err := tx.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("%w: upsert item %q: %v", types.ErrStorage, result.NASAID, err)
		}

		if err := tx.ReplaceAssets(ctx, item.ID, assetsFromResult(result)); err != nil {
			return fmt.Errorf("%w: replace assets for %q: %v", types.ErrStorage, result.NASAID, err)
		}

		exists, err := tx.AssociationExists(ctx, searchTerm.ID, item.ID)
		if err != nil {
			return fmt.Errorf("%w: check association for %q: %v", types.ErrStorage, result.NASAID, err)
		}
		if !exists {
			if err := tx.CreateAssociation(ctx, searchTerm.ID, item.ID, now); err != nil {
				return fmt.Errorf("%w: associate %q: %v", types.ErrStorage, result.NASAID, err)
			}
		}

		keepItemIDs = append(keepItemIDs, item.ID)
	}

	if _, err := tx.PruneAssociations(ctx, searchTerm.ID, keepItemIDs); err != nil {
		return fmt.Errorf("%w: prune associations for %q: %v", types.ErrStorage, term, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", types.ErrStorage, err)
	}
	return nil
}

func itemFromResult(r types.Result) *types.MediaItem {
	return &types.MediaItem{
		NASAID:       r.NASAID,
		Title:        r.Title,
		Center:       r.Center,
		Description:  r.Description,
		Location:     r.Location,
		Photographer: r.Photographer,
		MediaType:    r.MediaType,
		DateCreated:  r.DateCreated,
		Keywords:     r.Keywords,
	}
}

func assetsFromResult(r types.Result) []types.MediaAsset {
	if len(r.Assets) == 0 {
		return nil
	}
	assets := make([]types.MediaAsset, len(r.Assets))
	for i, a := range r.Assets {
		assets[i] = types.MediaAsset{
			Href:   a.Href,
			Rel:    a.Rel,
			Render: a.Render,
			Width:  a.Width,
			Height: a.Height,
			Size:   a.Size,
		}
	}
	return assets
}
