package storage

import (
	"context"
	"time"

	"github.com/skycache/skycache/pkg/types"
)

// Storage defines the interface for persisting and querying cached media data
type Storage interface {
	// Media item operations
	UpsertItem(ctx context.Context, item *types.MediaItem) error
	GetItem(ctx context.Context, nasaID string) (*types.MediaItem, error)
	ListItemsForTerm(ctx context.Context, term string) ([]*types.MediaItem, error)

	// Asset operations
	ReplaceAssets(ctx context.Context, itemID int64, assets []types.MediaAsset) error
	ListAssetsByItem(ctx context.Context, itemID int64) ([]types.MediaAsset, error)

	// Search term operations
	GetTerm(ctx context.Context, term string) (*types.SearchTerm, error)
	TouchTerm(ctx context.Context, term string, now time.Time) (*types.SearchTerm, error)
	ListRecentTerms(ctx context.Context, limit int) ([]types.SearchTerm, error)

	// Association operations
	AssociationExists(ctx context.Context, termID, itemID int64) (bool, error)
	CreateAssociation(ctx context.Context, termID, itemID int64, now time.Time) error
	PruneAssociations(ctx context.Context, termID int64, keepItemIDs []int64) (prunedCount int, err error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}
