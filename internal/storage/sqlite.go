package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/skycache/skycache/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// encodeKeywords serializes the keyword set for storage. Order is not
// significant, absence is stored as NULL.
func encodeKeywords(keywords []string) (interface{}, error) {
	if keywords == nil {
		return nil, nil
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keywords: %w", err)
	}
	return string(data), nil
}

func decodeKeywords(raw sql.NullString) ([]string, error) {
	if !raw.Valid {
		return nil, nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(raw.String), &keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}
	return keywords, nil
}

// Media item operations

// upsertItemWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertItemWithQuerier(ctx context.Context, q querier, item *types.MediaItem) error {
	keywords, err := encodeKeywords(item.Keywords)
	if err != nil {
		return err
	}

	var dateCreated interface{}
	if item.DateCreated != nil {
		dateCreated = *item.DateCreated
	}

	// Last-write-wins on every scalar attribute, so the cache always
	// reflects the most recent server view of the item.
	query := `
		INSERT INTO media_items (nasa_id, title, center, description, location, photographer, media_type, date_created, keywords, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(nasa_id) DO UPDATE SET
			title = excluded.title,
			center = excluded.center,
			description = excluded.description,
			location = excluded.location,
			photographer = excluded.photographer,
			media_type = excluded.media_type,
			date_created = excluded.date_created,
			keywords = excluded.keywords,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err = q.QueryRowContext(ctx, query,
		item.NASAID, item.Title, item.Center, item.Description, item.Location,
		item.Photographer, item.MediaType, dateCreated, keywords, now, now).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert media item: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertItem(ctx context.Context, item *types.MediaItem) error {
	return s.upsertItemWithQuerier(ctx, s.querier(), item)
}

// scanItem reads one media item row in column order used by itemColumns
const itemColumns = `id, nasa_id, title, center, description, location, photographer, media_type, date_created, keywords`

func scanItem(scan func(dest ...interface{}) error) (*types.MediaItem, error) {
	var item types.MediaItem
	var center, description, location, photographer, mediaType, keywords sql.NullString
	var dateCreated sql.NullTime

	err := scan(
		&item.ID, &item.NASAID, &item.Title, &center, &description,
		&location, &photographer, &mediaType, &dateCreated, &keywords,
	)
	if err != nil {
		return nil, err
	}

	item.Center = center.String
	item.Description = description.String
	item.Location = location.String
	item.Photographer = photographer.String
	item.MediaType = mediaType.String
	if dateCreated.Valid {
		t := dateCreated.Time
		item.DateCreated = &t
	}
	item.Keywords, err = decodeKeywords(keywords)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// getItemWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getItemWithQuerier(ctx context.Context, q querier, nasaID string) (*types.MediaItem, error) {
	query := `SELECT ` + itemColumns + ` FROM media_items WHERE nasa_id = ?`

	item, err := scanItem(q.QueryRowContext(ctx, query, nasaID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	item.Assets, err = s.listAssetsByItemWithQuerier(ctx, q, item.ID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SQLiteStorage) GetItem(ctx context.Context, nasaID string) (*types.MediaItem, error) {
	return s.getItemWithQuerier(ctx, s.querier(), nasaID)
}

// listItemsForTermWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listItemsForTermWithQuerier(ctx context.Context, q querier, term string) ([]*types.MediaItem, error) {
	// Title ascending, catalog identifier as tiebreak for determinism.
	query := `
		SELECT ` + qualifyColumns("i", itemColumns) + `
		FROM media_items i
		JOIN search_associations a ON a.item_id = i.id
		JOIN search_terms t ON t.id = a.term_id
		WHERE t.term = ?
		ORDER BY i.title ASC, i.nasa_id ASC
	`
	rows, err := q.QueryContext(ctx, query, term)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]*types.MediaItem, 0)
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, item := range items {
		item.Assets, err = s.listAssetsByItemWithQuerier(ctx, q, item.ID)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *SQLiteStorage) ListItemsForTerm(ctx context.Context, term string) ([]*types.MediaItem, error) {
	return s.listItemsForTermWithQuerier(ctx, s.querier(), term)
}

// qualifyColumns prefixes each column in a comma-separated list with an alias
func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// Asset operations

// replaceAssetsWithQuerier deletes every asset owned by the item and recreates
// the set from the given descriptors. Full replace, not a diff: asset lists
// are small and individual assets carry no identity of their own.
func (s *SQLiteStorage) replaceAssetsWithQuerier(ctx context.Context, q querier, itemID int64, assets []types.MediaAsset) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM media_assets WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("failed to delete assets: %w", err)
	}

	query := `
		INSERT INTO media_assets (item_id, href, rel, render, width, height, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range assets {
		a := &assets[i]
		result, err := q.ExecContext(ctx, query, itemID, a.Href, a.Rel, a.Render, a.Width, a.Height, a.Size)
		if err != nil {
			return fmt.Errorf("failed to insert asset: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		a.ID = id
		a.ItemID = itemID
	}
	return nil
}

func (s *SQLiteStorage) ReplaceAssets(ctx context.Context, itemID int64, assets []types.MediaAsset) error {
	return s.replaceAssetsWithQuerier(ctx, s.querier(), itemID, assets)
}

// listAssetsByItemWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listAssetsByItemWithQuerier(ctx context.Context, q querier, itemID int64) ([]types.MediaAsset, error) {
	query := `
		SELECT id, item_id, href, rel, render, width, height, size
		FROM media_assets
		WHERE item_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	assets := make([]types.MediaAsset, 0)
	for rows.Next() {
		var a types.MediaAsset
		var href, rel, render sql.NullString
		if err := rows.Scan(&a.ID, &a.ItemID, &href, &rel, &render, &a.Width, &a.Height, &a.Size); err != nil {
			return nil, err
		}
		a.Href = href.String
		a.Rel = rel.String
		a.Render = render.String
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (s *SQLiteStorage) ListAssetsByItem(ctx context.Context, itemID int64) ([]types.MediaAsset, error) {
	return s.listAssetsByItemWithQuerier(ctx, s.querier(), itemID)
}

// Search term operations

// getTermWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getTermWithQuerier(ctx context.Context, q querier, term string) (*types.SearchTerm, error) {
	query := `SELECT id, term, last_searched_at FROM search_terms WHERE term = ?`

	var st types.SearchTerm
	err := q.QueryRowContext(ctx, query, term).Scan(&st.ID, &st.Term, &st.LastSearchedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStorage) GetTerm(ctx context.Context, term string) (*types.SearchTerm, error) {
	return s.getTermWithQuerier(ctx, s.querier(), term)
}

// touchTermWithQuerier gets or creates the term row and refreshes its
// timestamp either way, so re-searched terms bubble to the top of recency
// order.
func (s *SQLiteStorage) touchTermWithQuerier(ctx context.Context, q querier, term string, now time.Time) (*types.SearchTerm, error) {
	query := `
		INSERT INTO search_terms (term, last_searched_at)
		VALUES (?, ?)
		ON CONFLICT(term) DO UPDATE SET
			last_searched_at = excluded.last_searched_at
		RETURNING id
	`
	st := &types.SearchTerm{Term: term, LastSearchedAt: now}
	if err := q.QueryRowContext(ctx, query, term, now).Scan(&st.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert search term: %w", err)
	}
	return st, nil
}

func (s *SQLiteStorage) TouchTerm(ctx context.Context, term string, now time.Time) (*types.SearchTerm, error) {
	return s.touchTermWithQuerier(ctx, s.querier(), term, now)
}

// listRecentTermsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listRecentTermsWithQuerier(ctx context.Context, q querier, limit int) ([]types.SearchTerm, error) {
	query := `
		SELECT id, term, last_searched_at
		FROM search_terms
		ORDER BY last_searched_at DESC, id DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	terms := make([]types.SearchTerm, 0)
	for rows.Next() {
		var st types.SearchTerm
		if err := rows.Scan(&st.ID, &st.Term, &st.LastSearchedAt); err != nil {
			return nil, err
		}
		terms = append(terms, st)
	}
	return terms, rows.Err()
}

func (s *SQLiteStorage) ListRecentTerms(ctx context.Context, limit int) ([]types.SearchTerm, error) {
	return s.listRecentTermsWithQuerier(ctx, s.querier(), limit)
}

// Association operations

// associationExistsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) associationExistsWithQuerier(ctx context.Context, q querier, termID, itemID int64) (bool, error) {
	query := `SELECT 1 FROM search_associations WHERE term_id = ? AND item_id = ?`

	var one int
	err := q.QueryRowContext(ctx, query, termID, itemID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStorage) AssociationExists(ctx context.Context, termID, itemID int64) (bool, error) {
	return s.associationExistsWithQuerier(ctx, s.querier(), termID, itemID)
}

// createAssociationWithQuerier inserts the (term, item) pair. An existing pair
// is left untouched: no duplicate row, no timestamp refresh.
func (s *SQLiteStorage) createAssociationWithQuerier(ctx context.Context, q querier, termID, itemID int64, now time.Time) error {
	query := `
		INSERT INTO search_associations (term_id, item_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(term_id, item_id) DO NOTHING
	`
	if _, err := q.ExecContext(ctx, query, termID, itemID, now); err != nil {
		return fmt.Errorf("failed to create association: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) CreateAssociation(ctx context.Context, termID, itemID int64, now time.Time) error {
	return s.createAssociationWithQuerier(ctx, s.querier(), termID, itemID, now)
}

// pruneAssociationsWithQuerier deletes every association of the term whose
// item is not in keepItemIDs. An empty keep set prunes all of them. Items
// themselves are never deleted here; orphaned items may persist.
func (s *SQLiteStorage) pruneAssociationsWithQuerier(ctx context.Context, q querier, termID int64, keepItemIDs []int64) (int, error) {
	var result sql.Result
	var err error

	if len(keepItemIDs) == 0 {
		result, err = q.ExecContext(ctx, `DELETE FROM search_associations WHERE term_id = ?`, termID)
	} else {
		placeholders := strings.Repeat("?,", len(keepItemIDs))
		placeholders = placeholders[:len(placeholders)-1]

		args := make([]interface{}, 0, len(keepItemIDs)+1)
		args = append(args, termID)
		for _, id := range keepItemIDs {
			args = append(args, id)
		}
		query := `DELETE FROM search_associations WHERE term_id = ? AND item_id NOT IN (` + placeholders + `)`
		result, err = q.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to prune associations: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(pruned), nil
}

func (s *SQLiteStorage) PruneAssociations(ctx context.Context, termID int64, keepItemIDs []int64) (int, error) {
	return s.pruneAssociationsWithQuerier(ctx, s.querier(), termID, keepItemIDs)
}

// Transaction method implementations

func (t *sqliteTx) UpsertItem(ctx context.Context, item *types.MediaItem) error {
	return t.storage.upsertItemWithQuerier(ctx, t.querier(), item)
}

func (t *sqliteTx) GetItem(ctx context.Context, nasaID string) (*types.MediaItem, error) {
	return t.storage.getItemWithQuerier(ctx, t.querier(), nasaID)
}

func (t *sqliteTx) ListItemsForTerm(ctx context.Context, term string) ([]*types.MediaItem, error) {
	return t.storage.listItemsForTermWithQuerier(ctx, t.querier(), term)
}

func (t *sqliteTx) ReplaceAssets(ctx context.Context, itemID int64, assets []types.MediaAsset) error {
	return t.storage.replaceAssetsWithQuerier(ctx, t.querier(), itemID, assets)
}

func (t *sqliteTx) ListAssetsByItem(ctx context.Context, itemID int64) ([]types.MediaAsset, error) {
	return t.storage.listAssetsByItemWithQuerier(ctx, t.querier(), itemID)
}

func (t *sqliteTx) GetTerm(ctx context.Context, term string) (*types.SearchTerm, error) {
	return t.storage.getTermWithQuerier(ctx, t.querier(), term)
}

func (t *sqliteTx) TouchTerm(ctx context.Context, term string, now time.Time) (*types.SearchTerm, error) {
	return t.storage.touchTermWithQuerier(ctx, t.querier(), term, now)
}

func (t *sqliteTx) ListRecentTerms(ctx context.Context, limit int) ([]types.SearchTerm, error) {
	return t.storage.listRecentTermsWithQuerier(ctx, t.querier(), limit)
}

func (t *sqliteTx) AssociationExists(ctx context.Context, termID, itemID int64) (bool, error) {
	return t.storage.associationExistsWithQuerier(ctx, t.querier(), termID, itemID)
}

func (t *sqliteTx) CreateAssociation(ctx context.Context, termID, itemID int64, now time.Time) error {
	return t.storage.createAssociationWithQuerier(ctx, t.querier(), termID, itemID, now)
}

func (t *sqliteTx) PruneAssociations(ctx context.Context, termID int64, keepItemIDs []int64) (int, error) {
	return t.storage.pruneAssociationsWithQuerier(ctx, t.querier(), termID, keepItemIDs)
}

func (t *sqliteTx) Close() error {
	return nil // Transactions don't close the database
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, fmt.Errorf("nested transactions are not supported")
}
