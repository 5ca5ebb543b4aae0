// Package storage provides SQLite-based persistence for the media search cache.
//
// The storage layer manages four entity kinds:
//   - media_items: catalog entries, unique per NASA catalog identifier
//   - media_assets: downloadable renditions, exclusively owned by one item
//   - search_terms: recent-search history, unique per normalized term
//   - search_associations: the many-to-many join between terms and items
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.skycache/skycache.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	item := &types.MediaItem{NASAID: "PIA12345", Title: "Mars Rover Discovery"}
//	if err := db.UpsertItem(ctx, item); err != nil {
//	    return err
//	}
//
// # Transactions
//
// A cache write (upsert items, replace assets, reconcile associations) runs as
// one transaction so readers observe either the previous or the new state:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	term, _ := tx.TouchTerm(ctx, "mars", time.Now())
//	_ = tx.UpsertItem(ctx, item)
//	_ = tx.ReplaceAssets(ctx, item.ID, assets)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Concurrency
//
// The pool is capped at a single connection, so a reader may wait for an
// in-flight write transaction to finish before its query runs. Reads never
// observe a partial write, only the pre- or post-commit state. The wait is
// bounded by one cache-write batch; callers needing fully concurrent reads
// against a file-backed database can open a second read-only SQLiteStorage
// on the same path, which WAL mode supports.
//
// # Build Tags
//
// Two driver configurations are supported:
//
// CGO build (cgo_sqlite tag), using github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite"
//
// Pure Go build (default), using modernc.org/sqlite, no C compiler needed:
//
//	CGO_ENABLED=0 go build ./...
package storage
