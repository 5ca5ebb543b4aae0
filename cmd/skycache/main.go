package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/skycache/skycache/internal/assets"
	"github.com/skycache/skycache/internal/cache"
	"github.com/skycache/skycache/internal/config"
	"github.com/skycache/skycache/internal/nasa"
	"github.com/skycache/skycache/internal/search"
	"github.com/skycache/skycache/internal/storage"
	"github.com/skycache/skycache/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("skycache\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// Diagnostics go to stderr, stdout carries results only
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Logging.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	client := nasa.NewClient(cfg.API.BaseURL, cfg.API.Timeout, logger)
	svc := search.NewService(client, cache.NewWriter(store), cache.NewReader(store), logger)

	loader, err := assets.NewLoader(assets.Options{
		MemoryEntries: cfg.Cache.AssetEntries,
		DiskDir:       cfg.Cache.AssetDir,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to create asset loader: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "search":
		err = runSearch(ctx, svc, loader, strings.Join(os.Args[2:], " "))
	case "cached":
		err = runCached(ctx, svc, strings.Join(os.Args[2:], " "))
	case "recent":
		err = runRecent(ctx, svc, cfg.Cache.RecentTermLimit)
	case "last":
		err = runLast(ctx, svc, cfg)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: skycache <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  search <term>   Search the remote catalog, falling back to the local cache")
	fmt.Fprintln(os.Stderr, "  cached <term>   List cached items for a term without network access")
	fmt.Fprintln(os.Stderr, "  recent          List recently searched terms")
	fmt.Fprintln(os.Stderr, "  last            Re-run the previous session's search from cache")
	fmt.Fprintln(os.Stderr, "  --version       Print build information")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func runSearch(ctx context.Context, svc *search.Service, loader *assets.Loader, term string) error {
	items, err := svc.Search(ctx, term)
	if err != nil {
		if search.IsTransportError(err) {
			return fmt.Errorf("remote catalog unreachable and no cached results for %q: %w", term, err)
		}
		return err
	}

	printItems(items)

	if err := config.SaveLastSearch(types.NormalizeTerm(term)); err != nil {
		log.Printf("Failed to persist last search: %v", err)
	}

	// Warm the preview cache so the results stay viewable offline
	if err := loader.Prefetch(ctx, items); err != nil {
		log.Printf("Asset prefetch interrupted: %v", err)
	}
	return nil
}

func runCached(ctx context.Context, svc *search.Service, term string) error {
	items, err := svc.LoadCached(ctx, term)
	if err != nil {
		return err
	}
	printItems(items)
	return nil
}

func runRecent(ctx context.Context, svc *search.Service, limit int) error {
	terms, err := svc.RecentTerms(ctx, limit)
	if err != nil {
		return err
	}
	for _, t := range terms {
		fmt.Printf("%s\t%s\n", t.LastSearchedAt.Format("2006-01-02 15:04"), t.Term)
	}
	return nil
}

func runLast(ctx context.Context, svc *search.Service, cfg *config.Config) error {
	term := cfg.State.LastSearchTerm
	if term == "" {
		fmt.Fprintln(os.Stderr, "No previous search recorded")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Restoring search: %s\n", term)
	return runCached(ctx, svc, term)
}

func printItems(items []*types.MediaItem) {
	if len(items) == 0 {
		fmt.Println("No results")
		return
	}
	for _, item := range items {
		line := fmt.Sprintf("%s\t%s", item.NASAID, item.Title)
		if item.DateCreated != nil {
			line += "\t" + item.DateCreated.Format("2006-01-02")
		}
		fmt.Println(line)
	}
}
