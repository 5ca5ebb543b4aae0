// Package assets fetches and caches media asset payloads such as preview
// thumbnails. Payloads are kept in a bounded in-memory LRU backed by an
// optional on-disk cache so previously viewed imagery stays available offline.
package assets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/skycache/skycache/pkg/types"
)

const (
	// DefaultMemoryEntries bounds the in-memory LRU.
	DefaultMemoryEntries = 256

	// DefaultFetchTimeout applies to each individual asset download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultPrefetchConcurrency caps parallel downloads during Prefetch.
	DefaultPrefetchConcurrency = 4

	// maxAssetSize rejects pathological payloads before they land in memory.
	maxAssetSize = 32 << 20
)

// Loader resolves asset hrefs to raw payload bytes, consulting memory,
// then disk, then the network.
type Loader struct {
	memory     *lru.Cache[string, []byte]
	diskDir    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Options configures a Loader. Zero values select defaults; an empty
// DiskDir disables the on-disk tier.
type Options struct {
	MemoryEntries int
	DiskDir       string
	FetchTimeout  time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// NewLoader creates an asset loader. The disk directory is created on
// demand when the first payload is persisted.
func NewLoader(opts Options) (*Loader, error) {
	entries := opts.MemoryEntries
	if entries <= 0 {
		entries = DefaultMemoryEntries
	}
	memory, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = DefaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		memory:     memory,
		diskDir:    opts.DiskDir,
		httpClient: client,
		logger:     logger.With("component", "assets"),
	}, nil
}

// Load returns the payload for href, fetching from the network only when
// neither cache tier holds it.
func (l *Loader) Load(ctx context.Context, href string) ([]byte, error) {
	if href == "" {
		return nil, fmt.Errorf("asset href is empty")
	}

	if data, ok := l.memory.Get(href); ok {
		return data, nil
	}

	if data, ok := l.loadFromDisk(href); ok {
		l.memory.Add(href, data)
		return data, nil
	}

	data, err := l.fetch(ctx, href)
	if err != nil {
		return nil, err
	}

	l.memory.Add(href, data)
	l.storeToDisk(href, data)
	return data, nil
}

// Cached reports whether href is resolvable without network access.
func (l *Loader) Cached(href string) bool {
	if l.memory.Contains(href) {
		return true
	}
	if l.diskDir == "" {
		return false
	}
	_, err := os.Stat(l.diskPath(href))
	return err == nil
}

// Prefetch warms the cache with the preview asset of each item. Individual
// failures are logged and skipped so one dead link does not abort the batch;
// only context cancellation stops it early.
func (l *Loader) Prefetch(ctx context.Context, items []*types.MediaItem) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultPrefetchConcurrency)

	for _, item := range items {
		preview := item.PreviewAsset()
		if preview == nil || preview.Href == "" {
			continue
		}
		href := preview.Href
		if l.Cached(href) {
			continue
		}
		g.Go(func() error {
			if _, err := l.Load(ctx, href); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Warn("prefetch failed", "href", href, "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (l *Loader) fetch(ctx context.Context, href string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", types.ErrTransport, err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", types.ErrTransport, href, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch %s: unexpected status %d", types.ErrTransport, href, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrTransport, href, err)
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("%w: fetch %s: payload exceeds %d bytes", types.ErrTransport, href, maxAssetSize)
	}

	l.logger.Debug("asset fetched", "href", href, "bytes", len(data))
	return data, nil
}

func (l *Loader) diskPath(href string) string {
	sum := sha256.Sum256([]byte(href))
	return filepath.Join(l.diskDir, hex.EncodeToString(sum[:]))
}

func (l *Loader) loadFromDisk(href string) ([]byte, bool) {
	if l.diskDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(l.diskPath(href))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (l *Loader) storeToDisk(href string, data []byte) {
	if l.diskDir == "" {
		return
	}
	if err := os.MkdirAll(l.diskDir, 0o755); err != nil {
		l.logger.Warn("disk cache unavailable", "dir", l.diskDir, "error", err)
		return
	}
	path := l.diskPath(href)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		l.logger.Warn("disk cache write failed", "path", path, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		l.logger.Warn("disk cache rename failed", "path", path, "error", err)
	}
}
