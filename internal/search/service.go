// Package search coordinates the remote transport with the local cache,
// implementing the offline-first retrieval policy: a successful fetch is
// written through the cache and read back from it, a failed fetch falls back
// to whatever the cache holds, and only an empty fallback surfaces the
// transport error.
package search

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/skycache/skycache/internal/cache"
	"github.com/skycache/skycache/pkg/types"
)

// Transport resolves a free-text term to a list of normalized result records.
type Transport interface {
	Search(ctx context.Context, term string) ([]types.Result, error)
}

// invocation states, logged as a search progresses
const (
	stateFetching    = "fetching"
	stateReconciling = "reconciling"
	stateSettled     = "settled"
)

// Service is the search orchestrator.
type Service struct {
	transport Transport
	writer    *cache.Writer
	reader    *cache.Reader
	logger    *slog.Logger

	group    singleflight.Group
	inFlight atomic.Int32
}

// NewService wires the orchestrator. A nil logger falls back to slog.Default.
func NewService(transport Transport, writer *cache.Writer, reader *cache.Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		transport: transport,
		writer:    writer,
		reader:    reader,
		logger:    logger,
	}
}

// IsLoading reports whether any search invocation is currently in flight.
// It is guaranteed to be false again once every Search call has settled.
func (s *Service) IsLoading() bool {
	return s.inFlight.Load() > 0
}

// Search runs one search invocation for term.
//
// On transport success the fetched results are recorded in the cache and the
// returned items are read back from it; the cache, not the raw fetch, is the
// source of truth for what the caller sees. On transport failure a non-empty
// cache read masks the failure entirely; an empty one surfaces it. Storage
// failures during reconciliation abort the attempt and are reported as
// types.ErrStorage, distinct from transport failures.
//
// Concurrent identical searches are collapsed into one fetch; searches for
// distinct terms proceed independently.
func (s *Service) Search(ctx context.Context, term string) ([]*types.MediaItem, error) {
	normalized := types.NormalizeTerm(term)
	if normalized == "" {
		// Settled immediately: no cache access, no transport access.
		return nil, types.ErrEmptyQuery
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	items, err, _ := s.group.Do(normalized, func() (interface{}, error) {
		return s.searchOnce(ctx, normalized)
	})
	if err != nil {
		return nil, err
	}
	return items.([]*types.MediaItem), nil
}

func (s *Service) searchOnce(ctx context.Context, term string) ([]*types.MediaItem, error) {
	s.logger.Debug("search state", "term", term, "state", stateFetching)

	results, fetchErr := s.transport.Search(ctx, term)
	if fetchErr != nil {
		return s.fallback(ctx, term, fetchErr)
	}

	s.logger.Debug("search state", "term", term, "state", stateReconciling)

	if err := s.writer.RecordSearchResults(ctx, term, results); err != nil {
		s.logger.Error("reconcile failed", "term", term, "error", err)
		return nil, err
	}

	items, err := s.reader.ItemsForTerm(ctx, term)
	if err != nil {
		s.logger.Error("read-after-write failed", "term", term, "error", err)
		return nil, err
	}

	s.logger.Debug("search state", "term", term, "state", stateSettled, "items", len(items))
	return items, nil
}

// fallback serves a failed fetch from the cache. A cached hit absorbs the
// transport error; an empty cache surfaces it. A storage failure during the
// fallback read counts as no cached data but is logged distinctly so it is
// never mistaken for a legitimate empty result.
func (s *Service) fallback(ctx context.Context, term string, fetchErr error) ([]*types.MediaItem, error) {
	items, readErr := s.reader.ItemsForTerm(ctx, term)
	if readErr != nil {
		s.logger.Error("fallback read failed", "term", term, "error", readErr)
		items = nil
	}

	if len(items) > 0 {
		s.logger.Warn("serving cached results after transport failure",
			"term", term, "items", len(items), "error", fetchErr)
		s.logger.Debug("search state", "term", term, "state", stateSettled)
		return items, nil
	}

	s.logger.Debug("search state", "term", term, "state", stateSettled)
	return nil, fetchErr
}

// LoadCached returns the cached items for term without touching the network.
func (s *Service) LoadCached(ctx context.Context, term string) ([]*types.MediaItem, error) {
	normalized := types.NormalizeTerm(term)
	if normalized == "" {
		return nil, types.ErrEmptyQuery
	}
	return s.reader.ItemsForTerm(ctx, normalized)
}

// RecentTerms returns the recent-search history, most recent first.
func (s *Service) RecentTerms(ctx context.Context, limit int) ([]types.SearchTerm, error) {
	return s.reader.RecentTerms(ctx, limit)
}

// IsTransportError reports whether err came from the remote fetch rather than
// local persistence or input validation.
func IsTransportError(err error) bool {
	return errors.Is(err, types.ErrTransport)
}
