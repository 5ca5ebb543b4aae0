package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycache/skycache/internal/cache"
	"github.com/skycache/skycache/internal/storage"
	"github.com/skycache/skycache/pkg/types"
)

// fakeTransport scripts transport behavior per test
type fakeTransport struct {
	results []types.Result
	err     error
	calls   int
}

func (f *fakeTransport) Search(ctx context.Context, term string) ([]types.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func transportError() error {
	return fmt.Errorf("%w: connection refused", types.ErrTransport)
}

func setupService(t *testing.T, transport *fakeTransport) *Service {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewService(transport, cache.NewWriter(store), cache.NewReader(store), nil)
}

func resultFixture(nasaID, title string) types.Result {
	return types.Result{
		NASAID: nasaID,
		Title:  title,
		Center: "JPL",
		Assets: []types.ResultAsset{{Href: "https://test.nasa.gov/thumb.jpg", Rel: "preview"}},
	}
}

func TestSearch_Success(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Mars Image 1"),
		resultFixture("PIA002", "Mars Image 2"),
	}}
	svc := setupService(t, transport)

	items, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, transport.calls)

	// Read-after-write: what came back is the committed cache state
	cached, err := svc.LoadCached(context.Background(), "mars")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestSearch_EmptyTerm(t *testing.T) {
	transport := &fakeTransport{}
	svc := setupService(t, transport)

	for _, term := range []string{"", "   ", "\t\n"} {
		_, err := svc.Search(context.Background(), term)
		assert.ErrorIs(t, err, types.ErrEmptyQuery)
	}
	assert.Zero(t, transport.calls, "transport must not be touched for invalid input")
}

func TestSearch_OfflineFallbackHit(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Cached Item"),
	}}
	svc := setupService(t, transport)

	// Populate the cache with one successful search
	_, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)

	// Transport goes dark: the cached hit masks the failure entirely
	transport.err = transportError()
	items, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "PIA001", items[0].NASAID)
}

func TestSearch_OfflineFallbackMiss(t *testing.T) {
	transport := &fakeTransport{err: transportError()}
	svc := setupService(t, transport)

	items, err := svc.Search(context.Background(), "neversearched")
	assert.Empty(t, items)
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
}

func TestSearch_FallbackDoesNotMaskOtherTerms(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Mars Item"),
	}}
	svc := setupService(t, transport)

	_, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)

	transport.err = transportError()

	// Cached term still resolves, uncached term surfaces the error
	_, err = svc.Search(context.Background(), "mars")
	assert.NoError(t, err)
	_, err = svc.Search(context.Background(), "jupiter")
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestSearch_StalePruningThroughService(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Old 1"),
		resultFixture("PIA002", "Old 2"),
	}}
	svc := setupService(t, transport)

	_, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)

	transport.results = []types.Result{resultFixture("PIA003", "New Only")}
	items, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "PIA003", items[0].NASAID)
}

func TestSearch_EmptyRemoteResultClearsTerm(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Soon Gone"),
	}}
	svc := setupService(t, transport)

	_, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)

	transport.results = nil
	items, err := svc.Search(context.Background(), "mars")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearch_StorageFailureIsNotTransportFailure(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Item"),
	}}
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	svc := NewService(transport, cache.NewWriter(store), cache.NewReader(store), nil)

	// A dead store makes the reconcile step fail even though the fetch
	// succeeded; the error must identify persistence, not the network.
	require.NoError(t, store.Close())

	_, err = svc.Search(context.Background(), "mars")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStorage)
	assert.False(t, IsTransportError(err))
	assert.Equal(t, 1, transport.calls)
}

func TestSearch_FallbackReadFailureSurfacesTransportError(t *testing.T) {
	transport := &fakeTransport{err: transportError()}
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	svc := NewService(transport, cache.NewWriter(store), cache.NewReader(store), nil)

	require.NoError(t, store.Close())

	// A failing fallback read counts as no cached data, so the caller sees
	// the original fetch error rather than the read error.
	_, err = svc.Search(context.Background(), "mars")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransport)
	assert.NotErrorIs(t, err, types.ErrStorage)
}

func TestLoadCached_NoNetworkAccess(t *testing.T) {
	transport := &fakeTransport{}
	svc := setupService(t, transport)

	items, err := svc.LoadCached(context.Background(), "mars")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, transport.calls)
}

func TestRecentTerms_ThroughService(t *testing.T) {
	transport := &fakeTransport{results: []types.Result{
		resultFixture("PIA001", "Shared"),
	}}
	svc := setupService(t, transport)

	for _, term := range []string{"mars", "apollo", "jupiter"} {
		_, err := svc.Search(context.Background(), term)
		require.NoError(t, err)
	}

	terms, err := svc.RecentTerms(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, terms, 3)
	assert.Equal(t, "jupiter", terms[0].Term)
	assert.Equal(t, "apollo", terms[1].Term)
	assert.Equal(t, "mars", terms[2].Term)
}

func TestIsLoading_ClearedAfterEveryPath(t *testing.T) {
	transport := &fakeTransport{err: transportError()}
	svc := setupService(t, transport)

	_, _ = svc.Search(context.Background(), "mars")
	assert.False(t, svc.IsLoading())

	transport.err = nil
	transport.results = []types.Result{resultFixture("PIA001", "Item")}
	_, _ = svc.Search(context.Background(), "mars")
	assert.False(t, svc.IsLoading())

	_, _ = svc.Search(context.Background(), "  ")
	assert.False(t, svc.IsLoading())
}
