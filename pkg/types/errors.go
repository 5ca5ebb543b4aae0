package types

import "errors"

// Error kinds surfaced by the search pipeline. Callers classify failures with
// errors.Is; the concrete cause is wrapped underneath the sentinel.
var (
	// ErrEmptyQuery is returned for empty or whitespace-only search input.
	// Neither the transport nor the cache is touched.
	ErrEmptyQuery = errors.New("search term is empty")

	// ErrTransport marks a remote fetch failure (network, HTTP status or
	// decoding). Recoverable through the cache fallback.
	ErrTransport = errors.New("transport failure")

	// ErrStorage marks a local persistence failure. Fatal to the current
	// operation and must never be presented as an empty cache.
	ErrStorage = errors.New("storage failure")
)
