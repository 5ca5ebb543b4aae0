// Package nasa implements the remote transport: an HTTP client for the NASA
// Image and Video Library search API, resolving a free-text term to a list of
// normalized result records.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/skycache/skycache/pkg/types"
)

const (
	// DefaultBaseURL is the production search endpoint.
	DefaultBaseURL = "https://images-api.nasa.gov"

	// DefaultTimeout bounds one search request end to end.
	DefaultTimeout = 30 * time.Second

	userAgent = "skycache/1.0"
)

// Client queries the NASA images API. Failures of any kind (connection, HTTP
// status, decoding) are reported as types.ErrTransport so callers can fall
// back to the local cache uniformly. The client never retries; retry policy
// belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a search client. baseURL falls back to DefaultBaseURL
// when empty; a nil logger falls back to slog.Default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Search fetches remote results for the given free-text term.
func (c *Client) Search(ctx context.Context, term string) ([]types.Result, error) {
	term = types.NormalizeTerm(term)
	if term == "" {
		return nil, types.ErrEmptyQuery
	}

	query := url.Values{}
	query.Set("q", term)
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", types.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("nasa search request", "term", term, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("nasa search failed", "term", term, "error", err)
		return nil, fmt.Errorf("%w: %v", types.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", types.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("nasa search error", "term", term, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: unexpected status %d", types.ErrTransport, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", types.ErrTransport, err)
	}

	results := normalizeItems(decoded.Collection.Items)
	c.logger.Debug("nasa search complete", "term", term, "results", len(results))
	return results, nil
}
