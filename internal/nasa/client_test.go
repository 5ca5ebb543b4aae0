package nasa

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycache/skycache/pkg/types"
)

const searchResponseJSON = `{
	"collection": {
		"items": [
			{
				"href": "https://images-api.nasa.gov/asset/PIA12345/collection.json",
				"data": [{
					"nasa_id": "PIA12345",
					"title": "Mars Rover Discovery",
					"center": "JPL",
					"description": "A stunning view of the Martian surface.",
					"date_created": "2024-10-16T00:00:00Z",
					"media_type": "image",
					"location": "Mars",
					"photographer": "NASA",
					"keywords": ["mars", "rover"]
				}],
				"links": [{
					"href": "https://images-assets.nasa.gov/image/PIA12345/PIA12345~thumb.jpg",
					"rel": "preview",
					"render": "image",
					"width": 100,
					"height": 100,
					"size": 5000
				}]
			},
			{
				"href": "https://images-api.nasa.gov/asset/PIA67890/collection.json",
				"data": [{
					"nasa_id": "PIA67890",
					"title": "Bare Minimum Item"
				}]
			},
			{
				"href": "https://images-api.nasa.gov/asset/empty/collection.json",
				"data": []
			}
		]
	}
}`

func setupClient(t *testing.T) *Client {
	client := NewClient("https://images-api.test.nasa.gov", 5*time.Second, nil)
	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func TestSearch_Success(t *testing.T) {
	client := setupClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
		httpmock.NewStringResponder(http.StatusOK, searchResponseJSON))

	results, err := client.Search(context.Background(), "mars")
	require.NoError(t, err)
	require.Len(t, results, 2) // payload-less third record is dropped

	first := results[0]
	assert.Equal(t, "PIA12345", first.NASAID)
	assert.Equal(t, "Mars Rover Discovery", first.Title)
	assert.Equal(t, "JPL", first.Center)
	assert.Equal(t, []string{"mars", "rover"}, first.Keywords)
	require.NotNil(t, first.DateCreated)
	assert.Equal(t, 2024, first.DateCreated.Year())
	require.Len(t, first.Assets, 1)
	assert.Equal(t, "preview", first.Assets[0].Rel)
	assert.Equal(t, int64(5000), first.Assets[0].Size)

	// Optional fields coalesced to zero values, absent links to nil
	second := results[1]
	assert.Equal(t, "PIA67890", second.NASAID)
	assert.Empty(t, second.Center)
	assert.Nil(t, second.DateCreated)
	assert.Nil(t, second.Assets)
}

func TestSearch_QueryEncoding(t *testing.T) {
	client := setupClient(t)

	var gotQuery string
	httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
		func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query().Get("q")
			return httpmock.NewStringResponse(http.StatusOK, `{"collection":{"items":[]}}`), nil
		})

	_, err := client.Search(context.Background(), "  Apollo 11 ")
	require.NoError(t, err)
	assert.Equal(t, "apollo 11", gotQuery)
}

func TestSearch_EmptyTerm(t *testing.T) {
	client := setupClient(t)

	_, err := client.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestSearch_HTTPStatusError(t *testing.T) {
	client := setupClient(t)

	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
			httpmock.NewStringResponder(status, "error"))

		_, err := client.Search(context.Background(), "mars")
		assert.ErrorIs(t, err, types.ErrTransport, "status %d", status)
	}
}

func TestSearch_ConnectionError(t *testing.T) {
	client := setupClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
		httpmock.NewErrorResponder(assert.AnError))

	_, err := client.Search(context.Background(), "mars")
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestSearch_MalformedJSON(t *testing.T) {
	client := setupClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
		httpmock.NewStringResponder(http.StatusOK, `{not json`))

	_, err := client.Search(context.Background(), "mars")
	assert.ErrorIs(t, err, types.ErrTransport)
}

func TestSearch_EmptyCollection(t *testing.T) {
	client := setupClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://images-api.test.nasa.gov/search",
		httpmock.NewStringResponder(http.StatusOK, `{"collection":{"items":[]}}`))

	results, err := client.Search(context.Background(), "nothing-matches")
	require.NoError(t, err)
	assert.Empty(t, results)
}
