package nasa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func TestNormalizeItems_FirstPayloadOnly(t *testing.T) {
	items := []searchItem{
		{
			Data: []searchData{
				{NASAID: "PIA001", Title: "First Payload"},
				{NASAID: "PIA002", Title: "Ignored Second Payload"},
			},
		},
	}

	results := normalizeItems(items)
	require.Len(t, results, 1)
	assert.Equal(t, "PIA001", results[0].NASAID)
}

func TestNormalizeItems_DropsPayloadlessRecords(t *testing.T) {
	items := []searchItem{
		{Data: nil},
		{Data: []searchData{}},
		{Data: []searchData{{NASAID: "PIA003", Title: "Kept"}}},
	}

	results := normalizeItems(items)
	require.Len(t, results, 1)
	assert.Equal(t, "PIA003", results[0].NASAID)
}

func TestNormalizeLinks_Defaults(t *testing.T) {
	items := []searchItem{
		{
			Data: []searchData{{NASAID: "PIA004", Title: "Link Defaults"}},
			Links: []searchLink{
				{},                              // all fields absent
				{Href: strPtr("https://a.jpg"), Width: intPtr(640)},
			},
		},
	}

	results := normalizeItems(items)
	require.Len(t, results, 1)
	require.Len(t, results[0].Assets, 2)

	bare := results[0].Assets[0]
	assert.Empty(t, bare.Href)
	assert.Empty(t, bare.Rel)
	assert.Zero(t, bare.Width)
	assert.Zero(t, bare.Size)

	partial := results[0].Assets[1]
	assert.Equal(t, "https://a.jpg", partial.Href)
	assert.Equal(t, int64(640), partial.Width)
	assert.Zero(t, partial.Height)
}

func TestParseDate(t *testing.T) {
	valid := parseDate(strPtr("2024-10-16T00:00:00Z"))
	require.NotNil(t, valid)
	assert.Equal(t, 2024, valid.Year())

	assert.Nil(t, parseDate(nil))
	assert.Nil(t, parseDate(strPtr("not-a-date")))
}
