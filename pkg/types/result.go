package types

import (
	"strings"
	"time"
)

// Result is one normalized remote search record. The transport layer coalesces
// all optional fields of the wire format here, so downstream code works with
// plain values and zero defaults instead of pointers.
type Result struct {
	NASAID       string
	Title        string
	Center       string
	Description  string
	Location     string
	Photographer string
	MediaType    string
	DateCreated  *time.Time
	Keywords     []string
	Assets       []ResultAsset
}

// ResultAsset is a normalized asset descriptor. Missing numeric fields on the
// wire become 0, missing tags become "".
type ResultAsset struct {
	Href   string
	Rel    string
	Render string
	Width  int64
	Height int64
	Size   int64
}

// Valid reports whether the record may be cached. Records without a catalog
// identifier or title are skipped rather than stored partially.
func (r Result) Valid() bool {
	return r.NASAID != "" && r.Title != ""
}

// NormalizeTerm canonicalizes a search term for keying: surrounding whitespace
// stripped, lowercased. An empty return means the input was blank.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
