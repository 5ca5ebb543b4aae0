// Package types provides shared type definitions for the skycache module.
//
// This package defines the domain types used across components: cached media
// entities, normalized search results handed from the transport to the cache,
// and the error kinds callers match on.
//
// # Core Types
//
// MediaItem is a cached catalog entry keyed by its NASA catalog identifier:
//
//	item := &types.MediaItem{
//	    NASAID: "PIA12345",
//	    Title:  "Mars Rover Discovery",
//	    Center: "JPL",
//	}
//
// Result is a fully normalized remote search record. The transport layer
// produces Results so that the cache writer never has to inspect absent
// optional fields itself:
//
//	result := types.Result{
//	    NASAID: "PIA12345",
//	    Title:  "Mars Rover Discovery",
//	    Assets: []types.ResultAsset{{Href: "https://...", Rel: "preview"}},
//	}
//
// # Error Kinds
//
// Three sentinel errors classify every failure surfaced to callers:
//
//	types.ErrEmptyQuery // invalid input, nothing was attempted
//	types.ErrTransport  // remote fetch failed, cache fallback possible
//	types.ErrStorage    // local persistence failed, fatal to the operation
//
// Match them with errors.Is; concrete causes are wrapped underneath.
package types
