// Package cache turns remote search responses into a durable, de-duplicated
// local store and answers offline queries from it.
//
// The Writer runs one atomic transaction per successful remote fetch: it
// upserts every fetched item, replaces the item's assets wholesale, creates
// missing term associations and finally prunes associations left over from a
// previous fetch of the same term. Writes for the same term are serialized;
// distinct terms proceed concurrently.
//
// The Reader answers the two offline queries: items cached for a term (title
// ascending) and the recent-search history (most recent first). Readers never
// mutate state and observe either the pre- or post-transaction view, never a
// partial one.
package cache
