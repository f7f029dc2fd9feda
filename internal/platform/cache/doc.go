// Package cache implements the cache-aside layer for per-user task listings.
//
// Cache never returns errors to callers. A backend failure, a timeout or an
// undecodable value is logged and reported as a miss, so an unavailable
// cache degrades every read to the source of truth instead of failing it.
package cache
