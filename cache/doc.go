// Package cache memoizes rendered reports, such as the health endpoint's JSON
// body, for a short TTL so that frequent polls do not fan out to every unit
// on each request.
//
// It provides a Cache interface with in-memory and Redis implementations,
// SHA-256 key derivation and TTL policies.
package cache
