// Package health aggregates healthchecks over a set of named units.
//
// A unit that can report its own health implements Healthcheckable. Checks
// are registered on a Builder under unique names; the first registration of
// a name wins and later ones are logged and discarded. Build returns an
// immutable Aggregator.
//
// # Running Checks
//
// Aggregator.Healthcheck runs every selected check concurrently under one
// shared deadline (Config.Timeout, default 5s) and returns one Result per
// name. It never fails as a whole: a check that returns an error, panics,
// times out or is canceled is reported as unhealthy with the cause in
// Result.Error.
//
//	agg := health.NewBuilder(health.WithTimeout(2*time.Second)).
//	    Add("database", health.PingCheck(pool.Ping)).
//	    Add("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{})).
//	    Build()
//
//	results := agg.Healthcheck(ctx, health.Except("memory"))
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// Handler renders a JSON report sorted by name. Error values are never
// written to the response. Reports can be memoized through a cache.Cache
// for CacheTTL.
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg, health.HandlerConfig{
//	    UnhealthyStatusCode: http.StatusServiceUnavailable,
//	})
package health
