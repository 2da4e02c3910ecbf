// Package config loads the lifeopsd host configuration.
//
// Values come from three layers, highest first: LIFEOPS_* environment
// variables, an optional YAML file, and built-in defaults. Nested keys map to
// environment names by upper-casing and replacing dots with underscores:
//
//	lifecycle.startup_timeout_ms  ->  LIFEOPS_LIFECYCLE_STARTUP_TIMEOUT_MS
//
// After validation, the credential fields (postgres.dsn, redis.password and
// http.jwt_secret) are passed through a secret.Resolver, so they may hold
// ${VAR} placeholders or secretref:<provider>:<ref> references:
//
//	postgres:
//	  dsn: secretref:file:pg-dsn
//	secrets:
//	  providers:
//	    file: { dir: /run/secrets }
//
// All *_ms settings must be non-negative. Zero lifecycle timeouts fall back to
// the lifecycle package defaults.
package config
