// Package secret resolves secrets referenced from configuration values.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry), with built-in
//     "env" and "file" providers
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:file:postgres-password
//   - Inline use:  Bearer secretref:env:HEALTH_TOKEN
package secret
