// Package observe provides observability primitives for unit lifecycle
// operations and healthchecks.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The lifecycle manager and the health aggregator
// accept its Logger, Tracer and Metrics; the host wires them from an
// Observer.
package observe
