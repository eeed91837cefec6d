// Package observe provides observability primitives for policy execution.
//
// It is a pure instrumentation library: no execution semantics, no
// transport, no I/O beyond exporter setup. Consumers wrap their policies
// with Instrument or attach a RetryMetricsListener to a retry policy.
package observe
