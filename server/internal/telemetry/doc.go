// Package telemetry holds the Prometheus collectors shared by the session,
// hub, inbox and producer components.
//
// New(reg) registers every collector on reg; pass prometheus.NewRegistry() in
// tests so packages can assert on isolated counters. All methods are safe on
// a nil *Metrics, which turns instrumentation off.
package telemetry
