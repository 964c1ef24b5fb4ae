// Package sampler provides the host metrics sources the snapshot producer
// reads on every tick.
//
// Two sources are implemented, selected by metrics.source in config.yaml:
//   - procfs (procfs.go) reads /proc/stat and /proc/meminfo of the local host
//     through github.com/prometheus/procfs.
//   - node_exporter (exporter.go) scrapes a node_exporter /metrics endpoint and
//     decodes node_cpu_seconds_total and node_memory_*_bytes with expfmt.
//
// Both report cumulative CPU seconds; cpu.go turns consecutive readings into
// per-core utilization percentages. The very first sample has no baseline and
// reports utilization since boot.
package sampler
