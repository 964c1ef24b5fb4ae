// Package types defines the wire types shared by the snapshot producer, the
// WebSocket sessions and the REST API.
//
// Snapshot is built once per producer tick and never mutated afterwards;
// every session writer reads the same value concurrently and derives its own
// Outbound frame from it. Inbound is the validated form of a client frame;
// ParseInbound is the only way to obtain one from raw bytes.
//
// CPULoad marshals as a two-element JSON array ([core, percent]) to match the
// browser UI, which indexes cpu_data entries positionally.
package types
