package api

import (
	"github.com/topchat/topchat/pkg/types"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is the worst diagnostic level of the latest snapshot, or
	// "unknown" before the first one.
	State         string `json:"state"`
	Sessions      int    `json:"sessions"`
	Subscribers   int    `json:"subscribers"`
	InboxDepth    int    `json:"inbox_depth"`
	InboxCapacity int    `json:"inbox_capacity"`
	AlertCount    int    `json:"alert_count"`
	LastSnapshot  string `json:"last_snapshot,omitempty"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot: the latest
// published snapshot plus diagnostics derived from it.
type SnapshotResponse struct {
	*types.Snapshot
	Diagnostics []DiagnosticHint `json:"diagnostics"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
