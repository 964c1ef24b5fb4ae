package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/alerts"
)

// Sessions lists registered sessions.
type Sessions interface {
	Count() int
	List() []types.SessionInfo
}

// Snapshots exposes the most recent published snapshot.
type Snapshots interface {
	Latest() *types.Snapshot
	Subscribers() int
}

// Queue reports chat inbox occupancy.
type Queue interface {
	Len() int
	Cap() int
}

// Alerts lists current and recently resolved alerts.
type Alerts interface {
	Active() []*alerts.Alert
	Firing() int
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	sessions  Sessions
	snapshots Snapshots
	queue     Queue
	alerts    Alerts
	router    chi.Router
}

// New creates a Handler and registers all routes.
func New(sessions Sessions, snapshots Snapshots, queue Queue, al Alerts) http.Handler {
	h := &Handler{
		sessions:  sessions,
		snapshots: snapshots,
		queue:     queue,
		alerts:    al,
		router:    chi.NewRouter(),
	}

	h.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	h.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	h.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/sessions", h.listSessions)
		r.Get("/snapshot", h.snapshot)
		r.Get("/alerts", h.listAlerts)
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		State:         "unknown",
		Sessions:      h.sessions.Count(),
		Subscribers:   h.snapshots.Subscribers(),
		InboxDepth:    h.queue.Len(),
		InboxCapacity: h.queue.Cap(),
		AlertCount:    h.alerts.Firing(),
	}
	if snap := h.snapshots.Latest(); snap != nil {
		resp.State = worstLevel(computeDiagnostics(snap))
		resp.LastSnapshot = snap.Datetime
	}
	jsonResp(w, http.StatusOK, resp)
}

// listSessions returns GET /api/v1/sessions.
func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.sessions.List())
}

// snapshot returns GET /api/v1/snapshot. 404 until the first publish.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Latest()
	if snap == nil {
		jsonErr(w, http.StatusNotFound, "no snapshot yet")
		return
	}

	// Chat messages are per-recipient; never expose them here.
	public := *snap
	public.Message = nil

	jsonResp(w, http.StatusOK, SnapshotResponse{
		Snapshot:    &public,
		Diagnostics: computeDiagnostics(snap),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// listAlerts returns GET /api/v1/alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
