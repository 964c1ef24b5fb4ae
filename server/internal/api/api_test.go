package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/alerts"
	"github.com/topchat/topchat/server/internal/api"
	"github.com/topchat/topchat/server/internal/config"
	"github.com/topchat/topchat/server/internal/session"
	"github.com/topchat/topchat/server/internal/ws"
)

// --- test helpers -----------------------------------------------------------

type deps struct {
	reg    *session.Registry
	hub    *ws.Hub
	inbox  *session.Inbox
	alerts *alerts.Engine
}

func newDeps(rules ...config.AlertRule) *deps {
	return &deps{
		reg:    session.NewRegistry(),
		hub:    ws.NewHub(nil),
		inbox:  session.NewInbox(4, nil),
		alerts: alerts.New(config.AlertsConfig{Rules: rules}),
	}
}

func (d *deps) handler() http.Handler {
	return api.New(d.reg, d.hub, d.inbox, d.alerts)
}

func snap(cpu float32) *types.Snapshot {
	return &types.Snapshot{
		Hostname:     "box",
		Datetime:     "Tue  6 Feb 14:03:09",
		SessionCount: 1,
		CPU:          []types.CPULoad{{Core: 0, Percent: cpu}, {Core: 1, Percent: cpu}},
		Memory:       &types.MemoryData{Total: 1 << 30, Free: 1 << 29, Available: 1 << 29, Used: 1 << 29},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- health -----------------------------------------------------------------

func TestHealth_BeforeFirstSnapshot(t *testing.T) {
	d := newDeps()
	rr := get(t, d.handler(), "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.State != "unknown" {
		t.Errorf("state: got %q, want unknown", resp.State)
	}
	if resp.InboxCapacity != 4 {
		t.Errorf("inbox_capacity: got %d, want 4", resp.InboxCapacity)
	}
}

func TestHealth_Counts(t *testing.T) {
	d := newDeps()
	d.reg.Register()
	d.reg.Register()
	d.hub.Subscribe()
	d.inbox.Push(types.ChatMessage{FromID: 1, Body: "hi"})
	d.hub.Publish(snap(10))

	var resp api.HealthResponse
	decode(t, get(t, d.handler(), "/api/v1/health"), &resp)

	if resp.Sessions != 2 || resp.Subscribers != 1 || resp.InboxDepth != 1 {
		t.Errorf("counts: got %+v", resp)
	}
	if resp.State != "ok" {
		t.Errorf("state: got %q, want ok", resp.State)
	}
	if resp.LastSnapshot != "Tue  6 Feb 14:03:09" {
		t.Errorf("last_snapshot: got %q", resp.LastSnapshot)
	}
}

func TestHealth_StateFollowsDiagnostics(t *testing.T) {
	d := newDeps()
	d.hub.Publish(snap(99))

	var resp api.HealthResponse
	decode(t, get(t, d.handler(), "/api/v1/health"), &resp)
	if resp.State != "critical" {
		t.Errorf("state: got %q, want critical", resp.State)
	}
}

func TestHealth_AlertCount(t *testing.T) {
	d := newDeps(config.AlertRule{Name: "hot", Condition: "cpu_max > 50"})
	s := snap(60)
	d.alerts.Evaluate(s)

	var resp api.HealthResponse
	decode(t, get(t, d.handler(), "/api/v1/health"), &resp)
	if resp.AlertCount != 1 {
		t.Errorf("alert_count: got %d, want 1", resp.AlertCount)
	}
}

// --- sessions ---------------------------------------------------------------

func TestSessions_Empty(t *testing.T) {
	rr := get(t, newDeps().handler(), "/api/v1/sessions")
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want []", body)
	}
}

func TestSessions_List(t *testing.T) {
	d := newDeps()
	a := d.reg.Register()
	b := d.reg.Register()
	d.reg.Rename(b, "Bob")

	var out []types.SessionInfo
	decode(t, get(t, d.handler(), "/api/v1/sessions"), &out)

	want := []types.SessionInfo{{ID: a, Name: session.DefaultName(a)}, {ID: b, Name: "Bob"}}
	if len(out) != len(want) {
		t.Fatalf("sessions: got %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("sessions[%d]: got %+v, want %+v", i, out[i], want[i])
		}
	}
}

// --- snapshot ---------------------------------------------------------------

func TestSnapshot_NotFoundBeforePublish(t *testing.T) {
	rr := get(t, newDeps().handler(), "/api/v1/snapshot")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestSnapshot_Latest(t *testing.T) {
	d := newDeps()
	d.hub.Publish(snap(10))
	d.hub.Publish(snap(20))

	var resp api.SnapshotResponse
	decode(t, get(t, d.handler(), "/api/v1/snapshot"), &resp)

	if resp.Snapshot == nil {
		t.Fatal("snapshot fields missing")
	}
	if resp.Hostname != "box" || len(resp.CPU) != 2 || resp.CPU[0].Percent != 20 {
		t.Errorf("snapshot: got %+v", resp.Snapshot)
	}
	if len(resp.Diagnostics) == 0 {
		t.Error("diagnostics: got none")
	}
	if _, err := time.Parse(time.RFC3339, resp.GeneratedAt); err != nil {
		t.Errorf("generated_at: %v", err)
	}
}

func TestSnapshot_OmitsChatMessage(t *testing.T) {
	d := newDeps()
	s := snap(10)
	s.Message = &types.ChatMessage{FromID: 1, ToID: 2, Body: "private"}
	d.hub.Publish(s)

	var raw map[string]interface{}
	decode(t, get(t, d.handler(), "/api/v1/snapshot"), &raw)
	if _, ok := raw["message"]; ok {
		t.Errorf("message exposed: %v", raw["message"])
	}
	if s.Message == nil {
		t.Error("published snapshot was modified")
	}
}

// --- alerts -----------------------------------------------------------------

func TestAlerts_ReturnsEmptyArray(t *testing.T) {
	rr := get(t, newDeps().handler(), "/api/v1/alerts")
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want []", body)
	}
}

func TestAlerts_Firing(t *testing.T) {
	d := newDeps(config.AlertRule{Name: "hot", Condition: "cpu_max > 50", Severity: "critical"})
	d.alerts.Evaluate(snap(80))

	var out []alerts.Alert
	decode(t, get(t, d.handler(), "/api/v1/alerts"), &out)
	if len(out) != 1 || out[0].RuleName != "hot" || out[0].State != alerts.StateFiring {
		t.Errorf("alerts: got %+v", out)
	}
}

// --- routing ----------------------------------------------------------------

func TestMethodNotAllowed(t *testing.T) {
	h := newDeps().handler()
	for _, path := range []string{"/api/v1/health", "/api/v1/sessions", "/api/v1/snapshot", "/api/v1/alerts"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	rr := get(t, newDeps().handler(), "/api/v1/pipelines")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestContentTypeJSON(t *testing.T) {
	d := newDeps()
	d.hub.Publish(snap(10))
	h := d.handler()
	for _, path := range []string{"/api/v1/health", "/api/v1/sessions", "/api/v1/snapshot", "/api/v1/alerts", "/api/v1/nope"} {
		rr := get(t, h, path)
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: Content-Type got %q, want application/json", path, ct)
		}
	}
}
