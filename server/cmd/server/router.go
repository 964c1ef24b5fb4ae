package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topchat/topchat/server/internal/alerts"
	"github.com/topchat/topchat/server/internal/api"
	"github.com/topchat/topchat/server/internal/session"
	"github.com/topchat/topchat/server/internal/ws"
)

type routerDeps struct {
	sessions http.Handler
	registry *session.Registry
	hub      *ws.Hub
	inbox    *session.Inbox
	alerts   *alerts.Engine
	gatherer prometheus.Gatherer
	uiDir    string
}

// newRouter mounts the WebSocket entrypoint, the REST API, /metrics and the
// optional static UI.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/realtime/cpus", d.sessions.ServeHTTP)
	r.Handle("/api/*", api.New(d.registry, d.hub, d.inbox, d.alerts))
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if d.uiDir != "" {
		fs := http.FileServer(http.Dir(d.uiDir))
		r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			path := filepath.Join(d.uiDir, filepath.FromSlash(filepath.Clean("/"+req.URL.Path)))
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, req, filepath.Join(d.uiDir, "index.html"))
				return
			}
			fs.ServeHTTP(w, req)
		}))
		slog.Info("serving UI static files", "dir", d.uiDir)
	}
	return r
}
