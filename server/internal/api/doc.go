// Package api implements the HTTP REST API for topchat-server.
//
// New(sessions, snapshots, queue, alerts) returns an http.Handler that serves:
//
//	GET /api/v1/health    state, session and subscriber counts, inbox depth
//	GET /api/v1/sessions  registered sessions [{id, name}] ordered by id
//	GET /api/v1/snapshot  latest published snapshot with diagnostics; 404 before the first
//	GET /api/v1/alerts    firing alerts and alerts resolved in the last hour
//
// All endpoints respond with Content-Type: application/json and return 405
// for non-GET methods. Routing uses chi.
package api
