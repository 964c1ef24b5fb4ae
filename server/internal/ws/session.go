package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/topchat/topchat/pkg/types"
	"github.com/topchat/topchat/server/internal/config"
	"github.com/topchat/topchat/server/internal/session"
	"github.com/topchat/topchat/server/internal/telemetry"
)

// errUnregistered ends a writer whose session left the registry.
var errUnregistered = errors.New("session no longer registered")

// Conn is the subset of *websocket.Conn a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Handler upgrades HTTP requests to WebSocket sessions.
type Handler struct {
	hub      *Hub
	registry *session.Registry
	inbox    *session.Inbox
	cfg      config.SessionConfig
	metrics  *telemetry.Metrics
	upgrader websocket.Upgrader
}

// NewHandler returns a Handler serving sessions backed by hub, reg and inbox.
// m may be nil.
func NewHandler(hub *Hub, reg *session.Registry, inbox *session.Inbox, cfg config.SessionConfig, m *telemetry.Metrics) *Handler {
	return &Handler{
		hub:      hub,
		registry: reg,
		inbox:    inbox,
		cfg:      cfg,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Allow all origins. Apply CORS at the reverse proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and serves the session.
// Blocks until the session ends.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Debug("ws: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	<-h.Attach(r.Context(), conn)
}

// Attach registers a session on conn, starts its reader and writer, and
// returns a channel closed once both have exited and the session is torn
// down. Cancelling ctx ends the session.
func (h *Handler) Attach(ctx context.Context, conn Conn) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)
	s := &clientSession{
		h:      h,
		id:     h.registry.Register(),
		key:    uuid.NewString(),
		conn:   conn,
		ctx:    ctx,
		cancel: cancel,
	}
	// Subscribe before the writer starts so no snapshot published from here
	// on is missed.
	s.sub = h.hub.Subscribe()

	h.metrics.SessionOpened()
	slog.Info("ws: session started", "id", s.id, "session", s.key)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer s.teardown()
		s.writeLoop()
	}()
	go func() {
		defer wg.Done()
		defer s.teardown()
		s.readLoop()
	}()
	go func() {
		wg.Wait()
		h.metrics.SessionClosed()
		slog.Info("ws: session ended", "id", s.id, "session", s.key)
		close(done)
	}()
	return done
}

// clientSession is one connected client.
type clientSession struct {
	h    *Handler
	id   types.ClientID
	key  string
	conn Conn
	sub  *Subscription

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// teardown releases everything the session holds. Safe to call from both
// loops; only the first call has effect.
func (s *clientSession) teardown() {
	s.once.Do(func() {
		s.h.registry.Unregister(s.id)
		s.h.hub.Unsubscribe(s.sub)
		s.cancel()
		s.conn.Close() //nolint:errcheck
	})
}

// writeLoop sends one personalized frame per received snapshot plus
// periodic pings. It returns when the hub closes, the session is cancelled
// or a write fails.
func (s *clientSession) writeLoop() {
	ping := time.NewTicker(s.h.cfg.PingPeriod())
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case snap, ok := <-s.sub.C():
			if !ok {
				// Publisher gone.
				bye := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout)) //nolint:errcheck
				s.conn.WriteMessage(websocket.CloseMessage, bye)              //nolint:errcheck
				return
			}
			if err := s.deliver(snap); err != nil {
				if errors.Is(err, errUnregistered) {
					slog.Debug("ws: writer stopping", "id", s.id, "reason", err)
				} else {
					slog.Info("ws: write failed", "id", s.id, "err", err)
				}
				return
			}

		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.h.metrics.WriteFailed()
				return
			}
		}
	}
}

// deliver writes snap as seen by this session.
func (s *clientSession) deliver(snap *types.Snapshot) error {
	name, ok := s.h.registry.Lookup(s.id)
	if !ok {
		return errUnregistered
	}

	data, err := json.Marshal(snap.Personalize(s.id, name))
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.h.cfg.WriteTimeout)) //nolint:errcheck
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.h.metrics.WriteFailed()
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readLoop applies client frames until the transport fails or closes.
func (s *clientSession) readLoop() {
	pongWait := s.h.cfg.PongWait
	s.conn.SetReadLimit(s.h.cfg.ReadLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws: read ended", "id", s.id, "err", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		s.handleFrame(data)
	}
}

// handleFrame validates one client frame and applies it. Invalid frames are
// dropped; the session continues.
func (s *clientSession) handleFrame(data []byte) {
	in, err := types.ParseInbound(data)
	if err != nil {
		s.h.metrics.Rejected(telemetry.ReasonMalformed)
		slog.Warn("ws: dropping invalid frame", "id", s.id, "err", err)
		return
	}
	if in.ID != s.id {
		s.h.metrics.Rejected(telemetry.ReasonIdentity)
		slog.Warn("ws: dropping frame with foreign id", "id", s.id, "claimed_id", in.ID)
		return
	}

	if prev, ok := s.h.registry.Rename(s.id, in.Name); ok && prev != in.Name {
		slog.Info("ws: session renamed", "id", s.id, "from", prev, "to", in.Name)
	}

	if in.Message == nil {
		return
	}
	s.h.inbox.Push(types.ChatMessage{
		FromID:   s.id,
		FromName: in.Name,
		ToID:     in.ToID,
		Body:     *in.Message,
	})
}
