// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/relay/internal/lobby"
	"github.com/jason-s-yu/relay/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second
	pingTimeout  = 15 * time.Second

	// DefaultPingInterval is how often idle connections are pinged.
	DefaultPingInterval = 30 * time.Second
)

// WSOptions tunes the WebSocket transport.
type WSOptions struct {
	// OriginPatterns is passed to websocket.Accept. Empty means same-origin only.
	OriginPatterns []string
	OutboundBuffer int
	PingInterval   time.Duration
}

// LobbyWS accepts WebSocket clients, feeds their frames to the router and
// drains each connection's outbound queue.
type LobbyWS struct {
	router *lobby.Router
	logger logrus.FieldLogger
	opts   WSOptions

	mu       sync.Mutex
	conns    map[*lobby.Connection]*websocket.Conn
	closing  bool
	inflight sync.WaitGroup
}

// NewLobbyWS returns a handler serving the lobby protocol over WebSocket.
func NewLobbyWS(router *lobby.Router, logger logrus.FieldLogger, opts WSOptions) *LobbyWS {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.OutboundBuffer <= 0 {
		opts.OutboundBuffer = lobby.DefaultOutboundBuffer
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	return &LobbyWS{
		router: router,
		logger: logger,
		opts:   opts,
		conns:  make(map[*lobby.Connection]*websocket.Conn),
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *LobbyWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		h.logger.WithError(err).WithField("remote", r.RemoteAddr).Warn("websocket accept error")
		return
	}
	c.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := lobby.NewConnection(r.RemoteAddr, h.opts.OutboundBuffer, cancel)
	if !h.track(conn, c) {
		_ = c.Close(StatusShutdown, "server shutting down")
		return
	}
	defer h.untrack(conn)

	middleware.LogWebSocketConnect(h.logger, conn.ID, conn.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(writeCtx, c, conn)
	}()

	readErr := h.readPump(ctx, c, conn)

	h.router.HandleClose(conn)
	cancel()
	<-writerDone

	middleware.LogWebSocketDisconnect(h.logger, conn.ID, conn.RemoteAddr, readErr)
}

// readPump hands every text frame to the router until the socket fails. It
// returns the read error unless the closure was a normal one.
func (h *LobbyWS) readPump(ctx context.Context, c *websocket.Conn, conn *lobby.Connection) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if conn.CloseReason() != "" || errors.Is(err, context.Canceled) {
				return nil
			}
			h.logger.WithFields(logrus.Fields{
				"conn_id": conn.ID,
				"remote":  conn.RemoteAddr,
				"status":  status,
			}).WithError(err).Warn("transport error")
			return err
		}

		if typ != websocket.MessageText {
			h.logger.WithFields(logrus.Fields{
				"conn_id": conn.ID,
				"frame":   typ.String(),
			}).Warn("ignoring non-text frame")
			continue
		}

		h.router.HandleMessage(conn, msg)
	}
}

// writePump serializes queued messages onto the socket and keeps it alive
// with pings. It owns closing the socket.
func (h *LobbyWS) writePump(ctx context.Context, c *websocket.Conn, conn *lobby.Connection) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if reason := conn.CloseReason(); reason != "" {
				_ = c.Close(StatusSuperseded, reason)
			} else {
				_ = c.Close(StatusClosing, "connection closing")
			}
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.WithError(err).WithField("conn_id", conn.ID).Warn("failed to marshal outgoing message")
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					h.logger.WithError(err).WithField("conn_id", conn.ID).Warn("failed to write to websocket")
				}
				c.CloseNow()
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.Ping(pctx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					h.logger.WithError(err).WithField("conn_id", conn.ID).Warn("ping failed, assuming disconnect")
				}
				c.CloseNow()
				return
			}
		}
	}
}

// CloseAll closes every live connection with StatusGoingAway and waits for
// their disconnect cleanup to finish. New upgrades are refused afterwards.
func (h *LobbyWS) CloseAll() {
	h.mu.Lock()
	h.closing = true
	sockets := make([]*websocket.Conn, 0, len(h.conns))
	for _, c := range h.conns {
		sockets = append(sockets, c)
	}
	h.mu.Unlock()

	for _, c := range sockets {
		go func(c *websocket.Conn) {
			_ = c.Close(StatusShutdown, "server shutting down")
		}(c)
	}
	h.inflight.Wait()
}

// Len reports how many connections are currently open.
func (h *LobbyWS) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *LobbyWS) track(conn *lobby.Connection, c *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.conns[conn] = c
	h.inflight.Add(1)
	return true
}

func (h *LobbyWS) untrack(conn *lobby.Connection) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	h.inflight.Done()
}
