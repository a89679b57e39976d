// internal/lobby/router.go
package lobby

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Router decodes client frames and dispatches them to the Manager.
type Router struct {
	manager *Manager
	logger  logrus.FieldLogger
}

// NewRouter returns a Router bound to m.
func NewRouter(m *Manager, logger logrus.FieldLogger) *Router {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Router{manager: m, logger: logger}
}

// Manager returns the manager behind the router.
func (r *Router) Manager() *Manager {
	return r.manager
}

// HandleMessage processes one raw frame from conn. Malformed frames get an
// error reply; unknown types are logged and ignored.
func (r *Router) HandleMessage(conn *Connection, raw []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.logger.WithFields(logrus.Fields{
			"remote": conn.RemoteAddr,
			"error":  err,
		}).Warn("invalid message from client")
		conn.WriteError(ReasonInvalidFormat)
		return
	}

	switch msg.Type {
	case TypeCreateLobby:
		r.manager.CreateLobby(conn, msg.PlayerID)
	case TypeJoinLobby:
		r.manager.JoinLobby(conn, msg.Code, msg.PlayerID)
	case TypeLobbyMessage:
		r.manager.Relay(conn, msg.Code, msg.Data)
	case TypeLeaveLobby:
		r.manager.LeaveLobby(conn, msg.Code)
	default:
		r.logger.WithFields(logrus.Fields{
			"remote": conn.RemoteAddr,
			"type":   msg.Type,
		}).Debug("ignoring unknown message type")
	}
}

// HandleClose runs disconnect cleanup for conn.
func (r *Router) HandleClose(conn *Connection) {
	r.manager.Disconnect(conn)
}
