// internal/lobby/lobby_manager.go
package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/relay/internal/events"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long a lobby lives before the sweep reclaims it.
	DefaultTTL = 10 * time.Minute
	// DefaultSweepInterval is how often expired lobbies are looked for.
	DefaultSweepInterval = time.Minute

	// maxCodeAttempts bounds regeneration on code collisions.
	maxCodeAttempts = 10

	closeReasonSuperseded = "identity registered on another connection"
	closedHostLeft        = "host left"
)

// Options configures a Manager. Zero values select the defaults.
type Options struct {
	Capacity      int
	TTL           time.Duration
	SweepInterval time.Duration
	CodeLength    int

	Publisher events.Publisher
	Logger    logrus.FieldLogger

	// Now and Random are swapped out in tests.
	Now    func() time.Time
	Random Random
}

// Manager owns the LobbyStore and ConnectionRegistry and runs every lobby
// operation against them. All operations are serialized behind one mutex and
// only ever perform non-blocking writes while holding it.
type Manager struct {
	mu       sync.Mutex
	store    *LobbyStore
	registry *ConnectionRegistry
	codes    *CodeGenerator

	capacity      int
	ttl           time.Duration
	sweepInterval time.Duration

	publisher events.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewManager builds a Manager with empty stores.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:         NewLobbyStore(),
		registry:      NewConnectionRegistry(),
		codes:         NewCodeGenerator(opts.CodeLength),
		capacity:      opts.Capacity,
		ttl:           opts.TTL,
		sweepInterval: opts.SweepInterval,
		publisher:     opts.Publisher,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if opts.Random != nil {
		m.codes.Random = opts.Random
	}
	if m.capacity < 2 {
		m.capacity = DefaultCapacity
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.sweepInterval <= 0 {
		m.sweepInterval = DefaultSweepInterval
	}
	if m.publisher == nil {
		m.publisher = events.Nop{}
	}
	if m.logger == nil {
		m.logger = logrus.StandardLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// CreateLobby makes conn the host of a new lobby. An empty requestedID gets a
// minted host identity.
func (m *Manager) CreateLobby(conn *Connection, requestedID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hostID := requestedID
	if hostID == "" {
		hostID = "host_" + uuid.NewString()
	}

	l, err := m.insertLobby(hostID)
	if err != nil {
		m.logger.WithError(err).WithField("player_id", hostID).Error("lobby creation failed")
		conn.WriteError(ReasonCreateFailed)
		return
	}
	m.bind(hostID, conn)

	m.logger.WithFields(logrus.Fields{
		"code":      l.Code,
		"player_id": hostID,
		"remote":    conn.RemoteAddr,
	}).Info("lobby created")

	conn.Write(newLobbyCreated(l.Code, hostID))
	m.publisher.Publish(events.New(events.LobbyCreated, l.Code, hostID, l.CreatedAt))
}

// insertLobby generates codes until one is free. Assumes m.mu is held.
func (m *Manager) insertLobby(hostID string) (*Lobby, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		l := NewLobby(m.codes.Next(), hostID, m.capacity, m.now())
		err := m.store.Create(l)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrCodeCollision) {
			return nil, err
		}
		m.logger.WithField("code", l.Code).Debug("lobby code collision, regenerating")
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxCodeAttempts, ErrCodeSpaceExhausted)
}

// JoinLobby adds identity to the lobby with the given code. An empty identity
// gets a minted player identity.
func (m *Manager) JoinLobby(conn *Connection, code, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code = normalizeCode(code)
	log := m.logger.WithFields(logrus.Fields{
		"code":      code,
		"player_id": identity,
		"remote":    conn.RemoteAddr,
	})

	l, ok := m.store.Get(code)
	if !ok {
		log.Info("join failed: lobby not found")
		conn.Write(newJoinFailed(ReasonLobbyNotFound))
		m.publisher.Publish(events.New(events.JoinFailed, code, identity, m.now()).WithDetail("reason", ReasonLobbyNotFound))
		return
	}

	if identity == "" {
		identity = "player_" + uuid.NewString()
	}

	if l.HasMember(identity) {
		// Same identity again: move it onto this connection without taking a seat.
		m.bind(identity, conn)
		log.Info("participant rejoined lobby")
		conn.Write(newJoinSuccess(l.Code, identity, l.HostID))
		conn.Write(newLobbyUpdate(l))
		return
	}

	if l.IsFull() {
		log.Info("join failed: lobby is full")
		conn.Write(newJoinFailed(ReasonLobbyFull))
		m.publisher.Publish(events.New(events.JoinFailed, code, identity, m.now()).WithDetail("reason", ReasonLobbyFull))
		return
	}

	l.addMember(identity)
	m.bind(identity, conn)
	log.WithField("player_count", l.PlayerCount()).Info("player joined lobby")

	// Clients key UI state off the first message naming them, so this order is fixed.
	conn.Write(newJoinSuccess(l.Code, identity, l.HostID))
	if host, ok := m.registry.Resolve(l.HostID); ok {
		host.Write(newPlayerJoined(identity, l.Code))
	}
	m.broadcast(l, newLobbyUpdate(l))

	m.publisher.Publish(events.New(events.PlayerJoined, l.Code, identity, m.now()))
}

// Relay forwards data to every reachable participant of the lobby, sender
// included. A role/status pair in data is recorded as presence first.
func (m *Manager) Relay(conn *Connection, code string, data json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code = normalizeCode(code)
	l, ok := m.store.Get(code)
	if !ok {
		conn.WriteError(ReasonLobbyNotFound)
		return
	}
	if len(m.registry.IdentitiesBoundTo(conn)) == 0 {
		conn.WriteError(ReasonIdentityRequired)
		return
	}

	if role, status, ok := presenceUpdate(data); ok {
		l.StatusByRole[role] = status
		m.logger.WithFields(logrus.Fields{
			"code":   l.Code,
			"role":   role,
			"status": status,
		}).Debug("presence status recorded")
		m.publisher.Publish(events.New(events.StatusUpdated, l.Code, "", m.now()).
			WithDetail("role", role).
			WithDetail("status", status))
	}

	m.broadcast(l, newRelayEnvelope(l.Code, data))
}

// LeaveLobby removes the sender from a lobby while keeping its connection
// open. A leaving host closes the lobby.
func (m *Manager) LeaveLobby(conn *Connection, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code = normalizeCode(code)
	l, ok := m.store.Get(code)
	if !ok {
		conn.WriteError(ReasonLobbyNotFound)
		return
	}

	identity := ""
	for _, id := range m.registry.IdentitiesBoundTo(conn) {
		if l.HasMember(id) {
			identity = id
			break
		}
	}
	if identity == "" {
		conn.WriteError(ReasonNotMember)
		return
	}

	log := m.logger.WithFields(logrus.Fields{"code": l.Code, "player_id": identity})
	if identity == l.HostID {
		m.broadcast(l, newLobbyClosed(l.Code, closedHostLeft))
		m.store.Remove(l.Code)
		log.Info("host left, lobby closed")
		m.publisher.Publish(events.New(events.LobbyClosed, l.Code, identity, m.now()).WithDetail("reason", closedHostLeft))
		return
	}

	m.broadcast(l, newPlayerLeft(identity, l.Code))
	l.removeMember(identity)
	m.broadcast(l, newLobbyUpdate(l))
	log.Info("player left lobby")
	m.publisher.Publish(events.New(events.PlayerLeft, l.Code, identity, m.now()))
}

// Disconnect cleans up after a closed connection: every identity bound to it
// is unregistered and every lobby it belonged to is told. Lobbies it hosted
// are removed; lobbies it joined drop it from their members.
func (m *Manager) Disconnect(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, identity := range m.registry.IdentitiesBoundTo(conn) {
		m.registry.Unregister(identity)
		m.logger.WithFields(logrus.Fields{
			"player_id": identity,
			"remote":    conn.RemoteAddr,
		}).Info("participant disconnected")

		m.store.ForEach(func(l *Lobby) bool {
			if !l.HasMember(identity) {
				return true
			}
			// Sent before removal so the notice reaches the membership as it stood.
			m.broadcast(l, newPlayerDisconnected(identity))
			m.publisher.Publish(events.New(events.PlayerDisconnected, l.Code, identity, m.now()))

			if identity == l.HostID {
				m.store.Remove(l.Code)
				m.logger.WithField("code", l.Code).Info("host disconnected, lobby removed")
				m.publisher.Publish(events.New(events.LobbyClosed, l.Code, identity, m.now()).WithDetail("reason", "host disconnected"))
				return true
			}
			l.removeMember(identity)
			m.broadcast(l, newLobbyUpdate(l))
			return true
		})
	}
}

// Sweep removes every lobby older than the TTL, notifying reachable members
// first. It returns the number of lobbies removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	m.store.ForEach(func(l *Lobby) bool {
		if !l.Expired(now, m.ttl) {
			return true
		}
		m.broadcast(l, newLobbyExpired(l.Code))
		m.store.Remove(l.Code)
		removed++
		m.logger.WithFields(logrus.Fields{
			"code": l.Code,
			"age":  now.Sub(l.CreatedAt).Round(time.Second),
		}).Info("lobby expired")
		m.publisher.Publish(events.New(events.LobbyExpired, l.Code, "", now))
		return true
	})
	return removed
}

// RunSweeper calls Sweep on every interval tick until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.WithField("removed", n).Debug("expiry sweep finished")
			}
		}
	}
}

// Lobby returns a snapshot of the lobby with the given code.
func (m *Manager) Lobby(code string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.store.Get(normalizeCode(code))
	if !ok {
		return Snapshot{}, false
	}
	return l.Snapshot(), true
}

// Lobbies returns snapshots of every live lobby in code order.
func (m *Manager) Lobbies() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, 0, m.store.Len())
	m.store.ForEach(func(l *Lobby) bool {
		out = append(out, l.Snapshot())
		return true
	})
	return out
}

// Stats returns the number of live lobbies and bound identities.
func (m *Manager) Stats() (lobbies, identities int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len(), m.registry.Len()
}

// bind registers identity on conn. A different connection that held the
// identity is closed; its own close then finds nothing left to clean up.
func (m *Manager) bind(identity string, conn *Connection) {
	if old := m.registry.Register(identity, conn); old != nil {
		m.logger.WithFields(logrus.Fields{
			"player_id":  identity,
			"old_remote": old.RemoteAddr,
			"remote":     conn.RemoteAddr,
		}).Warn("identity moved to a new connection, closing the old one")
		old.Close(closeReasonSuperseded)
	}
}

// broadcast writes msg to every participant that currently resolves.
func (m *Manager) broadcast(l *Lobby, msg map[string]interface{}) {
	for _, id := range l.Participants() {
		if c, ok := m.registry.Resolve(id); ok {
			c.Write(msg)
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
