// internal/lobby/lobby.go
package lobby

import "time"

// DefaultCapacity is the number of participants a lobby holds, host included.
const DefaultCapacity = 2

// Lobby is a short-lived session keyed by a shareable code. It refers to
// participants by identity only; connections are looked up in the
// ConnectionRegistry at send time.
type Lobby struct {
	Code      string
	HostID    string
	Members   []string // joined non-host identities, in join order
	CreatedAt time.Time
	Capacity  int

	// StatusByRole holds the last presence status reported per role label.
	StatusByRole map[string]string
}

// NewLobby creates an open lobby with no members.
func NewLobby(code, hostID string, capacity int, createdAt time.Time) *Lobby {
	if capacity < 2 {
		capacity = DefaultCapacity
	}
	return &Lobby{
		Code:         code,
		HostID:       hostID,
		Members:      []string{},
		CreatedAt:    createdAt,
		Capacity:     capacity,
		StatusByRole: make(map[string]string),
	}
}

// IsFull reports whether no further member can join.
func (l *Lobby) IsFull() bool {
	return len(l.Members) >= l.Capacity-1
}

// PlayerCount is the number of participants including the host.
func (l *Lobby) PlayerCount() int {
	return len(l.Members) + 1
}

// HasMember reports whether identity is the host or a joined member.
func (l *Lobby) HasMember(identity string) bool {
	if l.HostID == identity {
		return true
	}
	return l.indexOf(identity) >= 0
}

// Participants returns the host followed by every member.
func (l *Lobby) Participants() []string {
	out := make([]string, 0, len(l.Members)+1)
	out = append(out, l.HostID)
	return append(out, l.Members...)
}

func (l *Lobby) addMember(identity string) {
	l.Members = append(l.Members, identity)
}

// removeMember drops identity from Members, reporting whether it was there.
func (l *Lobby) removeMember(identity string) bool {
	i := l.indexOf(identity)
	if i < 0 {
		return false
	}
	l.Members = append(l.Members[:i], l.Members[i+1:]...)
	return true
}

func (l *Lobby) indexOf(identity string) int {
	for i, m := range l.Members {
		if m == identity {
			return i
		}
	}
	return -1
}

// Expired reports whether the lobby has outlived ttl at now.
func (l *Lobby) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(l.CreatedAt) > ttl
}

// Snapshot is the point-in-time view of a lobby exposed over HTTP.
type Snapshot struct {
	Code         string            `json:"code"`
	Host         string            `json:"host"`
	Players      []string          `json:"players"`
	PlayerCount  int               `json:"playerCount"`
	Capacity     int               `json:"capacity"`
	CreatedAt    time.Time         `json:"createdAt"`
	StatusByRole map[string]string `json:"statusByRole"`
}

// Snapshot copies the lobby so it can be read without the manager lock.
func (l *Lobby) Snapshot() Snapshot {
	players := make([]string, len(l.Members))
	copy(players, l.Members)
	status := make(map[string]string, len(l.StatusByRole))
	for k, v := range l.StatusByRole {
		status[k] = v
	}
	return Snapshot{
		Code:         l.Code,
		Host:         l.HostID,
		Players:      players,
		PlayerCount:  l.PlayerCount(),
		Capacity:     l.Capacity,
		CreatedAt:    l.CreatedAt,
		StatusByRole: status,
	}
}
