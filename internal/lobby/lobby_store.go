// internal/lobby/lobby_store.go
package lobby

import (
	"fmt"
	"sort"
	"sync"
)

// LobbyStore holds the live lobbies keyed by code. It only enforces code
// uniqueness; membership rules belong to the Manager.
type LobbyStore struct {
	mu      sync.Mutex        // Protects access to the lobbies map.
	lobbies map[string]*Lobby // Map of lobby code to Lobby.
}

// NewLobbyStore initializes and returns an empty LobbyStore.
func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*Lobby),
	}
}

// Create inserts a new lobby. It fails with ErrCodeCollision if the code is taken.
func (s *LobbyStore) Create(lobby *Lobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.lobbies[lobby.Code]; exists {
		return fmt.Errorf("create lobby %s: %w", lobby.Code, ErrCodeCollision)
	}
	s.lobbies[lobby.Code] = lobby
	return nil
}

// Get retrieves a lobby by code.
func (s *LobbyStore) Get(code string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lobbies[code]
	return l, ok
}

// Remove deletes a lobby. Removing an absent code is a no-op.
func (s *LobbyStore) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, code)
}

// ForEach calls visit for every lobby in code order until visit returns false.
// It iterates over a copy, so visit may remove lobbies from the store.
func (s *LobbyStore) ForEach(visit func(*Lobby) bool) {
	s.mu.Lock()
	list := make([]*Lobby, 0, len(s.lobbies))
	for _, l := range s.lobbies {
		list = append(list, l)
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	for _, l := range list {
		if !visit(l) {
			return
		}
	}
}

// Len returns the number of live lobbies.
func (s *LobbyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lobbies)
}
