// internal/lobby/errors.go
package lobby

import "errors"

var (
	// ErrCodeCollision is returned by LobbyStore.Create when the code is already live.
	ErrCodeCollision = errors.New("lobby code already in use")
	// ErrCodeSpaceExhausted means every generated candidate collided with a live lobby.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique lobby code")
)

// Reason strings sent to clients in join-failed and error messages.
const (
	ReasonLobbyNotFound    = "Lobby not found"
	ReasonLobbyFull        = "Lobby is full"
	ReasonInvalidFormat    = "Invalid message format"
	ReasonIdentityRequired = "Identity required"
	ReasonCreateFailed     = "Failed to create lobby"
	ReasonNotMember        = "Not a member of this lobby"
)
