// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Close statuses the lobby transport sends.
const (
	// StatusSuperseded closes a connection whose identity was claimed by a newer one.
	StatusSuperseded = websocket.StatusPolicyViolation
	// StatusShutdown closes every connection when the server stops.
	StatusShutdown = websocket.StatusGoingAway
	// StatusClosing is sent when the server side tears down a connection for any other reason.
	StatusClosing = websocket.StatusNormalClosure
)

// maxFrameBytes caps a single inbound frame.
const maxFrameBytes = 64 << 10
