// internal/lobby/messages.go
package lobby

import "encoding/json"

// MessageType is the value of the "type" field on every frame.
type MessageType string

// Client to server.
const (
	TypeCreateLobby  MessageType = "create-lobby"
	TypeJoinLobby    MessageType = "join-lobby"
	TypeLobbyMessage MessageType = "lobby-message" // also the server's relay envelope
	TypeLeaveLobby   MessageType = "leave-lobby"
)

// Server to client.
const (
	TypeLobbyCreated       MessageType = "lobby-created"
	TypeJoinSuccess        MessageType = "join-success"
	TypeJoinFailed         MessageType = "join-failed"
	TypePlayerJoined       MessageType = "player-joined"
	TypeLobbyUpdate        MessageType = "lobby-update"
	TypePlayerDisconnected MessageType = "player-disconnected"
	TypePlayerLeft         MessageType = "player-left"
	TypeLobbyClosed        MessageType = "lobby-closed"
	TypeLobbyExpired       MessageType = "lobby-expired"
	TypeError              MessageType = "error"
)

// InboundMessage is a decoded client frame. Unused fields stay zero.
type InboundMessage struct {
	Type     MessageType     `json:"type"`
	PlayerID string          `json:"playerId,omitempty"`
	Code     string          `json:"code,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

func newLobbyCreated(code, hostID string) map[string]interface{} {
	return map[string]interface{}{
		"type":   string(TypeLobbyCreated),
		"code":   code,
		"hostId": hostID,
	}
}

func newJoinSuccess(code, playerID, hostID string) map[string]interface{} {
	return map[string]interface{}{
		"type":     string(TypeJoinSuccess),
		"code":     code,
		"playerId": playerID,
		"hostId":   hostID,
	}
}

func newJoinFailed(reason string) map[string]interface{} {
	return map[string]interface{}{
		"type":    string(TypeJoinFailed),
		"message": reason,
	}
}

func newPlayerJoined(playerID, code string) map[string]interface{} {
	return map[string]interface{}{
		"type":     string(TypePlayerJoined),
		"playerId": playerID,
		"code":     code,
	}
}

func newLobbyUpdate(l *Lobby) map[string]interface{} {
	players := make([]string, len(l.Members))
	copy(players, l.Members)
	return map[string]interface{}{
		"type": string(TypeLobbyUpdate),
		"lobby": map[string]interface{}{
			"code":        l.Code,
			"host":        l.HostID,
			"players":     players,
			"playerCount": l.PlayerCount(),
		},
	}
}

func newRelayEnvelope(code string, data json.RawMessage) map[string]interface{} {
	if data == nil {
		data = json.RawMessage("null")
	}
	return map[string]interface{}{
		"type": string(TypeLobbyMessage),
		"code": code,
		"data": data,
	}
}

func newPlayerDisconnected(playerID string) map[string]interface{} {
	return map[string]interface{}{
		"type":     string(TypePlayerDisconnected),
		"playerId": playerID,
	}
}

func newPlayerLeft(playerID, code string) map[string]interface{} {
	return map[string]interface{}{
		"type":     string(TypePlayerLeft),
		"playerId": playerID,
		"code":     code,
	}
}

func newLobbyClosed(code, reason string) map[string]interface{} {
	return map[string]interface{}{
		"type":   string(TypeLobbyClosed),
		"code":   code,
		"reason": reason,
	}
}

func newLobbyExpired(code string) map[string]interface{} {
	return map[string]interface{}{
		"type": string(TypeLobbyExpired),
		"code": code,
	}
}

func newError(reason string) map[string]interface{} {
	return map[string]interface{}{
		"type":    string(TypeError),
		"message": reason,
	}
}

// presenceUpdate extracts a role/status pair from a relay payload. Anything
// that is not an object with two non-empty string fields is ignored.
func presenceUpdate(data json.RawMessage) (role, status string, ok bool) {
	if len(data) == 0 {
		return "", "", false
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", "", false
	}
	role, _ = fields["role"].(string)
	status, _ = fields["status"].(string)
	if role == "" || status == "" {
		return "", "", false
	}
	return role, status, true
}
