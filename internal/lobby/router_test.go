// internal/lobby/router_test.go
package lobby

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterRejectsMalformedFrames(t *testing.T) {
	env := newTestEnv(t, "AB23CD")
	conn := newTestConn("c")

	for _, raw := range []string{`not json`, `{"type":`, `"create-lobby"`, `{"type":"join-lobby","code":42}`} {
		env.router.HandleMessage(conn, []byte(raw))
	}

	msgs := drain(conn)
	require.Len(t, msgs, 4)
	for _, m := range msgs {
		assert.Equal(t, map[string]interface{}{"type": "error", "message": "Invalid message format"}, m)
	}
	lobbies, identities := env.manager.Stats()
	assert.Equal(t, 0, lobbies)
	assert.Equal(t, 0, identities)
}

func TestRouterIgnoresUnknownTypes(t *testing.T) {
	env := newTestEnv(t, "AB23CD")
	conn := newTestConn("c")

	env.router.HandleMessage(conn, []byte(`{"type":"start-race","code":"AB23CD"}`))
	env.router.HandleMessage(conn, []byte(`{}`))

	assert.Empty(t, drain(conn))
}

func TestRouterDispatchesFullFlow(t *testing.T) {
	env := newTestEnv(t, "AB23CD")
	host := newTestConn("host")
	joiner := newTestConn("joiner")

	env.router.HandleMessage(host, []byte(`{"type":"create-lobby","playerId":"host_1"}`))
	env.router.HandleMessage(joiner, []byte(`{"type":"join-lobby","code":"AB23CD","playerId":"p2"}`))
	env.router.HandleMessage(joiner, []byte(`{"type":"lobby-message","code":"AB23CD","data":{"lap":2,"pos":[1.5,-3]}}`))

	assert.Equal(t, []string{"lobby-created", "player-joined", "lobby-update", "lobby-message"}, msgTypes(drain(host)))
	joinerMsgs := drain(joiner)
	require.Equal(t, []string{"join-success", "lobby-update", "lobby-message"}, msgTypes(joinerMsgs))
	assert.Equal(t, json.RawMessage(`{"lap":2,"pos":[1.5,-3]}`), joinerMsgs[2]["data"])

	env.router.HandleMessage(joiner, []byte(`{"type":"leave-lobby","code":"AB23CD"}`))
	assert.Equal(t, []string{"player-left", "lobby-update"}, msgTypes(drain(host)))

	env.router.HandleClose(host)
	lobbies, _ := env.manager.Stats()
	assert.Equal(t, 0, lobbies)
}

func TestRouterCreateWithoutPlayerID(t *testing.T) {
	env := newTestEnv(t, "AB23CD")
	conn := newTestConn("c")

	env.router.HandleMessage(conn, []byte(`{"type":"create-lobby"}`))

	msgs := drain(conn)
	require.Len(t, msgs, 1)
	assert.Equal(t, "lobby-created", msgs[0]["type"])
	assert.NotEmpty(t, msgs[0]["hostId"])
}
