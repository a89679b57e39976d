// internal/lobby/connection_test.go
package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionWriteDropsWhenFull(t *testing.T) {
	conn := NewConnection("c", 2, nil)

	conn.Write(map[string]interface{}{"type": "a"})
	conn.Write(map[string]interface{}{"type": "b"})
	conn.Write(map[string]interface{}{"type": "c"})

	assert.Equal(t, []string{"a", "b"}, msgTypes(drain(conn)))
}

func TestConnectionCloseStopsWritesAndCancelsOnce(t *testing.T) {
	cancels := 0
	conn := NewConnection("c", 4, func() { cancels++ })

	conn.Close("first")
	conn.Close("second")
	conn.WriteError("late")

	assert.Equal(t, 1, cancels)
	assert.Equal(t, "first", conn.CloseReason())
	assert.Empty(t, drain(conn))
	select {
	case <-conn.Done():
	default:
		t.Fatal("Done should be closed")
	}
}

func TestNewConnectionDefaults(t *testing.T) {
	conn := NewConnection("1.2.3.4:5", 0, nil)
	require.NotEmpty(t, conn.ID)
	assert.Equal(t, DefaultOutboundBuffer, cap(conn.OutChan))
	assert.Equal(t, "", conn.CloseReason())
}
