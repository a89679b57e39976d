// internal/events/events_test.go
package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithDetailCopies(t *testing.T) {
	base := New(JoinFailed, "ABC234", "p1", time.UnixMilli(42))
	a := base.WithDetail("reason", "Lobby is full")
	b := a.WithDetail("attempt", "2")

	assert.Nil(t, base.Detail)
	assert.Equal(t, map[string]string{"reason": "Lobby is full"}, a.Detail)
	assert.Equal(t, map[string]string{"reason": "Lobby is full", "attempt": "2"}, b.Detail)
	assert.Equal(t, int64(42), base.Timestamp)
	assert.NotEqual(t, New(JoinFailed, "", "", time.Now()).ID, base.ID)
}
