// internal/lobby/helpers_test.go
package lobby

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/relay/internal/events"
	"github.com/sirupsen/logrus"
)

// scriptedRandom replays the symbol indices of the given codes, then returns 0.
type scriptedRandom struct {
	idx []int
	pos int
}

func newScriptedRandom(codes ...string) *scriptedRandom {
	r := &scriptedRandom{}
	for _, code := range codes {
		for i := 0; i < len(code); i++ {
			r.idx = append(r.idx, strings.IndexByte(CodeAlphabet, code[i]))
		}
	}
	return r
}

func (r *scriptedRandom) Intn(n int) int {
	if r.pos >= len(r.idx) {
		return 0
	}
	v := r.idx[r.pos]
	r.pos++
	return v
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type testEnv struct {
	manager   *Manager
	router    *Router
	clock     *fakeClock
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T, codes ...string) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)}
	pub := &recordingPublisher{}
	logger := quietLogger()
	m := NewManager(Options{
		Publisher: pub,
		Logger:    logger,
		Now:       clock.Now,
		Random:    newScriptedRandom(codes...),
	})
	return &testEnv{
		manager:   m,
		router:    NewRouter(m, logger),
		clock:     clock,
		publisher: pub,
	}
}

func newTestConn(name string) *Connection {
	return NewConnection(name, 64, nil)
}

// drain returns every message queued on conn so far.
func drain(conn *Connection) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case msg := <-conn.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func msgTypes(msgs []map[string]interface{}) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		t, _ := m["type"].(string)
		out = append(out, t)
	}
	return out
}
