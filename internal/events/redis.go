// internal/events/redis.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list lobby events are pushed to.
const DefaultQueueName = "relay_lobby_events"

// DefaultBuffer is how many events may wait for Redis before new ones are dropped.
const DefaultBuffer = 256

// RedisPublisher queues events in memory and pushes them to a Redis list from a
// single background loop.
type RedisPublisher struct {
	rdb    *redis.Client
	queue  string
	ch     chan Event
	logger logrus.FieldLogger
}

// NewRedisPublisher wraps an existing client. Call Run to start delivery.
func NewRedisPublisher(rdb *redis.Client, queue string, buffer int, logger logrus.FieldLogger) *RedisPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &RedisPublisher{
		rdb:    rdb,
		queue:  queue,
		ch:     make(chan Event, buffer),
		logger: logger,
	}
}

// Connect creates a client for addr and verifies it with PING.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publish enqueues ev, dropping it if the buffer is full.
func (p *RedisPublisher) Publish(ev Event) {
	select {
	case p.ch <- ev:
	default:
		p.logger.WithFields(logrus.Fields{
			"event": ev.Type,
			"code":  ev.Code,
		}).Warn("event buffer full, dropping lobby event")
	}
}

// Run pushes queued events until ctx is done, then drains what is left.
func (p *RedisPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case ev := <-p.ch:
			if err := p.push(ctx, ev); err != nil {
				p.logger.WithError(err).Warn("failed to publish lobby event")
			}
		}
	}
}

func (p *RedisPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-p.ch:
			if err := p.push(ctx, ev); err != nil {
				p.logger.WithError(err).Warn("failed to publish lobby event during shutdown")
				return
			}
		default:
			return
		}
	}
}

func (p *RedisPublisher) push(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby event: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
