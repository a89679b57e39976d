// internal/historian/historian.go

// Package historian drains lobby events from the Redis queue and archives
// them in Postgres in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/relay/internal/events"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultBatchSize     = 20
	DefaultFlushInterval = 500 * time.Millisecond
	DefaultPopTimeout    = 3 * time.Second

	// pendingFactor times BatchSize is how many unflushed events are kept
	// while the store is failing.
	pendingFactor = 10
)

// Store persists a batch of events atomically.
type Store interface {
	InsertLobbyEvents(ctx context.Context, batch []events.Event) error
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	PopTimeout    time.Duration
	Logger        logrus.FieldLogger
}

// Service pops events with BLPOP, accumulates them and flushes each batch to
// the store when it fills up or the flush interval passes.
type Service struct {
	rdb   *redis.Client
	store Store

	queue      string
	batchSize  int
	flushDelay time.Duration
	popTimeout time.Duration
	logger     logrus.FieldLogger

	batch []events.Event
}

// New builds a Service reading from rdb and writing to store.
func New(rdb *redis.Client, store Store, opts Options) *Service {
	s := &Service{
		rdb:        rdb,
		store:      store,
		queue:      opts.Queue,
		batchSize:  opts.BatchSize,
		flushDelay: opts.FlushInterval,
		popTimeout: opts.PopTimeout,
		logger:     opts.Logger,
	}
	if s.queue == "" {
		s.queue = events.DefaultQueueName
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.flushDelay <= 0 {
		s.flushDelay = DefaultFlushInterval
	}
	if s.popTimeout <= 0 {
		s.popTimeout = DefaultPopTimeout
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	s.batch = make([]events.Event, 0, s.batchSize)
	return s
}

// Run consumes the queue until ctx is done, then flushes whatever is left.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	s.logger.WithField("queue", s.queue).Info("historian started")
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			s.flush(ctx)
		default:
			s.popOne(ctx)
		}
	}
}

func (s *Service) popOne(ctx context.Context) {
	payload, err := s.pop(ctx)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// queue drained; do not hold a partial batch until the next tick
			if !s.flush(ctx) {
				s.backoff(ctx)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.WithError(err).Error("failed to pop lobby event")
		s.backoff(ctx)
		return
	}

	var ev events.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.WithError(err).Warn("invalid lobby event record")
		return
	}
	s.batch = append(s.batch, ev)
	if len(s.batch) >= s.batchSize && !s.flush(ctx) {
		s.backoff(ctx)
	}
}

// pop blocks for the next record while nothing is pending. With events
// pending it only takes what is already queued, so an idle queue flushes the
// batch right away instead of after the BLPOP timeout.
func (s *Service) pop(ctx context.Context) (string, error) {
	if len(s.batch) > 0 {
		return s.rdb.LPop(ctx, s.queue).Result()
	}
	res, err := s.rdb.BLPop(ctx, s.popTimeout, s.queue).Result()
	if err != nil {
		return "", err
	}
	// res[0] is the queue name and res[1] the payload
	if len(res) < 2 {
		return "", redis.Nil
	}
	return res[1], nil
}

// backoff waits one flush interval so a dead Redis or store does not spin the loop.
func (s *Service) backoff(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.flushDelay):
	}
}

// flush writes the pending batch and reports whether nothing is left. A
// failed batch is kept for the next attempt.
func (s *Service) flush(ctx context.Context) bool {
	if len(s.batch) == 0 {
		return true
	}
	if err := s.store.InsertLobbyEvents(ctx, s.batch); err != nil {
		s.logger.WithError(err).WithField("pending", len(s.batch)).Error("failed to flush lobby events")
		if limit := s.batchSize * pendingFactor; len(s.batch) > limit {
			dropped := len(s.batch) - limit
			s.batch = append(s.batch[:0], s.batch[dropped:]...)
			s.logger.WithField("dropped", dropped).Warn("pending lobby events over limit, dropping oldest")
		}
		return false
	}
	s.logger.WithField("count", len(s.batch)).Debug("flushed lobby events")
	s.batch = s.batch[:0]
	return true
}

func (s *Service) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.flush(ctx)
	s.logger.Info("historian stopped")
}

// Pending reports how many events are waiting to be flushed. Only safe to
// call when Run is not active.
func (s *Service) Pending() int {
	return len(s.batch)
}
