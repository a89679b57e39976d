// internal/events/redis_test.go
package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type RedisPublisherSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	logger *logrus.Logger
	hook   *test.Hook
}

func TestRedisPublisherSuite(t *testing.T) {
	suite.Run(t, new(RedisPublisherSuite))
}

func (s *RedisPublisherSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.logger, s.hook = test.NewNullLogger()
}

func (s *RedisPublisherSuite) TearDownTest() {
	_ = s.rdb.Close()
}

func (s *RedisPublisherSuite) queued(queue string) []Event {
	if !s.mr.Exists(queue) {
		return nil
	}
	raw, err := s.mr.List(queue)
	s.Require().NoError(err)
	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var ev Event
		s.Require().NoError(json.Unmarshal([]byte(item), &ev))
		out = append(out, ev)
	}
	return out
}

func (s *RedisPublisherSuite) TestRunPushesEventsInOrder() {
	p := NewRedisPublisher(s.rdb, "", 8, s.logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	at := time.UnixMilli(1_700_000_000_000)
	p.Publish(New(LobbyCreated, "ABC234", "host_1", at))
	p.Publish(New(PlayerJoined, "ABC234", "guest_1", at).WithDetail("seat", "1"))

	s.Eventually(func() bool {
		return len(s.queued(DefaultQueueName)) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	got := s.queued(DefaultQueueName)
	s.Equal(LobbyCreated, got[0].Type)
	s.Equal("host_1", got[0].PlayerID)
	s.Equal(at.UnixMilli(), got[0].Timestamp)
	s.Equal(PlayerJoined, got[1].Type)
	s.Equal("1", got[1].Detail["seat"])
}

func (s *RedisPublisherSuite) TestShutdownDrainsBufferedEvents() {
	p := NewRedisPublisher(s.rdb, "custom_queue", 8, s.logger)
	for i := 0; i < 3; i++ {
		p.Publish(New(LobbyExpired, "XYZ789", "", time.Now()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Run(ctx)

	s.Len(s.queued("custom_queue"), 3)
}

func (s *RedisPublisherSuite) TestPublishDropsWhenBufferFull() {
	p := NewRedisPublisher(s.rdb, "", 1, s.logger)
	p.Publish(New(LobbyCreated, "AAAAAA", "h", time.Now()))
	p.Publish(New(LobbyCreated, "BBBBBB", "h", time.Now()))

	entry := s.hook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(logrus.WarnLevel, entry.Level)
	s.Equal("BBBBBB", entry.Data["code"])
}

func (s *RedisPublisherSuite) TestConnect() {
	rdb, err := Connect(context.Background(), s.mr.Addr(), 0)
	s.Require().NoError(err)
	s.NoError(rdb.Close())

	addr := s.mr.Addr()
	s.mr.Close()
	_, err = Connect(context.Background(), addr, 0)
	s.Error(err)
}
