// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/relay/internal/config"
	"github.com/jason-s-yu/relay/internal/events"
	"github.com/jason-s-yu/relay/internal/handlers"
	"github.com/jason-s-yu/relay/internal/lobby"
	"github.com/jason-s-yu/relay/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, cfgErr := config.Load()
	logger := cfg.NewLogger()
	if cfgErr != nil {
		logger.WithError(cfgErr).Warn("invalid configuration values replaced with defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// background loops run until shutdown completes, not until the signal
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	var publisher events.Publisher = events.Nop{}
	publisherDone := make(chan struct{})
	if cfg.RedisAddr != "" {
		rdb, err := events.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("event publishing disabled")
			close(publisherDone)
		} else {
			defer rdb.Close()
			rp := events.NewRedisPublisher(rdb, cfg.EventsQueue, events.DefaultBuffer, logger)
			publisher = rp
			go func() {
				defer close(publisherDone)
				rp.Run(bgCtx)
			}()
			logger.WithField("queue", cfg.EventsQueue).Info("publishing lobby events to Redis")
		}
	} else {
		close(publisherDone)
	}

	manager := lobby.NewManager(lobby.Options{
		Capacity:      cfg.LobbyCapacity,
		TTL:           cfg.LobbyTTL,
		SweepInterval: cfg.SweepInterval,
		CodeLength:    cfg.CodeLength,
		Publisher:     publisher,
		Logger:        logger,
	})
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		manager.RunSweeper(bgCtx)
	}()

	ws := handlers.NewLobbyWS(lobby.NewRouter(manager, logger), logger, handlers.WSOptions{
		OriginPatterns: cfg.OriginPatterns,
		OutboundBuffer: cfg.OutboundBuffer,
		PingInterval:   cfg.PingInterval,
	})

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()
	mux.Handle("/healthz", logged(handlers.HealthHandler(manager)))
	mux.Handle("/lobbies", logged(handlers.ListLobbiesHandler(manager)))
	mux.Handle("/ws", logged(ws))
	mux.Handle("/", logged(ws))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}
	logger.WithFields(logrus.Fields{
		"addr":     l.Addr().String(),
		"capacity": cfg.LobbyCapacity,
		"ttl":      cfg.LobbyTTL,
	}).Info("lobby relay listening")

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("failed to serve")
		}
	case <-ctx.Done():
		logger.Info("terminating")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http shutdown incomplete")
	}
	ws.CloseAll()

	cancelBg()
	<-sweeperDone
	<-publisherDone
	logger.Info("shutdown complete")
}
