// Command pandapouchd runs one node of the cache cluster: it loads
// configuration, opens the durable store, builds the ring and cache, and
// serves the RPC surface until a termination signal arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jiisanda/pandapouch/internal/config"
	"github.com/jiisanda/pandapouch/internal/health"
	"github.com/jiisanda/pandapouch/internal/metrics"
	"github.com/jiisanda/pandapouch/internal/peerclient"
	"github.com/jiisanda/pandapouch/internal/rpcserver"
	"github.com/jiisanda/pandapouch/internal/rpcservice"
	"github.com/jiisanda/pandapouch/internal/store"
	"github.com/jiisanda/pandapouch/lru"
	"github.com/jiisanda/pandapouch/peer"
	"github.com/jiisanda/pandapouch/ring"
)

const (
	cacheCapacity  = 10_000
	ringReplicas   = 10
	forwardTimeout = 5 * time.Second
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	log.Logger = logger

	configDir := os.Getenv("PANDAPOUCH_CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	self := peer.ID{Host: cfg.LocalAddr, Port: cfg.LocalPort}

	logger.Info().
		Str("self", self.String()).
		Str("log_level", cfg.LogLevel).
		Msg("starting pandapouch node")

	dataStore, err := store.New(cfg.Database.Name+".db", logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init durable store")
	}
	defer dataStore.Close()

	checker := health.NewChecker(logger)
	checker.Register("store", health.Critical, func(ctx context.Context) health.Status {
		if err := dataStore.DB().PingContext(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	m := metrics.New()

	cache := lru.New[string, string](cacheCapacity, lru.WithOnEvict[string, string](func(key, value string) {
		m.CacheEvictedTotal.Inc()
	}))
	hashRing := ring.New[peer.ID]([]peer.ID{self}, ringReplicas, nil)
	membership := rpcservice.NewMembership(self)

	checker.Register("ring", health.Advisory, func(ctx context.Context) health.Status {
		if hashRing.Len() == 0 {
			return health.StatusDown
		}
		if len(membership.Nodes()) <= 1 {
			return health.StatusDegraded
		}
		return health.StatusOK
	})

	m.SetRingNodesActive(float64(len(membership.Nodes())))

	forwarder := peerclient.New(forwardTimeout)
	svc := rpcservice.New(cache, hashRing, dataStore, membership, forwarder, m, logger)

	server := rpcserver.New(rpcserver.Config{
		ListenAddr: fmt.Sprintf(":%d", cfg.LocalPort),
	}, svc, checker, m, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Listen(); err != nil {
			logger.Error().Err(err).Msg("rpc server error")
		}
	}()

	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("rpc server shutdown error")
	}

	logger.Info().Msg("pandapouch node stopped")
}
