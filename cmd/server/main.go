package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/partyround/fishbowl/internal/config"
	"github.com/partyround/fishbowl/internal/database"
	"github.com/partyround/fishbowl/internal/game"
	"github.com/partyround/fishbowl/internal/migrations"
	"github.com/partyround/fishbowl/internal/presence"
	"github.com/partyround/fishbowl/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := game.NewStore(db)
	machine := game.NewMachine(store, rand.New(rand.NewSource(time.Now().UnixNano())))

	checks := map[string]server.Checker{
		"sqlite": dbChecker{db},
	}

	// --- Presence ---
	// With REDIS_URL set, presence leases live in redis and survive
	// restarts. Otherwise an in-process registry is enough for a single
	// instance.
	var registry presence.Registry
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		registry = presence.NewRedis(rdb, cfg.PresenceTTL)
		checks["redis"] = redisChecker{rdb}
	} else {
		registry = presence.NewMemory(cfg.PresenceTTL, func(playerID string) {
			// Heartbeats stopped without a clean socket close. Flip the
			// flag so the turn navigator skips this player.
			if err := store.SetPlayerConnected(context.Background(), playerID, false); err != nil {
				logger.Error("marking player disconnected", "playerId", playerID, "error", err)
			}
		})
	}
	defer registry.Close()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, machine, registry, checks)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to server.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to server.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
