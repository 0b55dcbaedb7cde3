package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hackgods/clinic-appointment-booking/internal/config"
	"github.com/hackgods/clinic-appointment-booking/internal/db"
	redisclient "github.com/hackgods/clinic-appointment-booking/internal/redis"
)

// Opened is a ready store plus what the process needs to watch and release it.
type Opened struct {
	Store *Store
	// Checks are readiness probes keyed by dependency name.
	Checks map[string]func(ctx context.Context) error
	Close  func()
}

// Open connects the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Opened, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		if err := db.EnsureSchema(pgCtx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		logger.Info("connected to Postgres")
		return &Opened{
			Store:  NewStore(NewPostgresBackend(pool)),
			Checks: map[string]func(context.Context) error{"postgres": pool.Ping},
			Close:  pool.Close,
		}, nil

	case config.BackendRedis:
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		logger.Info("connected to Redis", "addr", cfg.RedisAddr)
		return &Opened{
			Store: NewStore(NewRedisBackend(rdb, redisclient.NewRedisLocker(rdb, cfg.LockTTL))),
			Checks: map[string]func(context.Context) error{
				"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			},
			Close: func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("error closing redis", "error", err)
				}
			},
		}, nil

	default:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		return &Opened{
			Store: NewStore(NewFileBackend(cfg.DataDir)),
			Checks: map[string]func(context.Context) error{
				"data_dir": func(context.Context) error {
					_, err := os.Stat(cfg.DataDir)
					return err
				},
			},
			Close: func() {},
		}, nil
	}
}
