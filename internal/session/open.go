// internal/session/open.go
//
// Driver selection from config.

package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/config"
	"github.com/yanizio/jobboard/internal/database"
)

// Open builds the Backend named by cfg.Driver.  The mysql driver applies its
// migrations before returning; the redis driver pings the server.
func Open(ctx context.Context, cfg config.Session) (Backend, error) {
	switch cfg.Driver {
	case "", "memory":
		zap.L().Info("session backend online", zap.String("driver", "memory"),
			zap.Int("max_entries", cfg.MaxEntries))
		return NewMemory(cfg.MaxEntries), nil

	case "mysql":
		db, err := database.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("session mysql: %w", err)
		}
		b := NewMySQL(db)
		if err := b.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("session mysql migrate: %w", err)
		}
		zap.L().Info("session backend online", zap.String("driver", "mysql"))
		return b, nil

	case "redis":
		cli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := cli.Ping(ctx).Err(); err != nil {
			_ = cli.Close()
			return nil, fmt.Errorf("session redis: %w", err)
		}
		zap.L().Info("session backend online", zap.String("driver", "redis"),
			zap.String("addr", cfg.RedisAddr))
		return NewRedis(cli, cfg.MaxAge), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}
