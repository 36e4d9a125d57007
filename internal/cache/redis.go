package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
)

// Redis is an Adapter for server-side deployments where the "device-local"
// tier is a co-located redis rather than a file on disk. Entries carry no
// TTL: the store never expires cached documents, it only overwrites them.
type Redis struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewRedis(addr, prefix string, log *logger.Logger) (*Redis, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis addr required")
	}
	if prefix == "" {
		prefix = "letterloop"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, r.prefix+":"+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, r.prefix+":"+key, value, 0).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
