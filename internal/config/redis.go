package config

// Redis backs the rate limiter and the response cache. Both degrade to
// pass-through when the server cannot be reached at startup.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds the connection settings.
//
//	REDIS_URL      – redis:// or rediss:// URL; wins over the fields below
//	REDIS_ADDR     – host:port (default localhost:6379)
//	REDIS_PASSWORD – optional password
//	REDIS_DB       – database number (default 0)
//	REDIS_TLS      – enable TLS
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	TLS      bool
}

func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      envStr("REDIS_URL", ""),
		Addr:     envStr("REDIS_ADDR", "localhost:6379"),
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
	}
}

func (c RedisConfig) options() (*redis.Options, error) {
	if c.URL != "" {
		return redis.ParseURL(c.URL)
	}
	opts := &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// NewRedisClient connects and pings with a short timeout. It returns nil
// when Redis is unreachable; callers treat nil as "feature disabled".
func NewRedisClient(cfg RedisConfig, log *zap.Logger) *redis.Client {
	opts, err := cfg.options()
	if err != nil {
		log.Warn("invalid redis configuration; cache and rate limit disabled", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable; cache and rate limit disabled", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
