package config

import (
	"os"
	"strconv"
)

const (
	redisAddrEnv     = "REDIS_ADDR"
	redisPasswordEnv = "REDIS_PASSWORD"
	redisDBEnv       = "REDIS_DB"
	redisPoolSizeEnv = "REDIS_POOL_SIZE"
	redisTLSEnv      = "REDIS_TLS"

	defaultRedisAddr     = "localhost:6379"
	defaultRedisDB       = 0
	defaultRedisPoolSize = 10
)

// RedisConfig holds the connection settings for the profile and
// pending-notification stores.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	TLS      bool
}

func LoadRedisConfig() (*RedisConfig, error) {
	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		addr = defaultRedisAddr
	}

	db := defaultRedisDB
	if raw := os.Getenv(redisDBEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrInvalidRedisDB
		}
		db = parsed
	}

	poolSize := defaultRedisPoolSize
	if raw := os.Getenv(redisPoolSizeEnv); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, ErrInvalidRedisPoolSize
		}
		poolSize = parsed
	}

	return &RedisConfig{
		Addr:     addr,
		Password: os.Getenv(redisPasswordEnv),
		DB:       db,
		PoolSize: poolSize,
		TLS:      os.Getenv(redisTLSEnv) == "true",
	}, nil
}

func (c *RedisConfig) Validate() error {
	if c == nil || c.Addr == "" {
		return ErrRedisAddrMissing
	}
	if c.PoolSize <= 0 {
		return ErrInvalidRedisPoolSize
	}
	return nil
}
