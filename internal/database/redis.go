package database

import (
	"context"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const revokedTokenPrefix = "revoked_token:"

// InitRedis connects to Redis. An empty address or a failed ping leaves Redis
// nil: token revocation and the cross-instance feed relay are then disabled.
func InitRedis(addr, password string) {
	if addr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, token revocation and feed relay disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if _, err := client.Ping(Ctx).Result(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).Msg("Failed to connect to Redis, token revocation and feed relay disabled")
		_ = client.Close()
		return
	}

	Redis = client
	logger.Info().Str("addr", addr).Msg("Connected to Redis successfully")
}

// BlacklistToken revokes a token id for the rest of its lifetime.
func BlacklistToken(jti string, ttl time.Duration) error {
	if Redis == nil || jti == "" {
		return nil
	}
	return Redis.Set(Ctx, revokedTokenPrefix+jti, "1", ttl).Err()
}

// IsTokenBlacklisted fails open when Redis is unavailable.
func IsTokenBlacklisted(jti string) bool {
	if Redis == nil || jti == "" {
		return false
	}
	n, err := Redis.Exists(Ctx, revokedTokenPrefix+jti).Result()
	if err != nil {
		logger.Warn().Err(err).Msg("Token revocation lookup failed")
		return false
	}
	return n > 0
}
