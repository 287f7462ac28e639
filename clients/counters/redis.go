package counters

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kava-labs/bundle-gateway/logging"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisCounters is an implementation of Counters that uses Redis as the backend.
type RedisCounters struct {
	client *redis.Client
	*logging.ServiceLogger
}

var _ Counters = (*RedisCounters)(nil)

func NewRedisCounters(
	cfg *RedisConfig,
	logger *logging.ServiceLogger,
) *RedisCounters {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCounters{
		client:        client,
		ServiceLogger: logger,
	}
}

// Increment adds one to the counter and resets its expiration to window
func (rc *RedisCounters) Increment(
	ctx context.Context,
	key string,
	window time.Duration,
) (int64, error) {
	rc.Logger.Trace().
		Str("key", key).
		Dur("window", window).
		Msg("incrementing counter in redis")

	var incr *redis.IntCmd
	_, err := rc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		rc.Logger.Error().
			Str("key", key).
			Err(err).
			Msg("error incrementing counter in redis")
		return 0, err
	}

	return incr.Val(), nil
}

// Get gets the value of the counter, 0 when it does not exist
func (rc *RedisCounters) Get(
	ctx context.Context,
	key string,
) (int64, error) {
	rc.Logger.Trace().
		Str("key", key).
		Msg("getting counter from redis")

	val, err := rc.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		rc.Logger.Error().
			Str("key", key).
			Err(err).
			Msg("error during getting counter from redis")
		return 0, err
	}

	return val, nil
}

func (rc *RedisCounters) Healthcheck(ctx context.Context) error {
	rc.Logger.Trace().Msg("redis healthcheck was called")

	_, err := rc.client.Ping(ctx).Result()
	if err != nil {
		rc.Logger.Error().
			Err(err).
			Msg("can't ping redis")
		return fmt.Errorf("error connecting to Redis: %v", err)
	}

	rc.Logger.Trace().Msg("redis healthcheck was successful")

	return nil
}
