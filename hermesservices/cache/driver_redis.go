package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type DriverRedisConfig struct {
	Host   string
	Number int
	Pass   string
	Port   int
	User   string
}

func (config DriverRedisConfig) addr() string {
	return net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
}

// NewDriverRedis connects to a redis compatible server and fails when the
// server does not answer a PING.
func NewDriverRedis(ctx context.Context, config DriverRedisConfig) (Driver, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        config.addr(),
		Username:    config.User,
		Password:    config.Pass,
		DB:          config.Number,
		DialTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("cache: reaching redis at %s: %w", config.addr(), err)
	}

	return &driverRedis{client: client}, nil
}

// extendScript sets a new TTL on KEYS[1] only while it holds ARGV[1].
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type driverRedis struct {
	client *redis.Client
}

func (driver *driverRedis) Get(ctx context.Context, key string) (string, error) {
	value, err := driver.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return value, err
}

func (driver *driverRedis) Set(ctx context.Context, key string, value string, duration time.Duration) error {
	return driver.client.Set(ctx, key, value, duration).Err()
}

// Claim is SET NX, so only one of several racing instances wins a key.
func (driver *driverRedis) Claim(ctx context.Context, key string, value string, duration time.Duration) (bool, error) {
	return driver.client.SetNX(ctx, key, value, duration).Result()
}

func (driver *driverRedis) Delete(ctx context.Context, key string) error {
	return driver.client.Del(ctx, key).Err()
}

func (driver *driverRedis) Extend(ctx context.Context, key string, value string, duration time.Duration) (bool, error) {
	extended, err := extendScript.Run(ctx, driver.client, []string{key}, value, duration.Milliseconds()).Int()
	if err != nil {
		return false, err
	}

	return extended == 1, nil
}
