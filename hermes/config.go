package hermes

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/lunagic/hermes/hermesservices/cache"
	"github.com/lunagic/hermes/hermesservices/media"
	"github.com/lunagic/hermes/hermesservices/queue"
	"github.com/lunagic/hermes/hermesservices/storage"
	"github.com/lunagic/hermes/hermesservices/vault"
)

type Config struct {
	// App
	AppHTTPHost string `env:"APP_HTTP_HOST"`
	AppHTTPPort int    `env:"APP_HTTP_PORT"`
	AppKey      string `env:"APP_KEY"`
	AppLogLevel string `env:"APP_LOG_LEVEL"`
	// App Drivers
	AppDriverStorage string `env:"APP_DRIVER_STORAGE"`
	AppDriverCache   string `env:"APP_DRIVER_CACHE"`
	AppDriverQueue   string `env:"APP_DRIVER_QUEUE"`
	// Media
	InputBucket  string `env:"INPUT_BUCKET"`
	OutputBucket string `env:"OUTPUT_BUCKET"`
	SweepPrefix  string `env:"SWEEP_PREFIX"`
	// SWEEP_MAX_AGE and SWEEP_INTERVAL, see durationSettings
	SweepMaxAge   time.Duration
	SweepInterval time.Duration
	// Services
	AmazonS3AccessKeyID     string `env:"AMAZON_S3_ACCESS_KEY_ID"`
	AmazonS3AccessKeySecret string `env:"AMAZON_S3_ACCESS_KEY_SECRET"`
	AmazonS3Endpoint        string `env:"AMAZON_S3_ENDPOINT"`
	AmazonS3Region          string `env:"AMAZON_S3_REGION"`
	LocalStorageDirectory   string `env:"LOCAL_STORAGE_DIRECTORY"`
	LocalStorageEndpoint    string `env:"LOCAL_STORAGE_ENDPOINT"`
	MinioAccessKey          string `env:"MINIO_ACCESS_KEY"`
	MinioEndpoint           string `env:"MINIO_ENDPOINT"`
	MinioPublicBase         string `env:"MINIO_PUBLIC_BASE"`
	MinioRegion             string `env:"MINIO_REGION"`
	MinioSecretKey          string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL             bool   `env:"MINIO_USE_SSL"`
	RabbitMQHost            string `env:"RABBITMQ_HOST"`
	RabbitMQPass            string `env:"RABBITMQ_PASS"`
	RabbitMQPort            int    `env:"RABBITMQ_PORT"`
	RabbitMQUser            string `env:"RABBITMQ_USER"`
	RedisHost               string `env:"REDIS_HOST"`
	RedisNumber             int    `env:"REDIS_NUMBER"`
	RedisPass               string `env:"REDIS_PASS"`
	RedisPort               int    `env:"REDIS_PORT"`
	RedisUser               string `env:"REDIS_USER"`
}

func NewDefaultConfig() Config {
	return Config{
		AppDriverCache:        "memory",
		AppDriverQueue:        "memory",
		AppDriverStorage:      "local",
		AppHTTPHost:           "0.0.0.0",
		AppHTTPPort:           2291,
		AppLogLevel:           "info",
		InputBucket:           "input",
		OutputBucket:          "output",
		LocalStorageDirectory: "storage",
		LocalStorageEndpoint:  "http://127.0.0.1:2291" + LocalStoragePrefix,
		MinioEndpoint:         "127.0.0.1:9000",
		RabbitMQHost:          "127.0.0.1",
		RabbitMQPort:          5672,
		RedisHost:             "127.0.0.1",
		RedisPort:             6379,
		SweepMaxAge:           time.Hour * 24,
		SweepInterval:         time.Hour,
	}
}

// LocalStoragePrefix is where the local storage driver is mounted when it is
// the configured storage driver.
const LocalStoragePrefix = "/storage"

func (config Config) ListenAddr() string {
	return net.JoinHostPort(config.AppHTTPHost, strconv.Itoa(config.AppHTTPPort))
}

func (config Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.AppLogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (config Config) Vault() vault.Vault {
	return vault.New([]byte(config.AppKey))
}

func (config Config) Buckets() media.Buckets {
	return media.Buckets{
		Input:  config.InputBucket,
		Output: config.OutputBucket,
	}
}

// Storage builds the configured object store client. It is meant to be called
// once at startup and shared.
func (config Config) Storage(ctx context.Context) (storage.Driver, error) {
	switch config.AppDriverStorage {
	case "local":
		driver, err := storage.NewDriverLocal(
			config.LocalStorageDirectory,
			config.Vault(),
			config.InputBucket,
			config.OutputBucket,
		)
		if err != nil {
			return nil, err
		}
		driver.BaseEndpoint = config.LocalStorageEndpoint

		return driver, nil
	case "s3":
		return storage.NewDriverS3(ctx, storage.S3Config{
			Endpoint:        config.AmazonS3Endpoint,
			Region:          config.AmazonS3Region,
			AccessKeyID:     config.AmazonS3AccessKeyID,
			AccessKeySecret: config.AmazonS3AccessKeySecret,
		})
	case "minio":
		return storage.NewDriverMinio(storage.MinioConfig{
			Endpoint:   config.MinioEndpoint,
			AccessKey:  config.MinioAccessKey,
			SecretKey:  config.MinioSecretKey,
			Region:     config.MinioRegion,
			UseSSL:     config.MinioUseSSL,
			PublicBase: config.MinioPublicBase,
		})
	}

	return nil, fmt.Errorf("invalid storage driver: %s", config.AppDriverStorage)
}

func (config Config) Media(driver storage.Driver, configFuncs ...media.ServiceConfigFunc) *media.Service {
	return media.New(driver, config.Buckets(), configFuncs...)
}

func (config Config) Cache(ctx context.Context) (cache.Driver, error) {
	switch config.AppDriverCache {
	case "memory":
		return cache.NewDriverMemory(ctx)
	case "redis":
		return cache.NewDriverRedis(ctx, cache.DriverRedisConfig{
			Host:   config.RedisHost,
			Number: config.RedisNumber,
			Pass:   config.RedisPass,
			Port:   config.RedisPort,
			User:   config.RedisUser,
		})
	}

	return nil, fmt.Errorf("invalid cache driver: %s", config.AppDriverCache)
}

func (config Config) Queue() (queue.Driver, error) {
	switch config.AppDriverQueue {
	case "memory":
		return queue.NewDriverMemory()
	case "rabbitmq":
		return queue.NewDriverRabbitMQ(queue.DriverRabbitMQConfig{
			Host: config.RabbitMQHost,
			Pass: config.RabbitMQPass,
			Port: config.RabbitMQPort,
			User: config.RabbitMQUser,
		})
	}

	return nil, fmt.Errorf("invalid queue driver: %s", config.AppDriverQueue)
}
