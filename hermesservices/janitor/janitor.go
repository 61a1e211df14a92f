// Package janitor removes stale uploads from a staging bucket. A sweep only
// publishes delete requests; deletion happens in HandleDeleteRequest, which
// is safe to run more than once for the same object.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunagic/hermes/hermesservices/storage"
	"github.com/lunagic/hermes/hermestools"
)

var ErrInvalidMaxAge = errors.New("max age must be positive")

type DeleteRequest struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Store is the part of the media service the janitor needs.
type Store interface {
	ListObjects(ctx context.Context, bucket string, prefix string) ([]storage.ObjectInfo, error)
	DeleteObject(ctx context.Context, bucket string, key string) error
}

type Publisher interface {
	Publish(ctx context.Context, request DeleteRequest) error
}

type Config struct {
	Bucket string
	Prefix string
	MaxAge time.Duration
}

type ConfigFunc func(janitor *Janitor)

func WithLogger(logger *slog.Logger) ConfigFunc {
	return func(janitor *Janitor) {
		janitor.logger = logger
	}
}

func WithClock(now func() time.Time) ConfigFunc {
	return func(janitor *Janitor) {
		janitor.now = now
	}
}

func New(store Store, publisher Publisher, config Config, configFuncs ...ConfigFunc) (*Janitor, error) {
	if config.MaxAge <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMaxAge, config.MaxAge)
	}

	janitor := &Janitor{
		store:     store,
		publisher: publisher,
		config:    config,
		logger:    slog.Default(),
		now:       time.Now,
	}

	for _, configFunc := range configFuncs {
		configFunc(janitor)
	}

	return janitor, nil
}

type Janitor struct {
	store     Store
	publisher Publisher
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// Sweep publishes a delete request for every object under the configured
// prefix last modified more than MaxAge ago. It returns how many were
// published.
func (janitor *Janitor) Sweep(ctx context.Context) (int, error) {
	objects, err := janitor.store.ListObjects(ctx, janitor.config.Bucket, janitor.config.Prefix)
	if err != nil {
		return 0, err
	}

	cutoff := janitor.now().Add(-janitor.config.MaxAge)
	requests := hermestools.Map(
		hermestools.Filter(objects, func(object storage.ObjectInfo) bool {
			return object.LastModified.Before(cutoff)
		}),
		func(object storage.ObjectInfo) DeleteRequest {
			return DeleteRequest{
				Bucket: janitor.config.Bucket,
				Key:    object.Key,
			}
		},
	)

	for published, request := range requests {
		if err := janitor.publisher.Publish(ctx, request); err != nil {
			return published, fmt.Errorf("publishing delete of %s/%s: %w", request.Bucket, request.Key, err)
		}
	}

	janitor.logger.InfoContext(ctx, "janitor: sweep finished",
		"bucket", janitor.config.Bucket,
		"prefix", janitor.config.Prefix,
		"scanned", len(objects),
		"stale", len(requests),
	)

	return len(requests), nil
}

func (janitor *Janitor) HandleDeleteRequest(ctx context.Context, request DeleteRequest) error {
	if err := janitor.store.DeleteObject(ctx, request.Bucket, request.Key); err != nil {
		return err
	}

	janitor.logger.DebugContext(ctx, "janitor: deleted", "bucket", request.Bucket, "key", request.Key)

	return nil
}

// PublisherFunc adapts a function, such as HandleDeleteRequest, to Publisher.
type PublisherFunc func(ctx context.Context, request DeleteRequest) error

func (publish PublisherFunc) Publish(ctx context.Context, request DeleteRequest) error {
	return publish(ctx, request)
}
