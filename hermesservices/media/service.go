// Package media is the facade the pipeline uses to reach the object store. It
// turns (media type, logical key) pairs into physical keys, picks the bucket
// for each operation and classifies store failures into the errors in
// errors.go. It keeps no per-object state, so a single Service is shared by
// every caller.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lunagic/hermes/hermesservices/storage"
)

// UploadGrantLifetime is how long an issued upload URL stays valid.
const UploadGrantLifetime = time.Hour

type Buckets struct {
	// Input receives uploads from outside the pipeline.
	Input string
	// Output holds pipeline results, written public-read.
	Output string
}

type UploadGrant struct {
	URL       string    `json:"url"`
	Bucket    string    `json:"bucket"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Object struct {
	Bucket       string
	Key          string
	ContentType  string
	Size         int64
	LastModified time.Time
	Body         []byte
}

type ServiceConfigFunc func(service *Service)

func WithLogger(logger *slog.Logger) ServiceConfigFunc {
	return func(service *Service) {
		service.logger = logger
	}
}

func WithMetrics(metrics *Metrics) ServiceConfigFunc {
	return func(service *Service) {
		service.metrics = metrics
	}
}

func WithClock(now func() time.Time) ServiceConfigFunc {
	return func(service *Service) {
		service.now = now
	}
}

func New(driver storage.Driver, buckets Buckets, configFuncs ...ServiceConfigFunc) *Service {
	service := &Service{
		driver:  driver,
		buckets: buckets,
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, configFunc := range configFuncs {
		configFunc(service)
	}

	return service
}

type Service struct {
	driver  storage.Driver
	buckets Buckets
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

func (service *Service) Buckets() Buckets {
	return service.buckets
}

// IssueUploadGrant returns a URL allowing one PUT of the object into the Input
// bucket. Nothing is created until the URL is used.
func (service *Service) IssueUploadGrant(ctx context.Context, mediaType MediaType, key string) (grant UploadGrant, err error) {
	defer func(started time.Time) { service.metrics.observe("issue_upload_grant", started, err) }(time.Now())

	path, err := ObjectKey{MediaType: mediaType, Key: key}.Path()
	if err != nil {
		return UploadGrant{}, err
	}

	bucket := service.buckets.Input
	issuedAt := service.now()

	url, err := service.driver.PreSignedUploadURL(ctx, bucket, path, UploadGrantLifetime)
	if err != nil {
		return UploadGrant{}, service.classify(ctx, "issue upload grant", bucket, path, err)
	}

	return UploadGrant{
		URL:       url,
		Bucket:    bucket,
		Key:       path,
		ExpiresAt: issuedAt.Add(UploadGrantLifetime),
	}, nil
}

type fetchOptions struct {
	bucket string
}

type FetchOption func(options *fetchOptions)

// FromBucket reads from bucket instead of the Input bucket.
func FromBucket(bucket string) FetchOption {
	return func(options *fetchOptions) {
		if bucket != "" {
			options.bucket = bucket
		}
	}
}

func (service *Service) FetchObject(ctx context.Context, mediaType MediaType, key string, fetchOptionFuncs ...FetchOption) (object Object, err error) {
	defer func(started time.Time) { service.metrics.observe("fetch_object", started, err) }(time.Now())

	path, err := ObjectKey{MediaType: mediaType, Key: key}.Path()
	if err != nil {
		return Object{}, err
	}

	options := fetchOptions{bucket: service.buckets.Input}
	for _, fetchOptionFunc := range fetchOptionFuncs {
		fetchOptionFunc(&options)
	}

	stored, err := service.driver.Get(ctx, options.bucket, path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Object{}, fmt.Errorf("%w: %s/%s", ErrNotFound, options.bucket, path)
		}

		return Object{}, service.classify(ctx, "fetch object", options.bucket, path, err)
	}
	defer func() {
		_ = stored.Body.Close()
	}()

	body, err := io.ReadAll(stored.Body)
	if err != nil {
		return Object{}, service.classify(ctx, "fetch object", options.bucket, path, err)
	}

	return Object{
		Bucket:       options.bucket,
		Key:          path,
		ContentType:  stored.ContentType,
		Size:         int64(len(body)),
		LastModified: stored.LastModified,
		Body:         body,
	}, nil
}

// StoreObject uploads the file at localPath to the Output bucket, publicly
// readable, overwriting any previous object at the same key.
func (service *Service) StoreObject(ctx context.Context, mediaType MediaType, key string, localPath string) (err error) {
	defer func(started time.Time) { service.metrics.observe("store_object", started, err) }(time.Now())

	path, err := ObjectKey{MediaType: mediaType, Key: key}.Path()
	if err != nil {
		return err
	}

	contentType, err := mediaType.ContentType()
	if err != nil {
		return err
	}

	// os.ReadFile releases the handle on every path, including read failures
	body, readErr := os.ReadFile(localPath)
	if readErr != nil {
		service.logger.WarnContext(ctx, "media: local content unreadable",
			"path", localPath,
			"key", path,
			"error", readErr,
		)

		return fmt.Errorf("%w: %s", ErrLocalRead, localPath)
	}

	bucket := service.buckets.Output
	if err := service.driver.Put(
		ctx,
		bucket,
		path,
		bytes.NewReader(body),
		int64(len(body)),
		storage.PutOptions{
			ContentType: contentType,
			PublicRead:  true,
		},
	); err != nil {
		return service.classify(ctx, "store object", bucket, path, err)
	}

	return nil
}

// ListObjects returns every object under prefix in the store's key order.
func (service *Service) ListObjects(ctx context.Context, bucket string, prefix string) (objects []storage.ObjectInfo, err error) {
	defer func(started time.Time) { service.metrics.observe("list_objects", started, err) }(time.Now())

	objects, err = service.driver.List(ctx, bucket, prefix)
	if err != nil {
		return nil, service.classify(ctx, "list objects", bucket, prefix, err)
	}

	return objects, nil
}

// DeleteObject removes an object by its physical key. Missing objects are not an error.
func (service *Service) DeleteObject(ctx context.Context, bucket string, key string) (err error) {
	defer func(started time.Time) { service.metrics.observe("delete_object", started, err) }(time.Now())

	if key == "" {
		return fmt.Errorf("%w: key can not be blank", ErrInvalidKey)
	}

	if err := service.driver.Delete(ctx, bucket, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return service.classify(ctx, "delete object", bucket, key, err)
	}

	return nil
}

// ObjectExists checks the Output bucket. Only a definite absence yields false.
func (service *Service) ObjectExists(ctx context.Context, mediaType MediaType, key string) (found bool, err error) {
	defer func(started time.Time) { service.metrics.observe("object_exists", started, err) }(time.Now())

	path, err := ObjectKey{MediaType: mediaType, Key: key}.Path()
	if err != nil {
		return false, err
	}

	bucket := service.buckets.Output
	found, err = service.driver.Exists(ctx, bucket, path)
	if err != nil {
		return false, service.classify(ctx, "object exists", bucket, path, err)
	}

	return found, nil
}

// PublicURL is the browser URL of the published object. It does not check
// that the object exists.
func (service *Service) PublicURL(ctx context.Context, mediaType MediaType, key string) (link string, err error) {
	defer func(started time.Time) { service.metrics.observe("public_url", started, err) }(time.Now())

	path, err := ObjectKey{MediaType: mediaType, Key: key}.Path()
	if err != nil {
		return "", err
	}

	bucket := service.buckets.Output
	link, err = service.driver.PublicLink(ctx, bucket, path)
	if err != nil {
		return "", service.classify(ctx, "public url", bucket, path, err)
	}

	return link, nil
}

// classify maps a store failure to the media errors. Keys the store can not
// hold verbatim are the caller's fault, everything else is the store's.
func (service *Service) classify(ctx context.Context, operation string, bucket string, key string, err error) error {
	if errors.Is(err, storage.ErrInvalidKey) {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	service.logger.ErrorContext(ctx, "media: storage failure",
		"operation", operation,
		"bucket", bucket,
		"key", key,
		"error", err,
	)

	return fmt.Errorf("%w: %s %s/%s: %w", ErrStorageUnavailable, operation, bucket, key, err)
}
