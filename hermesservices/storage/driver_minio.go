package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Region     string
	UseSSL     bool
	PublicBase string
}

// NewDriverMinio works against any S3-compatible provider through minio-go.
// Setting Region avoids the bucket-location lookup when presigning.
func NewDriverMinio(config MinioConfig) (Driver, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	publicBase := strings.TrimRight(config.PublicBase, "/")
	if publicBase == "" {
		publicBase = client.EndpointURL().String()
	}

	return &driverMinio{
		client:     client,
		publicBase: publicBase,
	}, nil
}

type driverMinio struct {
	client     *minio.Client
	publicBase string
}

func (driver *driverMinio) PreSignedUploadURL(ctx context.Context, bucket string, key string, expiration time.Duration) (string, error) {
	u, err := driver.client.PresignedPutObject(ctx, bucket, key, expiration)
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

func (driver *driverMinio) Get(ctx context.Context, bucket string, key string) (Object, error) {
	object, err := driver.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return Object{}, driver.classify(err, bucket, key)
	}

	// GetObject is lazy, the first Stat performs the request
	info, err := object.Stat()
	if err != nil {
		_ = object.Close()
		return Object{}, driver.classify(err, bucket, key)
	}

	return Object{
		ObjectInfo: ObjectInfo{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
		},
		ContentType: info.ContentType,
		Body:        object,
	}, nil
}

func (driver *driverMinio) Put(
	ctx context.Context,
	bucket string,
	key string,
	payload io.Reader,
	size int64,
	options PutOptions,
) error {
	putOptions := minio.PutObjectOptions{
		ContentType: options.ContentType,
	}

	if options.PublicRead {
		putOptions.UserMetadata = map[string]string{
			"x-amz-acl": "public-read",
		}
	}

	if _, err := driver.client.PutObject(ctx, bucket, key, payload, size, putOptions); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}

	return nil
}

func (driver *driverMinio) Delete(ctx context.Context, bucket string, key string) error {
	if err := driver.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return nil
		}

		return err
	}

	return nil
}

func (driver *driverMinio) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	if _, err := driver.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (driver *driverMinio) List(ctx context.Context, bucket string, prefix string) ([]ObjectInfo, error) {
	objects := []ObjectInfo{}
	for object := range driver.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}

		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	return objects, nil
}

func (driver *driverMinio) PublicLink(ctx context.Context, bucket string, key string) (string, error) {
	return driver.publicBase + "/" + url.PathEscape(bucket) + "/" + escapeKey(key), nil
}

func (driver *driverMinio) IsReady(ctx context.Context, bucket string) error {
	exists, err := driver.client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("bucket %q does not exist", bucket)
	}

	return nil
}

func (driver *driverMinio) classify(err error, bucket string, key string) error {
	if isMinioNotFound(err) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}

	return err
}

func isMinioNotFound(err error) bool {
	response := minio.ToErrorResponse(err)
	if response.Code == "NoSuchKey" || response.Code == "NotFound" {
		return true
	}

	return response.StatusCode == http.StatusNotFound && response.Code != "NoSuchBucket"
}
