// Package storage is the boundary to the remote object store. Every driver is
// keyed by (bucket, key) and reports a missing object as ErrNotFound so callers
// never inspect transport status codes themselves.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned by drivers that can not hold a key verbatim.
	ErrInvalidKey = errors.New("invalid key")
)

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

type Object struct {
	ObjectInfo
	ContentType string
	Body        io.ReadCloser
}

type PutOptions struct {
	ContentType string
	PublicRead  bool
}

type Driver interface {
	// PreSignedUploadURL authorizes a single PUT of bucket/key until expiration elapses.
	PreSignedUploadURL(ctx context.Context, bucket string, key string, expiration time.Duration) (string, error)
	// Get returns ErrNotFound (possibly wrapped) when the object is absent.
	// The caller owns Body.
	Get(ctx context.Context, bucket string, key string) (Object, error)
	Put(ctx context.Context, bucket string, key string, payload io.Reader, size int64, options PutOptions) error
	Exists(ctx context.Context, bucket string, key string) (bool, error)
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, bucket string, key string) error
	// List follows continuation until the prefix is exhausted.
	List(ctx context.Context, bucket string, prefix string) ([]ObjectInfo, error)
	PublicLink(ctx context.Context, bucket string, key string) (string, error)
	IsReady(ctx context.Context, bucket string) error
}

// escapeKey escapes every segment of key for use in a URL path, keeping the
// separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for index, segment := range segments {
		segments[index] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}
