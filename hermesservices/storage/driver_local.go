package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/lunagic/hermes/hermesservices/vault"
)

const (
	localPreSignedPath  = "/_presigned"
	localMetadataFolder = ".meta"
	localTempFolder     = ".tmp"
)

// NewDriverLocal stores every bucket as a folder under directory. Only the
// buckets named here exist; anything else fails the way a missing remote
// bucket would.
func NewDriverLocal(
	directory string,
	vault vault.Vault,
	buckets ...string,
) (*DriverLocal, error) {
	for _, folder := range []string{localMetadataFolder, localTempFolder} {
		if err := os.MkdirAll(filepath.Join(directory, folder), 0o755); err != nil {
			return nil, err
		}
	}

	for _, bucket := range buckets {
		if bucket == "" || strings.HasPrefix(bucket, ".") || strings.ContainsAny(bucket, `/\`) {
			return nil, fmt.Errorf("invalid bucket name: %q", bucket)
		}

		if err := os.MkdirAll(filepath.Join(directory, bucket), 0o755); err != nil {
			return nil, err
		}
	}

	return &DriverLocal{
		Directory: directory,
		Vault:     vault,
	}, nil
}

type DriverLocal struct {
	Directory    string
	BaseEndpoint string
	Vault        vault.Vault
}

type localMetadata struct {
	ContentType string
	PublicRead  bool
}

type urlPayload struct {
	Method    string
	Bucket    string
	Key       string
	ExpiresAt time.Time
}

func (driver *DriverLocal) bucketPath(bucket string) (string, error) {
	bucketPath := filepath.Join(driver.Directory, bucket)
	info, err := os.Stat(bucketPath)
	if err != nil || !info.IsDir() || bucket == "" || strings.HasPrefix(bucket, ".") {
		return "", fmt.Errorf("bucket does not exist: %q", bucket)
	}

	return bucketPath, nil
}

func (driver *DriverLocal) absolutePath(bucket string, key string) (string, error) {
	bucketPath, err := driver.bucketPath(bucket)
	if err != nil {
		return "", err
	}

	if !canonicalKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	filePath := filepath.Join(bucketPath, filepath.FromSlash(key))
	if !strings.HasPrefix(filePath, bucketPath+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return filePath, nil
}

// canonicalKey reports whether key maps to a file without being rewritten, so
// the stored name is byte-identical to the key a remote store would keep.
func canonicalKey(key string) bool {
	if key == "" || strings.ContainsRune(key, '\\') || path.Clean(key) != key {
		return false
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}

	return true
}

func (driver *DriverLocal) metadataPath(bucket string, key string) string {
	return filepath.Join(driver.Directory, localMetadataFolder, bucket, filepath.FromSlash(key)+".json")
}

func (driver *DriverLocal) PreSignedUploadURL(ctx context.Context, bucket string, key string, expiration time.Duration) (string, error) {
	if _, err := driver.absolutePath(bucket, key); err != nil {
		return "", err
	}

	message, err := json.Marshal(urlPayload{
		Method:    http.MethodPut,
		Bucket:    bucket,
		Key:       key,
		ExpiresAt: time.Now().Add(expiration),
	})
	if err != nil {
		return "", err
	}

	signature, err := driver.Vault.Encrypt(message)
	if err != nil {
		return "", err
	}

	return driver.BaseEndpoint + localPreSignedPath + "?" + url.Values{
		"signature": []string{string(signature)},
	}.Encode(), nil
}

// DecodePreSignedURL returns the grant carried by a URL from PreSignedUploadURL.
func (driver *DriverLocal) DecodePreSignedURL(rawURL string) (method string, bucket string, key string, expiresAt time.Time, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", time.Time{}, err
	}

	payload, err := driver.decodeSignature(u.Query().Get("signature"))
	if err != nil {
		return "", "", "", time.Time{}, err
	}

	return payload.Method, payload.Bucket, payload.Key, payload.ExpiresAt, nil
}

func (driver *DriverLocal) decodeSignature(signature string) (urlPayload, error) {
	message, err := driver.Vault.Decrypt([]byte(signature))
	if err != nil {
		return urlPayload{}, err
	}

	payload := urlPayload{}
	if err := json.Unmarshal(message, &payload); err != nil {
		return urlPayload{}, err
	}

	return payload, nil
}

func (driver *DriverLocal) Get(ctx context.Context, bucket string, key string) (Object, error) {
	filePath, err := driver.absolutePath(bucket, key)
	if err != nil {
		return Object{}, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Object{}, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
		}

		return Object{}, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return Object{}, err
	}

	metadata, err := driver.readMetadata(bucket, key)
	if err != nil {
		_ = file.Close()
		return Object{}, err
	}

	return Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		},
		ContentType: metadata.ContentType,
		Body:        file,
	}, nil
}

func (driver *DriverLocal) Put(
	ctx context.Context,
	bucket string,
	key string,
	payload io.Reader,
	size int64,
	options PutOptions,
) error {
	filePath, err := driver.absolutePath(bucket, key)
	if err != nil {
		return err
	}

	// Write to a temp file first so readers never see a partial object
	file, err := os.CreateTemp(filepath.Join(driver.Directory, localTempFolder), "upload-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(file.Name())
	}()

	if _, err := io.Copy(file, payload); err != nil {
		_ = file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	if err := driver.writeMetadata(bucket, key, localMetadata{
		ContentType: options.ContentType,
		PublicRead:  options.PublicRead,
	}); err != nil {
		return err
	}

	return os.Rename(file.Name(), filePath)
}

func (driver *DriverLocal) Delete(ctx context.Context, bucket string, key string) error {
	filePath, err := driver.absolutePath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if err := os.Remove(driver.metadataPath(bucket, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return err
	}

	return nil
}

func (driver *DriverLocal) Exists(ctx context.Context, bucket string, key string) (bool, error) {
	filePath, err := driver.absolutePath(bucket, key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (driver *DriverLocal) List(ctx context.Context, bucket string, prefix string) ([]ObjectInfo, error) {
	bucketPath, err := driver.bucketPath(bucket)
	if err != nil {
		return nil, err
	}

	objects := []ObjectInfo{}
	if err := filepath.WalkDir(bucketPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(bucketPath, path)
		if err != nil {
			return err
		}

		key := filepath.ToSlash(relativePath)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})

		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(objects, func(a ObjectInfo, b ObjectInfo) int {
		return strings.Compare(a.Key, b.Key)
	})

	return objects, nil
}

func (driver *DriverLocal) IsReady(ctx context.Context, bucket string) error {
	_, err := driver.bucketPath(bucket)

	return err
}

func (driver *DriverLocal) PublicLink(ctx context.Context, bucket string, key string) (string, error) {
	return fmt.Sprintf("%s/%s/%s", driver.BaseEndpoint, url.PathEscape(bucket), escapeKey(key)), nil
}

// ServeHTTP accepts uploads against presigned URLs and serves objects that
// were written public-read.
func (driver *DriverLocal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == localPreSignedPath {
		driver.servePreSigned(w, r)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	bucket, key, found := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !found {
		http.NotFound(w, r)
		return
	}

	if _, err := driver.absolutePath(bucket, key); err != nil {
		http.NotFound(w, r)
		return
	}

	metadata, err := driver.readMetadata(bucket, key)
	if err != nil || !metadata.PublicRead {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	object, err := driver.Get(r.Context(), bucket, key)
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	defer func() {
		_ = object.Body.Close()
	}()

	if object.ContentType != "" {
		w.Header().Set("Content-Type", object.ContentType)
	}

	if _, err := io.Copy(w, object.Body); err != nil {
		return
	}
}

func (driver *DriverLocal) servePreSigned(w http.ResponseWriter, r *http.Request) {
	payload, err := driver.decodeSignature(r.URL.Query().Get("signature"))
	if err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if time.Since(payload.ExpiresAt) > 0 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if r.Method != payload.Method {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := driver.Put(
		r.Context(),
		payload.Bucket,
		payload.Key,
		r.Body,
		r.ContentLength,
		PutOptions{
			ContentType: r.Header.Get("Content-Type"),
		},
	); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (driver *DriverLocal) readMetadata(bucket string, key string) (localMetadata, error) {
	metadata := localMetadata{}

	content, err := os.ReadFile(driver.metadataPath(bucket, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return metadata, nil
		}

		return metadata, err
	}

	if err := json.Unmarshal(content, &metadata); err != nil {
		return metadata, err
	}

	return metadata, nil
}

func (driver *DriverLocal) writeMetadata(bucket string, key string, metadata localMetadata) error {
	metadataPath := driver.metadataPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(metadataPath), 0o755); err != nil {
		return err
	}

	content, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	return os.WriteFile(metadataPath, content, 0o644)
}
