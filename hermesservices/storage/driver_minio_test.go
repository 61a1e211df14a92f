package storage_test

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermesservices/storage"
	"github.com/lunagic/hermes/hermestools"
	"gotest.tools/v3/assert"
)

func Test_Driver_Minio(t *testing.T) {
	t.Parallel()

	accessKeyID := uuid.NewString()
	accessKeySecret := uuid.NewString()
	bucketName := uuid.NewString()

	driver := hermestools.GetDockerService(
		t,
		hermestools.DockerServiceConfig[storage.Driver]{
			DockerImage:    "bitnami/minio",
			DockerImageTag: "latest",
			InternalPort:   9000,
			Environment: map[string]string{
				"MINIO_ROOT_USER":       accessKeyID,
				"MINIO_ROOT_PASSWORD":   accessKeySecret,
				"MINIO_DEFAULT_BUCKETS": bucketName,
			},
			Builder: func(host string, port int) (storage.Driver, error) {
				driver, err := storage.NewDriverMinio(storage.MinioConfig{
					Endpoint:  fmt.Sprintf("%s:%d", host, port),
					AccessKey: accessKeyID,
					SecretKey: accessKeySecret,
					Region:    "us-east-1",
				})
				if err != nil {
					return nil, err
				}

				if err := driver.IsReady(t.Context(), bucketName); err != nil {
					return nil, err
				}

				return driver, nil
			},
		},
	)

	testSuite(t, driver, bucketName)
}

func Test_Driver_Minio_PreSignedUploadURL(t *testing.T) {
	t.Parallel()

	driver, err := storage.NewDriverMinio(storage.MinioConfig{
		Endpoint:  "127.0.0.1:9000",
		AccessKey: uuid.NewString(),
		SecretKey: uuid.NewString(),
		Region:    "us-east-1",
	})
	assert.NilError(t, err)

	rawURL, err := driver.PreSignedUploadURL(t.Context(), "input", "VIDEO/example.mp4", time.Hour)
	assert.NilError(t, err)

	u, err := url.Parse(rawURL)
	assert.NilError(t, err)
	assert.Equal(t, u.Path, "/input/VIDEO/example.mp4")
	assert.Equal(t, u.Query().Get("X-Amz-Expires"), "3600")
}

func Test_Driver_Minio_PublicLink(t *testing.T) {
	t.Parallel()

	driver, err := storage.NewDriverMinio(storage.MinioConfig{
		Endpoint:   "127.0.0.1:9000",
		AccessKey:  uuid.NewString(),
		SecretKey:  uuid.NewString(),
		PublicBase: "https://media.example.com/",
	})
	assert.NilError(t, err)

	for key, expected := range map[string]string{
		"VIDEO/example.mp4":          "https://media.example.com/output/VIDEO/example.mp4",
		"VIDEO/show notes?#100%.mp4": "https://media.example.com/output/VIDEO/show%20notes%3F%23100%25.mp4",
	} {
		link, err := driver.PublicLink(t.Context(), "output", key)
		assert.NilError(t, err)
		assert.Equal(t, link, expected)
	}
}
