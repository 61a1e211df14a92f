package storage_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermesservices/storage"
	"gotest.tools/v3/assert"
)

func testSuite(t *testing.T, driver storage.Driver, bucket string) {
	prefix := uuid.NewString() + "/"
	key := prefix + uuid.NewString() + ".mp3"
	unrelatedKey := prefix + uuid.NewString() + ".mp4"
	fileContents := uuid.NewString()

	{ // Confirm file does not already exist
		found, err := driver.Exists(t.Context(), bucket, key)
		assert.NilError(t, err)
		assert.Assert(t, !found, "file found before putting the file, bad test: %s", key)
	}

	{ // Confirm a missing object is reported as not found
		_, err := driver.Get(t.Context(), bucket, key)
		assert.Assert(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
	}

	{ // Put the files in storage
		for _, k := range []string{key, unrelatedKey} {
			assert.NilError(t, driver.Put(
				t.Context(),
				bucket,
				k,
				strings.NewReader(fileContents),
				int64(len(fileContents)),
				storage.PutOptions{
					ContentType: "audio/mpeg",
					PublicRead:  true,
				},
			))
		}
		t.Cleanup(func() {
			_ = driver.Delete(context.Background(), bucket, key)
			_ = driver.Delete(context.Background(), bucket, unrelatedKey)
		})
	}

	{ // Confirm the file is now in storage
		found, err := driver.Exists(t.Context(), bucket, key)
		assert.NilError(t, err)
		assert.Assert(t, found, "File not found after putting it")
	}

	{ // Confirm the file contents
		object, err := driver.Get(t.Context(), bucket, key)
		assert.NilError(t, err)
		defer func() {
			_ = object.Body.Close()
		}()

		actualContents, err := io.ReadAll(object.Body)
		assert.NilError(t, err)
		assert.Equal(t, string(actualContents), fileContents)
		assert.Equal(t, object.ContentType, "audio/mpeg")
	}

	{ // Confirm the listing
		objects, err := driver.List(t.Context(), bucket, prefix)
		assert.NilError(t, err)
		assert.Equal(t, len(objects), 2)
		for _, object := range objects {
			assert.Assert(t, strings.HasPrefix(object.Key, prefix))
			assert.Equal(t, object.Size, int64(len(fileContents)))
		}
	}

	{ // Upload through a presigned url
		uploadedKey := prefix + uuid.NewString() + ".mp4"
		uploadedContents := uuid.NewString()

		url, err := driver.PreSignedUploadURL(t.Context(), bucket, uploadedKey, time.Minute)
		assert.NilError(t, err)

		request, err := http.NewRequestWithContext(t.Context(), http.MethodPut, url, strings.NewReader(uploadedContents))
		assert.NilError(t, err)

		response, err := http.DefaultClient.Do(request)
		assert.NilError(t, err)
		_ = response.Body.Close()
		assert.Equal(t, response.StatusCode, http.StatusOK)
		t.Cleanup(func() {
			_ = driver.Delete(context.Background(), bucket, uploadedKey)
		})

		object, err := driver.Get(t.Context(), bucket, uploadedKey)
		assert.NilError(t, err)
		actualContents, err := io.ReadAll(object.Body)
		_ = object.Body.Close()
		assert.NilError(t, err)
		assert.Equal(t, string(actualContents), uploadedContents)
	}

	{ // Delete the file
		assert.NilError(t, driver.Delete(t.Context(), bucket, key))
	}

	{ // Confirm it no longer exists
		found, err := driver.Exists(t.Context(), bucket, key)
		assert.NilError(t, err)
		assert.Assert(t, !found, "file found after deleting: %s", key)
	}

	{ // Confirm deleting a file that does not exist does not error out
		assert.NilError(t, driver.Delete(t.Context(), bucket, key))
	}

	{ // Confirm the unrelated file survived both deletes
		found, err := driver.Exists(t.Context(), bucket, unrelatedKey)
		assert.NilError(t, err)
		assert.Assert(t, found)
	}
}
