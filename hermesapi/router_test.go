package hermesapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/hermes/hermes"
	"github.com/lunagic/hermes/hermesapi"
	"github.com/lunagic/hermes/hermesservices/media"
	"github.com/lunagic/hermes/hermestest"
	"gotest.tools/v3/assert"
)

func query(method string) url.Values {
	return url.Values{"method": []string{method}}
}

func buildTestApp(t *testing.T, service hermesapi.Media) *hermes.App {
	t.Helper()

	app, err := hermes.NewApp(
		t.Context(),
		hermes.NewTestConfig(t),
		hermesapi.WithRouter(service, nil),
	)
	assert.NilError(t, err)

	return app
}

func buildMediaService(t *testing.T) (hermes.Config, *media.Service) {
	t.Helper()

	config := hermes.NewTestConfig(t)
	driver, err := config.Storage(t.Context())
	assert.NilError(t, err)

	return config, config.Media(driver)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	config, service := buildMediaService(t)
	app := buildTestApp(t, service)

	publishedKey := uuid.NewString()
	localPath := filepath.Join(t.TempDir(), "episode.mp3")
	assert.NilError(t, os.WriteFile(localPath, []byte(publishedKey), 0o600))
	assert.NilError(t, service.StoreObject(t.Context(), media.Audio, publishedKey, localPath))

	missingKey := uuid.NewString()

	for name, testCase := range map[string]hermestest.HTTPTestCase{
		"exists for a published object": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("ObjectExists"),
				Body:   hermesapi.ObjectRequest{MediaType: media.Audio, Key: publishedKey},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusOK,
				Body:   hermesapi.ObjectExistsResponse{Exists: true},
			},
		},
		"exists for a missing object": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("ObjectExists"),
				Body:   hermesapi.ObjectRequest{MediaType: media.Video, Key: missingKey},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusOK,
				Body:   hermesapi.ObjectExistsResponse{Exists: false},
			},
		},
		"download url of a published object": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("DownloadURL"),
				Body:   hermesapi.ObjectRequest{MediaType: media.Audio, Key: publishedKey},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusOK,
				Body: hermesapi.DownloadURLResponse{
					URL: config.LocalStorageEndpoint + "/output/AUDIO/" + publishedKey + ".mp3",
				},
			},
		},
		"download url of a missing object": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("DownloadURL"),
				Body:   hermesapi.ObjectRequest{MediaType: media.Audio, Key: missingKey},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusNotFound,
				Body:   hermesapi.ErrorResponse{Error: "object not found"},
			},
		},
		"unknown media type": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("IssueUploadGrant"),
				Body:   hermesapi.ObjectRequest{MediaType: "IMAGE", Key: missingKey},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusBadRequest,
				Body:   hermesapi.ErrorResponse{Error: "mediaType must be one of [AUDIO VIDEO]"},
			},
		},
		"blank key": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("ObjectExists"),
				Body:   hermesapi.ObjectRequest{MediaType: media.Video},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusBadRequest,
				Body:   hermesapi.ErrorResponse{Error: "key can not be blank"},
			},
		},
		"malformed body": {
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query("ObjectExists"),
				Body:   `{"mediaType":`,
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusBadRequest,
				Body:   hermesapi.ErrorResponse{Error: "invalid request body"},
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			hermestest.TestRequest(t, app.Handler(), testCase)
		})
	}
}

func TestRouterIssueUploadGrant(t *testing.T) {
	t.Parallel()

	_, service := buildMediaService(t)
	app := buildTestApp(t, service)
	key := uuid.NewString()

	recorder := hermestest.TestRequest(t, app.Handler(), hermestest.HTTPTestCase{
		Request: hermestest.HTTPTestCaseRequest{
			Method: http.MethodPost,
			Path:   hermesapi.Prefix,
			Query:  query("IssueUploadGrant"),
			Body:   hermesapi.ObjectRequest{MediaType: media.Video, Key: key},
		},
		Expected: hermestest.HTTPTestCaseResponse{
			Status: http.StatusOK,
		},
	})

	response := hermesapi.UploadGrantResponse{}
	assert.NilError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, response.Key, "VIDEO/"+key+".mp4")
	assert.Assert(t, strings.Contains(response.URL, "signature="))
	assert.Assert(t, time.Until(response.ExpiresAt) > 59*time.Minute)
}

type unavailableMedia struct{}

func (unavailableMedia) IssueUploadGrant(ctx context.Context, mediaType media.MediaType, key string) (media.UploadGrant, error) {
	return media.UploadGrant{}, errors.Join(media.ErrStorageUnavailable, errors.New("dial tcp: connection refused"))
}

func (unavailableMedia) ObjectExists(ctx context.Context, mediaType media.MediaType, key string) (bool, error) {
	return false, errors.Join(media.ErrStorageUnavailable, errors.New("403 forbidden"))
}

func (unavailableMedia) PublicURL(ctx context.Context, mediaType media.MediaType, key string) (string, error) {
	return "", errors.New("unexpected")
}

func TestRouterStorageUnavailable(t *testing.T) {
	t.Parallel()

	app := buildTestApp(t, unavailableMedia{})

	for _, method := range []string{"IssueUploadGrant", "ObjectExists", "DownloadURL"} {
		hermestest.TestRequest(t, app.Handler(), hermestest.HTTPTestCase{
			Request: hermestest.HTTPTestCaseRequest{
				Method: http.MethodPost,
				Path:   hermesapi.Prefix,
				Query:  query(method),
				Body:   hermesapi.ObjectRequest{MediaType: media.Audio, Key: "episode"},
			},
			Expected: hermestest.HTTPTestCaseResponse{
				Status: http.StatusServiceUnavailable,
				Body:   hermesapi.ErrorResponse{Error: "storage unavailable"},
			},
		})
	}
}
