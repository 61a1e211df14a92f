// Package hermestest runs table driven HTTP requests against a handler.
package hermestest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

type HTTPTestCase struct {
	Request  HTTPTestCaseRequest
	Expected HTTPTestCaseResponse
}

type HTTPTestCaseRequest struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Headers  http.Header
	Modifier func(request *http.Request)
}

// BuildRequest encodes Body as JSON unless it is a string, which is sent as is.
func (testCase HTTPTestCaseRequest) BuildRequest(t *testing.T) *http.Request {
	t.Helper()

	var body io.Reader
	switch typedBody := testCase.Body.(type) {
	case nil:
	case string:
		body = strings.NewReader(typedBody)
	default:
		bodyBytes, err := json.Marshal(typedBody)
		assert.NilError(t, err)
		body = bytes.NewReader(bodyBytes)
	}

	requestURL := testCase.Path
	if len(testCase.Query) > 0 {
		requestURL += "?" + testCase.Query.Encode()
	}

	request := httptest.NewRequest(
		testCase.Method,
		requestURL,
		body,
	)

	if testCase.Headers != nil {
		request.Header = testCase.Headers.Clone()
	}

	if testCase.Modifier != nil {
		testCase.Modifier(request)
	}

	return request
}

// HTTPTestCaseResponse is compared against the recorded response. Only the
// headers listed in Headers are checked. A nil Body skips the body check.
type HTTPTestCaseResponse struct {
	Status  int
	Headers http.Header
	Body    any
}

func TestRequest(t *testing.T, handler http.Handler, testCase HTTPTestCase) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()

	// Execute the request
	{
		handler.ServeHTTP(
			recorder,
			testCase.Request.BuildRequest(t),
		)
	}

	// Assert status code
	{
		assert.Equal(t, testCase.Expected.Status, recorder.Code)
	}

	// Assert headers
	{
		for name := range testCase.Expected.Headers {
			assert.Equal(t, testCase.Expected.Headers.Get(name), recorder.Header().Get(name), "header %s", name)
		}
	}

	// Assert body
	if testCase.Expected.Body != nil {
		responseBody := strings.TrimSpace(recorder.Body.String())
		expectedBody := ""
		switch typedBody := testCase.Expected.Body.(type) {
		case string:
			expectedBody = typedBody
		default:
			jsonBytes, err := json.Marshal(typedBody)
			assert.NilError(t, err)
			expectedBody = string(jsonBytes)
		}

		assert.Equal(t, expectedBody, responseBody)
	}

	return recorder
}
