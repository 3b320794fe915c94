package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase represents a test case for HTTP handler testing.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           interface{}
	Headers        map[string]string
	ExpectedStatus int
	ExpectedBody   map[string]interface{}
	Setup          func(t *testing.T, tc *TestContext)
	Validate       func(t *testing.T, tc *TestContext)
}

// RunHTTPTestCases runs a slice of HTTP test cases against a handler.
func RunHTTPTestCases(t *testing.T, handler gin.HandlerFunc, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase runs a single HTTP test case.
func RunHTTPTestCase(t *testing.T, handler gin.HandlerFunc, tc HTTPTestCase) {
	t.Helper()

	var body io.Reader
	if tc.Body != nil {
		jsonBody, err := json.Marshal(tc.Body)
		require.NoError(t, err, "Failed to marshal request body")
		body = bytes.NewReader(jsonBody)
	}

	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}

	req := httptest.NewRequest(method, path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}

	ctx := NewTestContextWithRequest(t, req)

	if tc.Setup != nil {
		tc.Setup(t, ctx)
	}

	handler(ctx.Context)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, ctx.ResponseCode(), "Unexpected status code")
	}

	if tc.ExpectedBody != nil {
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(ctx.ResponseBody(), &got), "Response is not valid JSON")
		for key, want := range tc.ExpectedBody {
			assert.Equal(t, want, got[key], "Unexpected value for response key %q", key)
		}
	}

	if tc.Validate != nil {
		tc.Validate(t, ctx)
	}
}

// DecodeResponse unmarshals the recorded response body into target.
func DecodeResponse(t *testing.T, tc *TestContext, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(tc.ResponseBody(), target), "Failed to decode response")
}
