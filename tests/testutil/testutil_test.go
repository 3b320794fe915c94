package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/factory/backend/internal/interfaces/http/middleware"
)

func TestNewMockDB(t *testing.T) {
	mock := NewMockDB(t)
	defer mock.Close()

	require.NotNil(t, mock.DB)
	require.NotNil(t, mock.Mock)
	mock.ExpectationsWereMet(t)
}

func TestNewTestUUID_Deterministic(t *testing.T) {
	a := NewTestUUID("material-1")
	b := NewTestUUID("material-1")
	c := NewTestUUID("material-2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestTestContext_SetActor(t *testing.T) {
	tc := NewTestContext(t)
	tc.SetActor("alice", middleware.CapabilityProductionAdmin)

	assert.Equal(t, "alice", middleware.GetActor(tc.Context))
	assert.True(t, middleware.HasCapability(tc.Context, middleware.CapabilityProductionAdmin))
	assert.False(t, middleware.HasCapability(tc.Context, "production:reader"))
}

func TestRunHTTPTestCase(t *testing.T) {
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	}

	RunHTTPTestCase(t, handler, HTTPTestCase{
		Name:           "ok",
		Method:         http.MethodGet,
		Path:           "/ping",
		ExpectedStatus: http.StatusOK,
		ExpectedBody:   map[string]interface{}{"success": true},
	})
}

func TestNewTestContextWithRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/production/batches", nil)
	req.Header.Set("X-Actor", "bob")

	tc := NewTestContextWithRequest(t, req)
	assert.Equal(t, http.MethodPost, tc.Context.Request.Method)
	assert.Equal(t, "bob", tc.Context.Request.Header.Get("X-Actor"))
}
