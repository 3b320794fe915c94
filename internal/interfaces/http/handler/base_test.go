package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/factory/backend/internal/domain/shared"
	"github.com/factory/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseFor(t *testing.T, serve func(c *gin.Context)) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	serve(c)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"conflict", shared.NewDomainError("CONFLICT", "already completed"), http.StatusConflict, dto.ErrCodeConflict},
		{"insufficient lots", shared.ErrInsufficientLots, http.StatusConflict, dto.ErrCodeInsufficientLots},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, dto.ErrCodeForbidden},
		{"validation", shared.NewDomainError("VALIDATION_ERROR", "bad input"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := responseFor(t, func(c *gin.Context) {
				h.HandleError(c, tt.err)
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	t.Run("internal errors hide the cause", func(t *testing.T) {
		_, resp := responseFor(t, func(c *gin.Context) {
			h.HandleError(c, errors.New("pq: connection reset"))
		})
		assert.NotContains(t, resp.Error.Message, "pq:")
	})
}
