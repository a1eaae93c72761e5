package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"factorylink/internal/dto"
	"factorylink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": c.GetString(RequestIDKey)}) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })
	return r
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	r := testEngine(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), "abc-123")
}

func TestRecovery_HidesPanic(t *testing.T) {
	r := testEngine(RequestID(), Recovery())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestErrorHandler_HidesInternalError(t *testing.T) {
	r := testEngine(ErrorHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db exploded")
}

func TestErrorHandler_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &service.NotFoundError{Entity: "order"}, http.StatusNotFound},
		{"validation", fmt.Errorf("%w: bad quantity", service.ErrValidation), http.StatusUnprocessableEntity},
		{"bom", service.ErrBOMNotConfigured, http.StatusUnprocessableEntity},
		{"unmapped", fmt.Errorf("push: %w", service.ErrProductNotMapped), http.StatusUnprocessableEntity},
		{"transition", &service.TransitionError{From: "shipped", To: "new"}, http.StatusConflict},
		{"in use", service.ErrMaterialInUse, http.StatusConflict},
		{"shortfall", &service.InsufficientMaterialsError{Shortfalls: []dto.MaterialShortfall{{MaterialName: "oak"}}}, http.StatusConflict},
		{"contention", service.ErrConcurrentModification, http.StatusServiceUnavailable},
		{"external", service.ErrExternalSystemUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestErrorHandler_LeavesWrittenResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	r := testEngine(RateLimiter(2, time.Minute))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimiter_PurgeDropsExpired(t *testing.T) {
	rl := &rateLimiter{limit: 1, window: time.Minute, entries: map[string]*rateEntry{
		"10.0.0.1": {windowEnd: time.Now().Add(-time.Second)},
		"10.0.0.2": {windowEnd: time.Now().Add(time.Minute)},
	}}

	require.Equal(t, 1, rl.purge(time.Now()))
	assert.Contains(t, rl.entries, "10.0.0.2")
}

func TestCORS_Preflight(t *testing.T) {
	r := testEngine(CORS())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}
