package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRowCache is a mock implementation of RowCacheAdmin
type MockRowCache struct {
	mock.Mock
}

func (m *MockRowCache) GetStats() cache.RowCacheStats {
	args := m.Called()
	return args.Get(0).(cache.RowCacheStats)
}

func (m *MockRowCache) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestCacheHandler_GetCacheStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockCache := &MockRowCache{}
	mockCache.On("GetStats").Return(cache.RowCacheStats{Hits: 3, Misses: 1, Sets: 1})
	handler := NewCacheHandler(mockCache)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil)
	handler.GetCacheStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Hits    int64   `json:"hits"`
			HitRate float64 `json:"hit_rate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(3), body.Data.Hits)
	assert.InDelta(t, 75.0, body.Data.HitRate, 1e-9)
	mockCache.AssertExpectations(t)
}

func TestCacheHandler_ClearCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"cleared", nil, http.StatusOK},
		{"redis down", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCache := &MockRowCache{}
			mockCache.On("Clear", mock.Anything).Return(tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil)
			NewCacheHandler(mockCache).ClearCache(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "connection refused")
			mockCache.AssertExpectations(t)
		})
	}
}
