package idp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthy_OKResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHealthChecker(srv.URL, "k", time.Second, time.Minute, nil)
	assert.True(t, h.Healthy(context.Background()))
}

func TestHealthy_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewHealthChecker(srv.URL, "k", time.Second, time.Minute, nil)
	assert.False(t, h.Healthy(context.Background()))
}

func TestHealthy_TimeoutIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHealthChecker(srv.URL, "k", 20*time.Millisecond, time.Minute, nil)
	assert.False(t, h.Healthy(context.Background()))
}

func TestHealthy_ResultIsCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHealthChecker(srv.URL, "k", time.Second, time.Minute, nil)
	assert.True(t, h.Healthy(context.Background()))
	assert.True(t, h.Healthy(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestHealthy_UnreachableHost(t *testing.T) {
	h := NewHealthChecker("http://127.0.0.1:1", "k", 100*time.Millisecond, time.Minute, nil)
	assert.False(t, h.Healthy(context.Background()))
}
