package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxCreate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sandboxes", r.URL.Path)
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		assert.Equal(t, "t1", r.Header.Get("X-Team-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "base", body["templateID"])

		_ = json.NewEncoder(w).Encode(map[string]string{"sandboxID": "sbx-42"})
	}))
	defer srv.Close()

	svc := NewSandboxService(srv.URL, "", nil)
	id, err := svc.Create(context.Background(), "at-1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "sbx-42", id)
}

func TestSandboxCreate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewSandboxService(srv.URL, "base", nil)
	_, err := svc.Create(context.Background(), "at-1", "t1")
	require.Error(t, err)
}

func TestSandboxCreate_EmptySandboxID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	svc := NewSandboxService(srv.URL, "base", nil)
	_, err := svc.Create(context.Background(), "at-1", "t1")
	require.Error(t, err)
}
