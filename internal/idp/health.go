package idp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const healthCacheKey = "provider_health"

// HealthChecker probes the identity provider's liveness endpoint. It is
// consulted before user-initiated auth attempts so an outage surfaces as one
// clear message instead of a slow, confusing provider error. A timed-out or
// failed probe means "unhealthy", never an error.
type HealthChecker struct {
	baseURL string
	anonKey string
	timeout time.Duration
	cache   *gocache.Cache
	httpc   *http.Client
	logger  *slog.Logger
}

// NewHealthChecker creates a probe with the given timeout and result TTL.
func NewHealthChecker(baseURL, anonKey string, timeout, cacheTTL time.Duration, logger *slog.Logger) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthChecker{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		timeout: timeout,
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
		httpc:   &http.Client{},
		logger:  logger.With("component", "idp-health"),
	}
}

// Healthy reports whether the provider answered its health endpoint with a
// 2xx recently. Results are cached for the configured TTL.
func (h *HealthChecker) Healthy(ctx context.Context) bool {
	if v, ok := h.cache.Get(healthCacheKey); ok {
		return v.(bool)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	healthy := h.probe(ctx)
	h.cache.SetDefault(healthCacheKey, healthy)
	return healthy
}

func (h *HealthChecker) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return false
	}
	req.Header.Set("apikey", h.anonKey)

	resp, err := h.httpc.Do(req)
	if err != nil {
		h.logger.Warn("provider health probe failed", "key", "idp_health:probe_failed", "error", err)
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}
