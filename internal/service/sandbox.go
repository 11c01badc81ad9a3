package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SandboxService creates sandboxes through the external compute API. The
// caller's access token and resolved team ID are forwarded as authentication
// headers; this service holds no credentials of its own.
type SandboxService struct {
	apiURL   string
	template string
	httpc    *http.Client
	logger   *slog.Logger
}

func NewSandboxService(apiURL, template string, logger *slog.Logger) *SandboxService {
	if template == "" {
		template = "base"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SandboxService{
		apiURL:   strings.TrimRight(apiURL, "/"),
		template: template,
		httpc:    &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With("component", "sandbox-service"),
	}
}

type createSandboxRequest struct {
	TemplateID string `json:"templateID"`
}

type createSandboxResponse struct {
	SandboxID string `json:"sandboxID"`
}

// Create starts a sandbox from the configured template and returns its ID.
func (s *SandboxService) Create(ctx context.Context, accessToken, teamID string) (string, error) {
	buf, err := json.Marshal(createSandboxRequest{TemplateID: s.template})
	if err != nil {
		return "", fmt.Errorf("marshal sandbox request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/sandboxes", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build sandbox request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Team-ID", teamID)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("create sandbox: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("create sandbox: unexpected status %d", resp.StatusCode)
	}

	var out createSandboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode sandbox response: %w", err)
	}
	if out.SandboxID == "" {
		return "", fmt.Errorf("create sandbox: empty sandbox ID in response")
	}
	return out.SandboxID, nil
}
