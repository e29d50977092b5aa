package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// AuditLogsEndpoint is the API endpoint for creating audit logs
	AuditLogsEndpoint = "/api/audit-logs"
	// DefaultHTTPTimeout is the default timeout for HTTP requests to the audit service
	DefaultHTTPTimeout = 10 * time.Second
)

// Client is a client for sending audit events to the audit service
type Client struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
	inflight   sync.WaitGroup
}

// NewClient creates a new audit client
// Audit can be disabled by:
//   - Setting ENABLE_AUDIT=false environment variable
//   - Providing an empty baseURL
//
// When disabled, all LogEvent calls will be no-ops.
func NewClient(baseURL string) *Client {
	if !isAuditEnabled(baseURL) {
		slog.Info("Audit client disabled",
			"reason", "ENABLE_AUDIT=false or AUDIT_SERVICE_URL not configured")
		return &Client{}
	}

	slog.Info("Audit client initialized", "baseURL", baseURL)
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
			},
		},
		enabled: true,
	}
}

// IsEnabled returns whether the audit client is enabled
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// LogEvent sends an audit event asynchronously and returns immediately.
// The send uses a background context so it outlives the request that produced it.
func (c *Client) LogEvent(_ context.Context, event *AuditLogRequest) {
	if !c.enabled || c.httpClient == nil || event == nil {
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.send(context.Background(), event); err != nil {
			slog.Error("Failed to deliver audit event", "eventType", derefString(event.EventType), "error", err)
		}
	}()
}

// Close waits for in-flight events to be delivered or for ctx to end
func (c *Client) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit client close: %w", ctx.Err())
	}
}

// send posts one event to the audit service
func (c *Client) send(ctx context.Context, event *AuditLogRequest) error {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit request: %w", err)
	}

	endpointURL, err := url.JoinPath(c.baseURL, AuditLogsEndpoint)
	if err != nil {
		return fmt.Errorf("failed to construct audit service URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(payloadBytes))
	if err != nil {
		return fmt.Errorf("failed to create audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send audit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("audit service returned status %d: %s", resp.StatusCode, string(body))
	}

	slog.Debug("Audit event logged successfully",
		"eventType", derefString(event.EventType),
		"actorType", event.ActorType,
		"status", event.Status)
	return nil
}

// isAuditEnabled checks if audit logging is enabled via environment variable
// Audit is enabled by default unless explicitly disabled via ENABLE_AUDIT=false
// or if baseURL is empty
func isAuditEnabled(baseURL string) bool {
	if baseURL == "" {
		return false
	}

	enableAudit := os.Getenv("ENABLE_AUDIT")
	if enableAudit == "" {
		return true
	}

	enableAuditLower := strings.ToLower(strings.TrimSpace(enableAudit))
	return enableAuditLower == "true" || enableAuditLower == "1" || enableAuditLower == "yes"
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
