package controlcenter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL       = "http://localhost:4010"
	defaultTimeout       = 10 * time.Second
	maxResponseSizeBytes = 2 << 20
)

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:4010"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client talks to the control-center JSON API. One instance owns one
// connection pool; every method issues at most one request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	closeOnce  sync.Once
}

func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid control center url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		logger: log.Logger,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Close releases pooled connections. It is idempotent and does not interrupt
// requests that are still in flight.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
	})
	return nil
}

func (c *Client) GetGlobalContext(ctx context.Context) (any, error) {
	return c.requestJSON(ctx, http.MethodGet, "/global/context", nil)
}

// GetProjectStatus resolves projectID against the /repos listing, matching id
// or name exactly (case-insensitive) before falling back to a substring match.
func (c *Client) GetProjectStatus(ctx context.Context, projectID string) (map[string]any, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, validationError("Project id is required.")
	}
	payload, err := c.requestJSON(ctx, http.MethodGet, "/repos", nil)
	if err != nil {
		return nil, err
	}
	projects, ok := payload.([]any)
	if !ok {
		return nil, &Error{Kind: KindAPI, Message: "control center response for /repos was not a list."}
	}
	match := selectProjectSummary(projects, projectID)
	if match == nil {
		return nil, notFoundError(fmt.Sprintf("Project '%s' not found.", projectID))
	}
	return match, nil
}

func (c *Client) GetShiftContext(ctx context.Context, projectID string) (any, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, validationError("Project id is required.")
	}
	return c.requestJSON(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/shift-context", nil)
}

func (c *Client) ResolvePeopleByEmails(ctx context.Context, emails []string, projectID string) (map[string]any, error) {
	cleaned := make([]string, 0, len(emails))
	for _, email := range emails {
		if trimmed := strings.TrimSpace(email); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return map[string]any{"participants": []any{}}, nil
	}

	body := map[string]any{"emails": cleaned}
	if projectID != "" {
		body["project_id"] = projectID
	}
	resp, err := c.requestJSON(ctx, http.MethodPost, "/people/resolve", body)
	if err != nil {
		return nil, err
	}
	if resolved, ok := resp.(map[string]any); ok {
		return resolved, nil
	}
	return map[string]any{"participants": []any{}}, nil
}

func (c *Client) SendCommunication(ctx context.Context, req CommunicationRequest) (any, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, validationError("Project id is required.")
	}
	if strings.TrimSpace(req.Intent) == "" {
		return nil, validationError("Communication intent is required.")
	}
	if strings.TrimSpace(req.Summary) == "" {
		return nil, validationError("Communication summary is required.")
	}
	return c.requestJSON(ctx, http.MethodPost, "/projects/"+url.PathEscape(req.ProjectID)+"/communications", req.body())
}

func (c *Client) CreateWorkOrder(ctx context.Context, projectID string, data map[string]any) (any, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, validationError("Project id is required.")
	}
	return c.requestJSON(ctx, http.MethodPost, "/repos/"+url.PathEscape(projectID)+"/work-orders", data)
}

func (c *Client) PatchWorkOrder(ctx context.Context, projectID, workOrderID string, data map[string]any) (any, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, validationError("Project id is required.")
	}
	if strings.TrimSpace(workOrderID) == "" {
		return nil, validationError("Work order id is required.")
	}
	path := "/repos/" + url.PathEscape(projectID) + "/work-orders/" + url.PathEscape(workOrderID)
	return c.requestJSON(ctx, http.MethodPatch, path, data)
}

func (c *Client) requestJSON(ctx context.Context, method, path string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, validationError(fmt.Sprintf("Request body could not be encoded: %v", err))
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutError(err)
		}
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutError(err)
		}
		return nil, transportError(err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("control center request failed")
		return nil, statusError(resp.StatusCode, errorMessageFromBody(raw))
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, decodeError(err)
	}
	return parsed, nil
}

func errorMessageFromBody(raw []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	message, _ := payload["error"].(string)
	return strings.TrimSpace(message)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func selectProjectSummary(projects []any, query string) map[string]any {
	normalized := normalize(query)
	if normalized == "" {
		return nil
	}

	for _, item := range projects {
		project, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, name := projectKeys(project)
		if id == normalized || name == normalized {
			return project
		}
	}

	for _, item := range projects {
		project, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, name := projectKeys(project)
		if strings.Contains(id, normalized) || strings.Contains(name, normalized) {
			return project
		}
	}
	return nil
}

func projectKeys(project map[string]any) (string, string) {
	id, _ := project["id"].(string)
	name, _ := project["name"].(string)
	return normalize(id), normalize(name)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
