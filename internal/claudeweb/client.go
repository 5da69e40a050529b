// Package claudeweb is an HTTP client for the unofficial Claude.ai web API.
//
// Requests authenticate with a sessionKey cookie read from a KeySource on
// every call, so a key replaced at runtime takes effect immediately. The
// client does not retry and enforces no timeout of its own; callers bound
// requests via context.
package claudeweb

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Claude.ai web API root.
const DefaultBaseURL = "https://api.claude.ai/api"

// userAgent mimics a browser; the web API rejects obvious non-browser
// clients.
const userAgent = "Mozilla/5.0"

// KeySource supplies the current session key. An empty key with a nil error
// means no session is stored.
type KeySource interface {
	SessionKey(ctx context.Context) (string, error)
}

// Client talks to the Claude.ai web API on behalf of one session.
type Client struct {
	baseURL string
	keys    KeySource
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets a custom transport, used by tests to stub the upstream.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// New creates a Client for the given API root. An empty baseURL selects
// DefaultBaseURL.
func New(baseURL string, keys KeySource, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		keys:    keys,
		// Client.Timeout = 0 allows long-running completion streams;
		// cancellation comes from the request context.
		http: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOrganizations returns the organizations the session key has access to.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var orgs []Organization
	if err := c.doJSON(ctx, http.MethodGet, "/organizations", nil, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListProjects returns the projects of an organization.
func (c *Client) ListProjects(ctx context.Context, orgID string) ([]Project, error) {
	var projects []Project
	path := fmt.Sprintf("/organizations/%s/projects", orgID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project in an organization.
func (c *Client) CreateProject(ctx context.Context, orgID, name, description string) (*Project, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"is_private":  true,
	}
	var project Project
	path := fmt.Sprintf("/organizations/%s/projects", orgID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListChats returns the chat conversations of an organization.
func (c *Client) ListChats(ctx context.Context, orgID string) ([]Chat, error) {
	var chats []Chat
	path := fmt.Sprintf("/organizations/%s/chat_conversations", orgID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// CreateChat creates a chat conversation in an organization. projectID may
// be empty for a chat outside any project.
func (c *Client) CreateChat(ctx context.Context, orgID, projectID, name string) (*Chat, error) {
	body := map[string]any{
		"name": name,
	}
	if projectID != "" {
		body["project_uuid"] = projectID
	}
	var chat Chat
	path := fmt.Sprintf("/organizations/%s/chat_conversations", orgID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// SendMessage appends a prompt to a chat and streams the assistant's reply.
// The returned sequence yields completion events in delivery order; request
// setup failures are returned immediately, in-stream failures through the
// iterator.
func (c *Client) SendMessage(ctx context.Context, orgID, chatID, prompt string) (iter.Seq2[CompletionEvent, error], error) {
	body := map[string]any{
		"completion": map[string]any{
			"prompt":   prompt,
			"timezone": time.Local.String(),
		},
		"organization_uuid": orgID,
		"conversation_uuid": chatID,
	}

	path := fmt.Sprintf("/organizations/%s/chat_conversations/%s/completion", orgID, chatID)
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("API request failed: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(resp.Body)
		return nil, newHTTPError(resp.StatusCode, payload)
	}

	return func(yield func(CompletionEvent, error) bool) {
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "" {
				continue
			}

			var event CompletionEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				// Skip frames that are not completion events (pings etc.).
				continue
			}
			if !yield(event, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(CompletionEvent{}, &APIError{Message: fmt.Sprintf("reading completion stream: %v", err)})
		}
	}, nil
}

// newRequest builds a request with the session cookie and standard headers.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	key, err := c.keys.SessionKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session key: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "sessionKey", Value: key})
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// doJSON executes a request and decodes a JSON response body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("API request failed: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("reading response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Invalid JSON response from API: %v", err),
		}
	}
	return nil
}
