package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client talks to the notes/tasks REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       logrus.FieldLogger
	requestID func() string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

const (
	// DefaultBaseURL is the hosted API.
	DefaultBaseURL   = "https://keep.kevindupas.com/api"
	defaultUserAgent = "keep/0.1"
	fallbackMessage  = "api error"
	requestIDHeader  = "X-Request-ID"
)

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		log:       logrus.StandardLogger(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	if c == nil {
		return LoginResponse{}, fmt.Errorf("client is nil")
	}
	body := LoginRequest{Email: email, Password: password}
	var payload LoginResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", body, "", &payload); err != nil {
		return LoginResponse{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return LoginResponse{}, fmt.Errorf("login response missing access token")
	}
	return payload, nil
}

// ListCategories retrieves every category of the signed-in user.
func (c *Client) ListCategories(ctx context.Context, token string) ([]CategoryPayload, error) {
	return list[CategoryPayload](ctx, c, "/categories", token)
}

// CreateCategory posts a new category.
func (c *Client) CreateCategory(ctx context.Context, token string, in CategoryInput) (CategoryPayload, error) {
	return send[CategoryPayload](ctx, c, http.MethodPost, "/categories", in, token)
}

// UpdateCategory replaces the category identified by id.
func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, in CategoryInput) (CategoryPayload, error) {
	return send[CategoryPayload](ctx, c, http.MethodPut, itemPath("/categories", id), in, token)
}

// DeleteCategory removes the category identified by id.
func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.Do(ctx, http.MethodDelete, itemPath("/categories", id), nil, token, nil)
}

// ListNotes retrieves every note; category_ids are returned raw.
func (c *Client) ListNotes(ctx context.Context, token string) ([]NotePayload, error) {
	return list[NotePayload](ctx, c, "/notes", token)
}

// CreateNote posts a new note.
func (c *Client) CreateNote(ctx context.Context, token string, in NoteInput) (NotePayload, error) {
	return send[NotePayload](ctx, c, http.MethodPost, "/notes", in, token)
}

// UpdateNote replaces the note identified by id.
func (c *Client) UpdateNote(ctx context.Context, token string, id int64, in NoteInput) (NotePayload, error) {
	return send[NotePayload](ctx, c, http.MethodPut, itemPath("/notes", id), in, token)
}

// DeleteNote removes the note identified by id.
func (c *Client) DeleteNote(ctx context.Context, token string, id int64) error {
	return c.Do(ctx, http.MethodDelete, itemPath("/notes", id), nil, token, nil)
}

// ListTasks retrieves every task with optional fields left as sent.
func (c *Client) ListTasks(ctx context.Context, token string) ([]TaskPayload, error) {
	return list[TaskPayload](ctx, c, "/tasks", token)
}

// CreateTask posts a new task.
func (c *Client) CreateTask(ctx context.Context, token string, in TaskInput) (TaskPayload, error) {
	return send[TaskPayload](ctx, c, http.MethodPost, "/tasks", in, token)
}

// UpdateTask replaces the task identified by id.
func (c *Client) UpdateTask(ctx context.Context, token string, id int64, in TaskInput) (TaskPayload, error) {
	return send[TaskPayload](ctx, c, http.MethodPut, itemPath("/tasks", id), in, token)
}

// DeleteTask removes the task identified by id.
func (c *Client) DeleteTask(ctx context.Context, token string, id int64) error {
	return c.Do(ctx, http.MethodDelete, itemPath("/tasks", id), nil, token, nil)
}

func list[T any](ctx context.Context, c *Client, path, token string) ([]T, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []T
	if err := c.Do(ctx, http.MethodGet, path, nil, token, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = []T{}
	}
	return payload, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body any, token string) (T, error) {
	var payload T
	if c == nil {
		return payload, fmt.Errorf("client is nil")
	}
	if err := c.Do(ctx, method, path, body, token, &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

// Do issues a single JSON request against the API. A non-empty token is sent
// as a bearer credential. Non-2xx responses become *Error carrying the
// server's message. Successful bodies are decoded into dest after unwrapping
// an optional {"data": ...} envelope.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := sonic.ConfigStd.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := c.requestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	entry := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	entry.Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: serverMessage(raw),
		}
		entry.WithField("status", resp.StatusCode).Debug("api request failed")
		return apiErr
	}

	if dest == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(unwrapEnvelope(trimmed), dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return u.String()
}

// serverMessage extracts the "message" field of an error body.
func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := sonic.ConfigStd.Unmarshal(raw, &body); err != nil {
		return fallbackMessage
	}
	if msg := strings.TrimSpace(body.Message); msg != "" {
		return msg
	}
	return fallbackMessage
}

// unwrapEnvelope returns the "data" member when the body is an object that
// carries one, and the body itself otherwise. A null data member decodes as
// an empty result.
func unwrapEnvelope(raw []byte) []byte {
	if len(raw) == 0 || raw[0] != '{' {
		return raw
	}
	node, err := sonic.Get(raw, "data")
	if err != nil || !node.Exists() {
		return raw
	}
	data, err := node.Raw()
	if err != nil {
		return raw
	}
	if data = strings.TrimSpace(data); data == "" {
		return raw
	}
	return []byte(data)
}

func itemPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
