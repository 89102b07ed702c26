// Package apiclient talks to the catalog HTTP API. It backs the admin console
// and signs administrators in for onlyhatectl.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"onlyhate/internal/admin"
	"onlyhate/internal/auth"
	"onlyhate/internal/catalog"
)

var (
	_ admin.Catalog = (*Client)(nil)
	_ auth.Verifier = (*Client)(nil)
)

// StatusError is returned for responses that map to no known error.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: %d %s - %s", e.Code, http.StatusText(e.Code), e.Message)
}

// Client is a catalog API client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken starts the client with a bearer token from an earlier login.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken replaces the bearer token used for admin calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

type request struct {
	method  string
	path    string
	body    any
	ifMatch *int64
	kind    catalog.Kind
}

// do sends req and decodes a successful response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) (int, error) {
	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL.String()+req.path, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.ifMatch != nil {
		httpReq.Header.Set("If-Match", strconv.Quote(strconv.FormatInt(*req.ifMatch, 10)))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(req, resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func decodeError(req request, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if len(body.Fields) > 0 {
			verr := &catalog.ValidationError{Kind: req.kind}
			for _, field := range slices.Sorted(maps.Keys(body.Fields)) {
				verr.Fields = append(verr.Fields, catalog.FieldError{Field: field, Message: body.Fields[field]})
			}
			return verr
		}
	case http.StatusUnauthorized:
		if req.path == loginPath {
			return auth.ErrInvalidCredentials
		}
		return fmt.Errorf("%s: %w", body.Error, auth.ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", body.Error, catalog.ErrNotFound)
	case http.StatusConflict:
		if req.ifMatch != nil {
			return fmt.Errorf("%s: %w", body.Error, catalog.ErrVersionConflict)
		}
		return fmt.Errorf("%s: %w", body.Error, catalog.ErrDuplicateID)
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Error}
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var serr *StatusError
	return errors.As(err, &serr) && serr.Code == code
}
