// Package authapi is the HTTP client for the remote authentication API. It
// speaks JSON over POST to the login and registration endpoints and turns
// non-2xx answers into *ResponseError values.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/nicauth/internal/ctxlog"
)

const (
	LoginPath    = "/api/auth/login"
	RegisterPath = "/api/auth/register"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

var (
	// ErrMalformedResponse is returned when a 2xx body is not the expected JSON.
	ErrMalformedResponse = errors.New("malformed response body")
	// ErrMissingToken is returned when a successful login carries no token.
	ErrMissingToken = errors.New("login response has no token")
)

// ResponseError is a non-2xx answer from the API. Message is the server's
// "message" field and may be empty.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds the transport used by Client. A zero timeout means
// requests are never cut short by the client.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// New creates a client for baseURL. A nil httpClient gets NewHTTPClient(0).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle keep-alive connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Login posts credentials to the login endpoint and returns the issued token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, LoginPath, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrMissingToken
	}
	return &resp, nil
}

// Register posts a new account to the registration endpoint.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.post(ctx, RegisterPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	requestID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("path", path, "request_id", requestID)

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	logger.Debug("Sending auth request.")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("Auth request failed to complete.", "error", err)
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	logger.Info("Received auth response.", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageBody
		// A body that is not JSON still yields a ResponseError, just without
		// a server message.
		_ = json.Unmarshal(body, &msg)
		return &ResponseError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
