package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/praveen-kumars/pillremander-sub001/config"

	"github.com/sirupsen/logrus"
)

var (
	// ErrRemoteUnavailable covers transport failures and 5xx responses.
	// Reads degrade to the local tiers when they see it.
	ErrRemoteUnavailable = errors.New("remote service unavailable")
	// ErrUnauthorized covers 401/403: bad credentials or a dead session.
	ErrUnauthorized = errors.New("remote authentication failed")
	// ErrConflict covers 409: the resource already exists.
	ErrConflict = errors.New("remote resource conflict")
	// ErrNotFound covers 404.
	ErrNotFound = errors.New("remote resource not found")
)

const retryBaseDelay = 250 * time.Millisecond

// apiError is a non-2xx response that maps to no sentinel.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("remote error: status=%d body=%s", e.StatusCode, e.Body)
}

// Client is the low-level HTTP client for the account backend. It holds the
// current access token in memory; the durable copy lives in the cache tier.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient *http.Client
	log        *logrus.Logger

	mu          sync.RWMutex
	accessToken string
}

func NewClient(cfg config.RemoteConfig, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) ClearAccessToken() {
	c.SetAccessToken("")
}

// doJSON performs a JSON request against the backend. Transport failures and
// 5xx responses are retried with exponential backoff; 4xx never retries.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrRemoteUnavailable, ctx.Err())
			case <-time.After(delay):
			}
			c.log.Debugf("Retrying %s %s (attempt %d)", method, path, attempt+1)
		}

		retryable, err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

// attempt runs one request. The bool reports whether the failure is worth
// retrying.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if token := c.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("%w: status=%d", ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return false, ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return false, ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}
	return false, nil
}
