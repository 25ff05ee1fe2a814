package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Client talks to the drift backend: library CRUD, auth and note generation.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	notes     *lru.Cache[string, string]
	moods     *lru.Cache[string, []string]
}

const (
	defaultAPIBase   = "127.0.0.1:5000"
	defaultUserAgent = "drift/0.1"
	defaultTimeout   = 10 * time.Second
	noteCacheSize    = 256
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client for apiBase (host:port or a full URL). A zero
// timeout uses the default.
func NewClient(apiBase string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cache, err := lru.New[string, string](noteCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init note cache: %w", err)
	}
	moods, err := lru.New[string, []string](noteCacheSize)
	if err != nil {
		return nil, fmt.Errorf("init mood cache: %w", err)
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		notes:     cache,
		moods:     moods,
	}, nil
}

// SetHTTPClient swaps the transport, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.http = hc
	}
}

// BaseURL reports the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type request struct {
	op     string
	method string
	path   string
	token  string
	body   any
}

func (c *Client) do(ctx context.Context, r request, dest any) error {
	var payload io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", r.op, err)
		}
		payload = bytes.NewReader(data)
	}

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: r.path})
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), payload)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: r.op, Err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &NotAuthenticatedError{Op: r.op, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return &NetworkError{
			Op:     r.op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("api %s returned status %d%s", r.path, resp.StatusCode, errorDetail(resp.Body)),
		}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &NetworkError{Op: r.op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorDetail extracts the backend's {"error": "..."} message when present.
func errorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || strings.TrimSpace(payload.Error) == "" {
		return ""
	}
	return ": " + strings.TrimSpace(payload.Error)
}

func statusOf(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Status
	}
	return 0
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
