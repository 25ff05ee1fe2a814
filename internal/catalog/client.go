package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/five82/drift/internal/shelf"
)

const (
	DefaultBaseURL    = "https://www.googleapis.com/books/v1"
	DefaultMaxResults = 20
	maxResultsCap     = 40
	cacheSize         = 128
	defaultRPS        = 5
	userAgent         = "drift/0.1"
)

// Book is one catalog search result.
type Book struct {
	ExternalID   string
	Title        string
	Authors      []string
	ThumbnailURL string
	Description  string
	Categories   []string
}

// Record turns a search result into a shelf record added at now.
func (b Book) Record(now time.Time) shelf.BookRecord {
	return shelf.BookRecord{
		ExternalID:   b.ExternalID,
		Title:        b.Title,
		Authors:      append([]string(nil), b.Authors...),
		ThumbnailURL: b.ThumbnailURL,
		AddedAt:      now.UTC(),
	}
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Timeout time.Duration
}

// Client searches the public volumes endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	cache      *lru.Cache[string, []Book]
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse catalog_url %q: %w", opts.BaseURL, err)
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cache, err := lru.New[string, []Book](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("init catalog cache: %w", err)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		apiKey:     strings.TrimSpace(opts.APIKey),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		cache:      cache,
	}, nil
}

// SetHTTPClient swaps the transport, mainly for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// Search runs a free-text query. An empty query returns no results without a
// request. limit is clamped to 1..40, with zero meaning the default.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	limit = clampLimit(limit)

	key := strings.ToLower(query) + "\x00" + strconv.Itoa(limit)
	if books, ok := c.cache.Get(key); ok {
		return cloneBooks(books), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search %q: create request: %w", query, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: execute request: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: catalog returned status %d", query, resp.StatusCode)
	}
	var payload volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("search %q: decode response: %w", query, err)
	}

	books := make([]Book, 0, len(payload.Items))
	for _, item := range payload.Items {
		if b, ok := item.book(); ok {
			books = append(books, b)
		}
	}
	c.cache.Add(key, books)
	return cloneBooks(books), nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	return min(n, maxResultsCap)
}

func cloneBooks(in []Book) []Book {
	out := make([]Book, len(in))
	for i, b := range in {
		b.Authors = append([]string(nil), b.Authors...)
		b.Categories = append([]string(nil), b.Categories...)
		out[i] = b
	}
	return out
}
