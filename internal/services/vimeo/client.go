package vimeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelscout/internal/services"
)

const acceptHeader = "application/vnd.vimeo.*+json;version=3.4"

// Video is a single search hit as returned by the Vimeo API.
type Video struct {
	Name        string `json:"name"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	CreatedTime string `json:"created_time"`
	Stats       struct {
		Plays int64 `json:"plays"`
	} `json:"stats"`
	User struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"user"`
}

// Page models one page of the Vimeo search response.
type Page struct {
	Total  int     `json:"total"`
	PageNo int     `json:"page"`
	Data   []Video `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

// HasMore reports whether the API advertises a further page.
func (p *Page) HasMore() bool {
	return p != nil && strings.TrimSpace(p.Paging.Next) != ""
}

// Searcher defines the search operation the fetcher consumes.
type Searcher interface {
	Search(ctx context.Context, query string, page, perPage int) (*Page, error)
}

// Client provides access to the Vimeo search API using a bearer credential.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Vimeo search client.
func New(token, baseURL string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("vimeo api token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("vimeo base url required")
	}
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search fetches one page of results for the supplied query. Credential
// failures are tagged services.ErrAuth; timeouts and server errors are tagged
// services.ErrTransient so the caller can skip the remaining pages of the
// affected query without aborting the run.
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	endpoint, err := url.Parse(c.baseURL + "/videos")
	if err != nil {
		return nil, fmt.Errorf("parse vimeo url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "vimeo", "search",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrAuth, "vimeo", "search",
			fmt.Sprintf("credential rejected with status %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "vimeo", "search",
			fmt.Sprintf("status %d (latency=%v)", resp.StatusCode, latency), nil)
	default:
		return nil, services.Wrap(services.ErrMalformed, "vimeo", "search",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload Page
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrMalformed, "vimeo", "search", "decode response", err)
	}
	return &payload, nil
}
