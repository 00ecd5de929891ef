// Package newsapi is a small client for the newsapi.org "everything" endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingAPIKey = errors.New("news api key is not configured")
	ErrUnauthorized  = errors.New("news api rejected the api key")
	ErrRateLimited   = errors.New("news api rate limit exceeded")
	ErrMalformed     = errors.New("malformed news api response")
)

// APIError is an error reported by the service in the response body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("news api error %s (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type Config struct {
	BaseURL    string
	APIKey     string
	PageSize   int
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

type Article struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type response struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://newsapi.org/v2"
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		pageSize:   config.PageSize,
		httpClient: config.HTTPClient,
	}
}

// Search queries /everything for query and returns the articles in
// response order. Status handling:
//   - 401 → ErrUnauthorized, 429 → ErrRateLimited
//   - any other non-200, or a body with status "error" → *APIError
//   - undecodable JSON → ErrMalformed
func (c *Client) Search(ctx context.Context, query string) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	if c.pageSize > 0 {
		params.Set("pageSize", strconv.Itoa(c.pageSize))
	}
	apiURL := fmt.Sprintf("%s/everything?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read news api response: %w", err)
	}

	var parsed response
	decodeErr := json.Unmarshal(body, &parsed)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, parsed.Message)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, parsed.Message)
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Code: parsed.Code, Message: parsed.Message}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
	}
	if parsed.Status != "ok" {
		return nil, &APIError{StatusCode: resp.StatusCode, Code: parsed.Code, Message: parsed.Message}
	}

	return parsed.Articles, nil
}
