package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/logger"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// ErrUnexpectedStatus is returned when a page answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status code")

type ScraperConfig struct {
	BaseURL           string
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	UserAgent         string
	MaxBodyBytes      int64
	OnProgress        func(url string)
	Logger            *logger.Logger
}

// Scraper fetches single pages for evaluation and crawls sites for indexing.
// Both are safe for concurrent use.
type Scraper struct {
	config   ScraperConfig
	client   *http.Client
	limiter  *rate.Limiter
	baseHost string
	log      *logger.Logger
}

// Page is a fetched response body decoded to UTF-8.
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

func NewWithConfig(config ScraperConfig) (*Scraper, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxDepth == 0 {
		config.MaxDepth = 1
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	if config.UserAgent == "" {
		config.UserAgent = "civis/1.0"
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 10 << 20
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}

	var baseHost string
	if config.BaseURL != "" {
		parsedURL, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, err
		}
		baseHost = parsedURL.Host
	}

	return &Scraper{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		baseHost: baseHost,
		log:      config.Logger,
	}, nil
}

// Fetch retrieves a single URL and decodes its body to UTF-8.
func (s *Scraper) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", urlStr, err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d for URL: %s", ErrUnexpectedStatus, resp.StatusCode, urlStr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.config.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", urlStr, err)
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeUTF8(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode body of %s: %w", urlStr, err)
	}

	return &Page{
		URL:         urlStr,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// Document parses the page body as HTML.
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
}

// FetchArticle fetches a page and extracts its text and byline metadata.
func (s *Scraper) FetchArticle(ctx context.Context, urlStr string) (*models.Article, error) {
	page, err := s.Fetch(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}

	return ExtractArticle(urlStr, doc), nil
}

func decodeUTF8(data []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return nil, err
		}
		return data, nil
	}
	return decoded, nil
}
