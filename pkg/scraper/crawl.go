package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/civis/internal/models"
)

// Boilerplate stripped from crawled page text.
var pageNoise = []string{
	"Cookie Policy",
	"Accept Cookies",
	"Privacy Policy",
	"Terms of Service",
}

// Containers tried in order for a page's main text before falling back to <body>.
var mainContentSelectors = []string{"main", "article", ".content", "#content"}

type queued struct {
	url   string
	depth int
}

// Crawl walks same-host links breadth first from startURL up to MaxDepth
// and returns one document per visited page. Pages that fail after the
// first are logged and skipped.
func (s *Scraper) Crawl(ctx context.Context, startURL string) ([]models.Document, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL %q: %w", startURL, err)
	}
	host := s.baseHost
	if host == "" {
		host = start.Host
	}

	var documents []models.Document
	visited := map[string]bool{}
	queue := []queued{{url: startURL}}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if visited[next.url] || !s.allowed(next.url, host) {
			continue
		}
		visited[next.url] = true

		if err := ctx.Err(); err != nil {
			return documents, err
		}
		if s.config.OnProgress != nil {
			s.config.OnProgress(next.url)
		}

		doc, links, err := s.crawlPage(ctx, next.url, next.depth)
		if err != nil {
			if next.depth == 0 {
				return nil, err
			}
			s.log.Warn("error crawling URL", "url", next.url, "error", err)
			continue
		}
		documents = append(documents, doc)

		if next.depth < s.config.MaxDepth {
			for _, link := range links {
				if !visited[link] {
					queue = append(queue, queued{url: link, depth: next.depth + 1})
				}
			}
		}
	}

	return documents, nil
}

// crawlPage fetches one page and returns its document and outgoing links.
func (s *Scraper) crawlPage(ctx context.Context, pageURL string, depth int) (models.Document, []string, error) {
	page, err := s.Fetch(ctx, pageURL)
	if err != nil {
		return models.Document{}, nil, err
	}
	doc, err := page.Document()
	if err != nil {
		return models.Document{}, nil, err
	}

	document := models.Document{
		ID:      pageURL,
		URL:     pageURL,
		Title:   strings.TrimSpace(doc.Find("title").First().Text()),
		Content: mainContent(doc),
		Metadata: map[string]interface{}{
			"depth":       depth,
			"time":        time.Now().UTC().Format(time.RFC3339),
			"contentType": page.ContentType,
		},
	}
	return document, s.links(pageURL, doc), nil
}

// links resolves every anchor on the page against its URL, fragments removed.
func (s *Scraper) links(pageURL string, doc *goquery.Document) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			s.log.Debug("skipping unparsable link", "href", href, "error", err)
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		out = append(out, abs.String())
	})
	return out
}

// allowed reports whether a link stays on host, ends in an allowed
// extension and matches no ignore pattern.
func (s *Scraper) allowed(link, host string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Host != host {
		return false
	}

	path := strings.ToLower(u.Path)
	extOK := false
	for _, ext := range s.config.AllowedExtensions {
		if strings.HasSuffix(path, ext) {
			extOK = true
			break
		}
	}
	if !extOK {
		return false
	}

	for _, pattern := range s.config.IgnorePatterns {
		if strings.Contains(link, pattern) {
			return false
		}
	}
	return true
}

func mainContent(doc *goquery.Document) string {
	var text string
	for _, selector := range mainContentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			text = sel.Text()
			break
		}
	}
	if text == "" {
		text = doc.Find("body").Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	for _, noise := range pageNoise {
		text = strings.ReplaceAll(text, noise, "")
	}
	return strings.TrimSpace(text)
}
