package evidence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/internal/types"
	"github.com/xhad/civis/pkg/config"
	"github.com/xhad/civis/pkg/logger"
	"github.com/xhad/civis/pkg/newsapi"
	"github.com/xhad/civis/pkg/scraper"
)

const snippetLength = 200

// Fetcher retrieves a page; *scraper.Scraper satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*scraper.Page, error)
}

// Searcher queries a news service; *newsapi.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]newsapi.Article, error)
}

// Index is a named semantic retriever.
type Index struct {
	Name      string
	Retriever types.Retriever
}

// SemanticChannel unions the results of every index in index order,
// keeping duplicates. It fails only when every index fails.
type SemanticChannel struct {
	Indices []Index
	Log     *logger.Logger
}

func (c *SemanticChannel) Name() models.Channel { return models.ChannelSemantic }

func (c *SemanticChannel) Lookup(ctx context.Context, claim string) ([]models.Source, error) {
	log := orDiscard(c.Log)

	var sources []models.Source
	var errs []error
	for _, idx := range c.Indices {
		docs, err := idx.Retriever.Retrieve(ctx, claim)
		if err != nil {
			log.Warn("semantic index failed", "index", idx.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", idx.Name, err))
			continue
		}
		for _, doc := range docs {
			sources = append(sources, models.Source{
				Channel:  models.ChannelSemantic,
				Location: doc.SourceName(),
				Title:    doc.Title,
				Snippet:  snippet(doc.Content),
			})
		}
	}

	if len(c.Indices) > 0 && len(errs) == len(c.Indices) {
		return nil, errors.Join(errs...)
	}
	return sources, nil
}

// TrustedSitesChannel scans the visible text of each trusted home page.
type TrustedSitesChannel struct {
	Sites   []config.TrustedSite
	Fetcher Fetcher
	Log     *logger.Logger
}

func (c *TrustedSitesChannel) Name() models.Channel { return models.ChannelTrustedSites }

func (c *TrustedSitesChannel) Lookup(ctx context.Context, claim string) ([]models.Source, error) {
	log := orDiscard(c.Log)

	var sources []models.Source
	failed := 0
	for _, site := range c.Sites {
		text, err := c.pageText(ctx, site.URL)
		if err != nil {
			log.Warn("error scraping trusted site", "site", site.Name, "error", err)
			failed++
			continue
		}
		if containsClaim(text, claim) {
			sources = append(sources, models.Source{
				Channel:  models.ChannelTrustedSites,
				Location: site.URL,
				Title:    site.Name,
			})
		}
	}

	if len(c.Sites) > 0 && failed == len(c.Sites) {
		return nil, fmt.Errorf("all %d trusted sites failed", failed)
	}
	return sources, nil
}

func (c *TrustedSitesChannel) pageText(ctx context.Context, url string) (string, error) {
	page, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	doc, err := page.Document()
	if err != nil {
		return "", err
	}
	return scraper.PageText(doc), nil
}

// PredefinedChannel checks the raw body of known fact-check URLs.
type PredefinedChannel struct {
	URLs    []string
	Fetcher Fetcher
	Log     *logger.Logger
}

func (c *PredefinedChannel) Name() models.Channel { return models.ChannelPredefined }

func (c *PredefinedChannel) Lookup(ctx context.Context, claim string) ([]models.Source, error) {
	log := orDiscard(c.Log)

	var sources []models.Source
	failed := 0
	for _, u := range c.URLs {
		page, err := c.Fetcher.Fetch(ctx, u)
		if err != nil {
			log.Warn("error checking predefined source", "url", u, "error", err)
			failed++
			continue
		}
		if containsClaim(string(page.Body), claim) {
			sources = append(sources, models.Source{
				Channel:  models.ChannelPredefined,
				Location: u,
			})
		}
	}

	if len(c.URLs) > 0 && failed == len(c.URLs) {
		return nil, fmt.Errorf("all %d predefined sources failed", failed)
	}
	return sources, nil
}

// NewsChannel lists every article URL the news service returns for the claim.
type NewsChannel struct {
	Searcher Searcher
}

func (c *NewsChannel) Name() models.Channel { return models.ChannelNewsAPI }

func (c *NewsChannel) Lookup(ctx context.Context, claim string) ([]models.Source, error) {
	articles, err := c.Searcher.Search(ctx, claim)
	if err != nil {
		return nil, err
	}

	var sources []models.Source
	for _, a := range articles {
		if a.URL == "" {
			continue
		}
		sources = append(sources, models.Source{
			Channel:  models.ChannelNewsAPI,
			Location: a.URL,
			Title:    a.Title,
			Snippet:  snippet(a.Description),
		})
	}
	return sources, nil
}

// containsClaim is a literal, case-insensitive substring test.
func containsClaim(text, claim string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(claim))
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= snippetLength {
		return s
	}
	cut := snippetLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func orDiscard(l *logger.Logger) *logger.Logger {
	if l == nil {
		return logger.Discard()
	}
	return l
}
