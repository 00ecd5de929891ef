package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestExtractPublicationDate(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "date meta wins",
			markup: `<html><head><meta name="date" content="2024-01-02"><meta property="article:published_time" content="2023-05-06T00:00:00Z"></head><body><p>Published yesterday</p></body></html>`,
			want:   "2024-01-02",
		},
		{
			name:   "article published time",
			markup: `<html><head><meta property="article:published_time" content="2023-05-06T00:00:00Z"></head><body><p>Published yesterday</p></body></html>`,
			want:   "2023-05-06T00:00:00Z",
		},
		{
			name:   "first text mention",
			markup: `<html><body><p>Intro text.</p><div>  RELEASED on March 3  </div><p>Published later</p></body></html>`,
			want:   "RELEASED on March 3",
		},
		{
			name:   "empty meta content falls through",
			markup: `<html><head><meta name="date" content=""></head><body><span>Published: today</span></body></html>`,
			want:   "Published: today",
		},
		{
			name:   "absent",
			markup: `<html><body><p>Nothing to see.</p></body></html>`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractPublicationDate(parse(t, tt.markup)))
		})
	}
}

func TestExtractAuthor(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			name:   "meta author",
			markup: `<html><head><meta name="author" content="Jane Roe"></head><body><span class="author">Someone Else</span></body></html>`,
			want:   "Jane Roe",
		},
		{
			name:   "byline span",
			markup: `<html><body><span class="byline author">Someone Else</span></body></html>`,
			want:   "Someone Else",
		},
		{
			name:   "absent",
			markup: `<html><body><div class="author">Not a span</div></body></html>`,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAuthor(parse(t, tt.markup)))
		})
	}
}

func TestExtractAuthorQualifications(t *testing.T) {
	doc := parse(t, `<html><body><span class="author-qualifications">PhD, Epidemiology</span></body></html>`)
	assert.Equal(t, "PhD, Epidemiology", ExtractAuthorQualifications(doc))

	doc = parse(t, `<html><body><p>No credentials</p></body></html>`)
	assert.Equal(t, "", ExtractAuthorQualifications(doc))
}

func TestArticleTextJoinsParagraphs(t *testing.T) {
	doc := parse(t, `<html><body><h1>Title</h1><p>First.</p><div><p>Second</p></div></body></html>`)
	assert.Equal(t, "First. Second", ArticleText(doc))
	assert.Contains(t, PageText(doc), "Title")
}

func TestFetchArticle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<meta name="author" content="Jane Roe">
			<meta property="article:published_time" content="2024-03-01">
			</head><body>
			<p>The moon is made of rock. Scientists agree.</p>
			<span class="author-qualifications">Planetary scientist</span>
			</body></html>`))
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{RateLimit: 100})
	require.NoError(t, err)

	article, err := s.FetchArticle(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, server.URL, article.URL)
	assert.Equal(t, "The moon is made of rock. Scientists agree.", article.Content)
	assert.Equal(t, "Jane Roe", article.Author)
	assert.Equal(t, "2024-03-01", article.PublicationDate)
	assert.Equal(t, "Planetary scientist", article.AuthorQualifications)
}
