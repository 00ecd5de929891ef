package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/civis/internal/models"
	"golang.org/x/net/html"
)

var dateMentionRe = regexp.MustCompile(`(?i)published|released`)

// ExtractArticle builds the article view of a parsed page. Content is the
// text of every paragraph joined by a single space.
func ExtractArticle(urlStr string, doc *goquery.Document) *models.Article {
	return &models.Article{
		URL:                  urlStr,
		Content:              ArticleText(doc),
		PublicationDate:      ExtractPublicationDate(doc),
		Author:               ExtractAuthor(doc),
		AuthorQualifications: ExtractAuthorQualifications(doc),
	}
}

// ArticleText joins the text of all <p> elements.
func ArticleText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})
	return strings.Join(parts, " ")
}

// PageText returns every text node of the document, markup stripped.
func PageText(doc *goquery.Document) string {
	return doc.Text()
}

// ExtractPublicationDate tries the date meta tag, then article:published_time,
// then the first text node mentioning "published" or "released".
func ExtractPublicationDate(doc *goquery.Document) string {
	if date := metaContent(doc, `meta[name="date"]`); date != "" {
		return date
	}

	if date := metaContent(doc, `meta[property="article:published_time"]`); date != "" {
		return date
	}

	for _, root := range doc.Nodes {
		if text, ok := firstTextMatch(root, dateMentionRe); ok {
			return strings.TrimSpace(text)
		}
	}

	return ""
}

// ExtractAuthor reads the author meta tag, falling back to a span.author byline.
func ExtractAuthor(doc *goquery.Document) string {
	if author := metaContent(doc, `meta[name="author"]`); author != "" {
		return author
	}

	if byline := doc.Find("span.author").First(); byline.Length() > 0 {
		return byline.Text()
	}

	return ""
}

func ExtractAuthorQualifications(doc *goquery.Document) string {
	if quals := doc.Find("span.author-qualifications").First(); quals.Length() > 0 {
		return quals.Text()
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	return doc.Find(selector).First().AttrOr("content", "")
}

// firstTextMatch walks the tree in document order.
func firstTextMatch(n *html.Node, re *regexp.Regexp) (string, bool) {
	if n.Type == html.TextNode && re.MatchString(n.Data) {
		return n.Data, true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text, ok := firstTextMatch(c, re); ok {
			return text, true
		}
	}
	return "", false
}
