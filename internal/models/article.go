package models

import "strings"

// Article is the scraped view of the page under evaluation. Optional
// fields are empty when extraction found nothing.
type Article struct {
	URL                  string `json:"url"`
	Content              string `json:"content"`
	PublicationDate      string `json:"publication_date,omitempty"`
	Author               string `json:"author,omitempty"`
	AuthorQualifications string `json:"author_qualifications,omitempty"`
}

func (a *Article) HasPublicationDate() bool {
	return strings.TrimSpace(a.PublicationDate) != ""
}

func (a *Article) HasAuthor() bool {
	return strings.TrimSpace(a.Author) != ""
}

func (a *Article) HasAuthorQualifications() bool {
	return strings.TrimSpace(a.AuthorQualifications) != ""
}
