package models

// Document is an item held by one of the semantic indices.
type Document struct {
	ID       string
	URL      string
	Title    string
	Content  string
	Metadata map[string]interface{}
}

type ProcessedDocument struct {
	Document
	Chunks []string
}

// SourceName is the label a retrieved document is listed under.
func (d Document) SourceName() string {
	if d.URL != "" {
		return d.URL
	}
	return d.ID
}
