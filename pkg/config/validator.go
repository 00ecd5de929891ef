package config

import (
	"fmt"
	"net/url"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type validation []ValidationError

func (v *validation) check(ok bool, field, format string, args ...any) {
	if !ok {
		*v = append(*v, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}
}

// Validate reports every problem found, in section order.
func (c *Config) Validate() []ValidationError {
	var v validation

	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.BaseURL == "" {
			v.check(false, "llm.base_url", "Ollama base URL is required")
		} else {
			v.check(isHTTPURL(c.LLM.BaseURL), "llm.base_url", "invalid Ollama base URL")
		}
	case "openai":
		v.check(c.LLM.APIKey != "", "llm.api_key", "api_key is required for the openai provider")
	default:
		v.check(false, "llm.provider", "unknown provider: %s", c.LLM.Provider)
	}
	v.check(c.LLM.MaxTokens >= 1 && c.LLM.MaxTokens <= 4096,
		"llm.max_tokens", "max_tokens must be between 1 and 4096")
	v.check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2,
		"llm.temperature", "temperature must be between 0 and 2")

	switch c.Embedder.Provider {
	case "ollama":
		v.check(isHTTPURL(c.Embedder.BaseURL), "embedder.base_url", "invalid embedder base URL")
	case "cohere":
		v.check(c.Embedder.APIKey != "", "embedder.api_key", "api_key is required for the cohere provider")
	default:
		v.check(false, "embedder.provider", "unknown provider: %s", c.Embedder.Provider)
	}

	// An empty database URL disables the pgvector index.
	if c.Database.URL != "" {
		u, err := url.Parse(c.Database.URL)
		v.check(err == nil && u.Scheme != "", "database.url", "invalid database URL")
	}
	v.check(c.Database.VectorDim > 0, "database.vector_dim", "vector_dim must be positive")
	v.check(c.Database.BatchSize > 0, "database.batch_size", "batch_size must be positive")
	v.check(c.Database.SearchLimit > 0 && c.Chroma.SearchLimit > 0,
		"search_limit", "search_limit must be positive")
	if c.Chroma.Host != "" {
		v.check(c.Chroma.Port >= 1 && c.Chroma.Port <= 65535, "chroma.port", "port must be between 1 and 65535")
	}

	v.check(c.Scraper.RateLimit > 0, "scraper.rate_limit", "rate_limit must be positive")
	v.check(c.Scraper.MaxDepth >= 0, "scraper.max_depth", "max_depth must not be negative")
	for _, ext := range c.Scraper.AllowedExtensions {
		v.check(ext == "" || ext == "/" || strings.HasPrefix(ext, "."),
			"scraper.allowed_extensions", "invalid extension format: %s", ext)
	}

	v.check(c.Processor.ChunkSize > 0, "processor.chunk_size", "chunk_size must be positive")
	overlap := 0
	if c.Processor.ChunkOverlap != nil {
		overlap = *c.Processor.ChunkOverlap
	}
	v.check(overlap >= 0 && overlap < c.Processor.ChunkSize,
		"processor.chunk_overlap", "chunk_overlap must be non-negative and less than chunk_size")

	for _, site := range c.Sources.TrustedWebsites {
		v.check(site.Name != "" && isHTTPURL(site.URL),
			"sources.trusted_websites", "invalid trusted website: %q %q", site.Name, site.URL)
	}
	for _, u := range c.Sources.Predefined {
		v.check(isHTTPURL(u), "sources.predefined", "invalid URL: %s", u)
	}
	v.check(isHTTPURL(c.NewsAPI.BaseURL), "news_api.base_url", "invalid News API base URL")

	return v
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
