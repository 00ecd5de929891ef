package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Database  DatabaseConfig  `yaml:"database"`
	Chroma    ChromaConfig    `yaml:"chroma"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Processor ProcessorConfig `yaml:"processor"`
	Sources   SourcesConfig   `yaml:"sources"`
	NewsAPI   NewsAPIConfig   `yaml:"news_api"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type EmbedderConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	TableName   string `yaml:"table_name"`
	VectorDim   int    `yaml:"vector_dim"`
	BatchSize   int    `yaml:"batch_size"`
	SearchLimit int    `yaml:"search_limit"`
}

type ChromaConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Collection  string `yaml:"collection"`
	SearchLimit int    `yaml:"search_limit"`
}

type ScraperConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	RateLimit         float64       `yaml:"rate_limit"`
	UserAgent         string        `yaml:"user_agent"`
	MaxDepth          int           `yaml:"max_depth"`
	IgnorePatterns    []string      `yaml:"ignore_patterns"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
}

type ProcessorConfig struct {
	ChunkSize       int  `yaml:"chunk_size"`
	ChunkOverlap    *int `yaml:"chunk_overlap"` // nil means the default; 0 disables overlap
	RemoveStopwords bool `yaml:"remove_stopwords"`
}

// TrustedSite is a named home page scanned for the claim.
type TrustedSite struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type SourcesConfig struct {
	TrustedWebsites []TrustedSite `yaml:"trusted_websites"`
	Predefined      []string      `yaml:"predefined"`
}

type NewsAPIConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	PageSize int    `yaml:"page_size"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultTrustedWebsites are the fact-checking home pages scanned when none are configured.
func DefaultTrustedWebsites() []TrustedSite {
	return []TrustedSite{
		{Name: "PolitiFact", URL: "https://www.politifact.com/"},
		{Name: "Snopes", URL: "https://www.snopes.com/"},
		{Name: "FactCheck.org", URL: "https://www.factcheck.org/"},
	}
}

// DefaultPredefinedSources are known fact-check articles fetched when none are configured.
func DefaultPredefinedSources() []string {
	return []string{
		"https://www.politifact.com/factchecks/2021/nov/15/facebook-posts/facebook-posts-claiming-senator-trump-support/",
		"https://www.snopes.com/fact-check/grace-kelly-granddaughter-look-alike/",
		"https://www.factcheck.org/2020/10/factchecking-the-second-presidential-debate/",
	}
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"civis.yaml",
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/civis/config.yaml"),
			"/etc/civis/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 200
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedder.Provider == "" {
		config.Embedder.Provider = "ollama"
	}
	if config.Embedder.BaseURL == "" && config.Embedder.Provider == "ollama" {
		config.Embedder.BaseURL = config.LLM.BaseURL
		if config.Embedder.BaseURL == "" {
			config.Embedder.BaseURL = "http://localhost:11434"
		}
	}
	if config.Embedder.Model == "" {
		switch config.Embedder.Provider {
		case "cohere":
			config.Embedder.Model = "embed-english-v3.0"
		default:
			config.Embedder.Model = "nomic-embed-text:latest"
		}
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "documents"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
	if config.Database.SearchLimit == 0 {
		config.Database.SearchLimit = 5
	}

	if config.Chroma.Port == 0 {
		config.Chroma.Port = 8000
	}
	if config.Chroma.Collection == "" {
		config.Chroma.Collection = "documents"
	}
	if config.Chroma.SearchLimit == 0 {
		config.Chroma.SearchLimit = 5
	}

	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.UserAgent == "" {
		config.Scraper.UserAgent = "civis/1.0"
	}
	if config.Scraper.MaxDepth == 0 {
		config.Scraper.MaxDepth = 1
	}
	if len(config.Scraper.AllowedExtensions) == 0 {
		config.Scraper.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == nil {
		overlap := 200
		config.Processor.ChunkOverlap = &overlap
	}

	if len(config.Sources.TrustedWebsites) == 0 {
		config.Sources.TrustedWebsites = DefaultTrustedWebsites()
	}
	if len(config.Sources.Predefined) == 0 {
		config.Sources.Predefined = DefaultPredefinedSources()
	}

	if config.NewsAPI.BaseURL == "" {
		config.NewsAPI.BaseURL = "https://newsapi.org/v2"
	}
	if config.NewsAPI.PageSize == 0 {
		config.NewsAPI.PageSize = 20
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
		if config.Embedder.Provider == "" || config.Embedder.Provider == "ollama" {
			config.Embedder.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if host := os.Getenv("CHROMA_HOST"); host != "" {
		config.Chroma.Host = host
	}
	if port := os.Getenv("CHROMA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Chroma.Port = p
		}
	}
	if key := os.Getenv("NEWS_API_KEY"); key != "" {
		config.NewsAPI.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = key
	}
	if key := os.Getenv("COHERE_API_KEY"); key != "" && config.Embedder.APIKey == "" {
		config.Embedder.APIKey = key
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
