package llm

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/civis/internal/types"
)

// EmbedderConfig selects and configures an embedding backend.
type EmbedderConfig struct {
	Provider string // "ollama" or "cohere"
	Model    string
	BaseURL  string // Ollama server URL
	APIKey   string
}

// NewEmbedder returns the embedding backend named by config.Provider.
func NewEmbedder(config EmbedderConfig) (types.Embedder, error) {
	switch config.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(config)
	case "cohere":
		return NewCohereEmbedder(config)
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", config.Provider)
	}
}

// OllamaEmbedder creates embeddings through a local Ollama server.
type OllamaEmbedder struct {
	Config EmbedderConfig
	llm    *ollama.LLM
}

func NewOllamaEmbedder(config EmbedderConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	emb, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &OllamaEmbedder{
		Config: config,
		llm:    emb,
	}, nil
}

func (e *OllamaEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return e.llm.CreateEmbedding(ctx, texts)
}

// CohereEmbedder implements types.Embedder with the Cohere Embed API (v2).
type CohereEmbedder struct {
	client    *cohereclient.Client
	model     string
	inputType cohere.EmbedInputType
}

func NewCohereEmbedder(config EmbedderConfig) (*CohereEmbedder, error) {
	if config.APIKey == "" {
		return nil, errors.New("cohere embedder requires an API key")
	}
	model := config.Model
	if model == "" {
		model = "embed-english-v3.0"
	}

	// Force HTTP/1.1 to avoid HTTP/2 protocol errors from the API edge
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	client := cohereclient.NewClient(
		cohereclient.WithToken(config.APIKey),
		cohereclient.WithHTTPClient(httpClient),
	)

	return &CohereEmbedder{
		client:    client,
		model:     model,
		inputType: cohere.EmbedInputTypeSearchDocument,
	}, nil
}

// ForQueries returns a copy that embeds texts as search queries.
func (c *CohereEmbedder) ForQueries() *CohereEmbedder {
	cp := *c
	cp.inputType = cohere.EmbedInputTypeSearchQuery
	return &cp
}

func (c *CohereEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          texts,
			Model:          c.model,
			InputType:      c.inputType,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}

	out := make([][]float32, len(floats))
	for i, vec := range floats {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out, nil
}
