package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/xhad/civis/internal/types"
)

// GeneratorConfig configures the text generation backend.
type GeneratorConfig struct {
	Provider    string // "ollama" or "openai"
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

func (c *GeneratorConfig) applyDefaults() error {
	if c.MaxTokens < 0 {
		return errors.New("max tokens cannot be negative")
	} else if c.MaxTokens == 0 {
		c.MaxTokens = 200
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("temperature must be between 0 and 2")
	}
	return nil
}

// NewGenerator returns the generation backend named by config.Provider.
func NewGenerator(config GeneratorConfig) (types.Generator, error) {
	switch config.Provider {
	case "", "ollama":
		return NewOllamaGenerator(config)
	case "openai":
		return NewOpenAIGenerator(config)
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", config.Provider)
	}
}

// OllamaGenerator generates text through any langchaingo model, Ollama by default.
type OllamaGenerator struct {
	config GeneratorConfig
	llm    llms.Model
}

func NewOllamaGenerator(config GeneratorConfig) (*OllamaGenerator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	llm, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return NewGeneratorWithModel(config, llm)
}

// NewGeneratorWithModel wraps an already constructed langchaingo model.
func NewGeneratorWithModel(config GeneratorConfig, model llms.Model) (*OllamaGenerator, error) {
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return &OllamaGenerator{
		config: config,
		llm:    model,
	}, nil
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generation error: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// OpenAIGenerator generates text through the OpenAI chat completions API.
type OpenAIGenerator struct {
	config GeneratorConfig
	client *openai.Client
}

func NewOpenAIGenerator(config GeneratorConfig) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI integration not configured")
	}
	if config.Model == "" {
		config.Model = openai.GPT3Dot5Turbo
	}
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIGenerator{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: float32(g.config.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI API returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
