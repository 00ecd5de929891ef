package types

import (
	"context"

	"github.com/xhad/civis/internal/models"
)

// Core interfaces
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever returns the documents nearest to a query, in the index's own order.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.Document, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type VectorStore interface {
	Retriever
	Store(ctx context.Context, docs []models.ProcessedDocument) error
	Close()
}

// FlattenEmbeddings joins per-text vectors into a single slice.
func FlattenEmbeddings(embeddings [][]float32) []float32 {
	var flattened []float32
	for _, emb := range embeddings {
		flattened = append(flattened, emb...)
	}
	return flattened
}
