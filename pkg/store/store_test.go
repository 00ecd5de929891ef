package store_test

import (
	"context"
	"strings"
)

// hashEmbedder produces deterministic fixed-size vectors from text length and bytes.
type hashEmbedder struct {
	dim   int
	calls [][]string
}

func (e *hashEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dim)
		for j, b := range []byte(strings.ToLower(text)) {
			vec[j%e.dim] += float32(b) / 255
		}
		vec[0] += 1
		out[i] = vec
	}
	return out, nil
}
