package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/processor"
)

func TestProcessor_Process(t *testing.T) {
	config := processor.ProcessorConfig{
		ChunkSize:       50,
		ChunkOverlap:    10,
		MinChunkLength:  10,
		RemoveStopwords: true,
		CustomStopwords: []string{"several"},
	}
	p := processor.NewWithConfig(config)

	documents := []models.Document{
		{URL: "https://example.com/a", Content: "This is a test document. It contains several sentences to demonstrate text processing."},
	}

	processedDocs, err := p.Process(documents)

	require.NoError(t, err)
	require.Len(t, processedDocs, 1)
	assert.Equal(t, "https://example.com/a", processedDocs[0].URL)
	require.NotEmpty(t, processedDocs[0].Chunks)
	assert.Contains(t, processedDocs[0].Chunks[0], "test document")
	for _, chunk := range processedDocs[0].Chunks {
		assert.NotContains(t, chunk, "several")
	}
}

func TestProcessor_SkipsDocumentsWithoutChunks(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{MinChunkLength: 500})

	processedDocs, err := p.Process([]models.Document{{Content: "Too short."}})

	require.NoError(t, err)
	assert.Empty(t, processedDocs)
}

func TestProcessor_ChunksRespectSize(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      120,
		ChunkOverlap:   20,
		MinChunkLength: 10,
	})

	content := strings.Repeat("Fact checkers compare claims against records. ", 20)
	processedDocs, err := p.Process([]models.Document{{Content: content}})

	require.NoError(t, err)
	require.Len(t, processedDocs, 1)
	assert.Greater(t, len(processedDocs[0].Chunks), 1)
	assert.Contains(t, processedDocs[0].Chunks[0], "Fact checkers")
	for _, chunk := range processedDocs[0].Chunks {
		assert.LessOrEqual(t, len(chunk), 120)
	}
}

func TestProcessor_ChunksOverlap(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      60,
		ChunkOverlap:   15,
		MinChunkLength: 1,
	})

	chunks := p.Chunk("Snopes rated the claim false. PolitiFact agreed with that rating. FactCheck.org did too.")

	require.Equal(t, []string{
		"Snopes rated the claim false.",
		"claim false. PolitiFact agreed with that rating.",
		"that rating. FactCheck.org did too.",
	}, chunks)
}

func TestProcessor_ZeroOverlap(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      60,
		ChunkOverlap:   0,
		MinChunkLength: 1,
	})

	chunks := p.Chunk("Snopes rated the claim false. PolitiFact agreed with that rating. FactCheck.org did too.")

	require.Equal(t, []string{
		"Snopes rated the claim false.",
		"PolitiFact agreed with that rating. FactCheck.org did too.",
	}, chunks)
}

func TestProcessor_SplitsLongSentences(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      40,
		ChunkOverlap:   5,
		MinChunkLength: 1,
	})

	chunks := p.Chunk(strings.TrimSpace(strings.Repeat("word ", 30)))

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 40)
	}
}

func TestProcessor_DropsDuplicatePages(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{MinChunkLength: 5, Lowercase: true})

	processedDocs, err := p.Process([]models.Document{
		{URL: "https://www.snopes.com/", Content: "Latest Fact Checks  and rumors."},
		{URL: "https://www.snopes.com/index.html", Content: "Latest fact checks and rumors."},
		{URL: "https://www.snopes.com/about", Content: "About us."},
	})

	require.NoError(t, err)
	require.Len(t, processedDocs, 2)
	assert.Equal(t, "https://www.snopes.com/", processedDocs[0].URL)
	assert.Equal(t, []string{"latest fact checks and rumors."}, processedDocs[0].Chunks)
	assert.Equal(t, "https://www.snopes.com/about", processedDocs[1].URL)
}

func TestExtractMainClaim(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"first sentence", "The moon is made of cheese. Everyone knows it.", "The moon is made of cheese"},
		{"no period", "No terminator here", "No terminator here"},
		{"empty", "", ""},
		{"leading period", ".hidden claim", ""},
		{"decimal numbers are not special", "Inflation hit 3.5 percent. Prices rose.", "Inflation hit 3"},
		{"abbreviations are not special", "Dr. Smith said so.", "Dr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, processor.ExtractMainClaim(tt.content))
		})
	}
}
