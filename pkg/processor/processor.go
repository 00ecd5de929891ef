package processor

import (
	"strings"
	"unicode"

	"github.com/xhad/civis/internal/models"
)

type ProcessorConfig struct {
	ChunkSize       int // upper bound in bytes
	ChunkOverlap    int // trailing bytes of a chunk repeated at the start of the next; 0 disables
	MinChunkLength  int
	RemoveStopwords bool
	CustomStopwords []string
	Lowercase       bool
}

// Processor splits crawled trusted-site pages into overlapping,
// sentence-aligned chunks for the semantic indices.
type Processor struct {
	config    ProcessorConfig
	stopwords map[string]struct{}
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 5
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 100
	}

	stopwords := make(map[string]struct{}, len(defaultStopwords)+len(config.CustomStopwords))
	for _, w := range defaultStopwords {
		stopwords[w] = struct{}{}
	}
	for _, w := range config.CustomStopwords {
		stopwords[strings.ToLower(w)] = struct{}{}
	}

	return Processor{
		config:    config,
		stopwords: stopwords,
	}
}

// Process chunks each document. Documents that produce no chunk and
// pages whose normalized text repeats an earlier page are dropped.
func (p *Processor) Process(docs []models.Document) ([]models.ProcessedDocument, error) {
	processed := make([]models.ProcessedDocument, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		text := p.normalize(doc.Content)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}

		chunks := p.Chunk(text)
		if len(chunks) == 0 {
			continue
		}

		processed = append(processed, models.ProcessedDocument{
			Document: doc,
			Chunks:   chunks,
		})
	}

	return processed, nil
}

func (p *Processor) normalize(text string) string {
	words := strings.Fields(text)
	if p.config.RemoveStopwords {
		kept := words[:0]
		for _, w := range words {
			if _, stop := p.stopwords[strings.ToLower(strings.TrimFunc(w, unicode.IsPunct))]; !stop {
				kept = append(kept, w)
			}
		}
		words = kept
	}

	text = strings.Join(words, " ")
	if p.config.Lowercase {
		text = strings.ToLower(text)
	}
	return text
}

// Chunk packs whole sentences into chunks of at most ChunkSize bytes.
// A sentence longer than ChunkSize is split on word boundaries. Chunks
// shorter than MinChunkLength are discarded.
func (p *Processor) Chunk(text string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if len(chunk) >= p.config.MinChunkLength {
			chunks = append(chunks, chunk)
		}
		tail := overlapTail(chunk, p.config.ChunkOverlap)
		current.Reset()
		if tail != "" {
			current.WriteString(tail)
			current.WriteByte(' ')
		}
	}

	for _, sentence := range splitSentences(text) {
		for _, piece := range splitLong(sentence, p.config.ChunkSize-p.config.ChunkOverlap) {
			if current.Len() > 0 && current.Len()+len(piece) > p.config.ChunkSize {
				flush()
			}
			current.WriteString(piece)
			current.WriteByte(' ')
		}
	}

	if chunk := strings.TrimSpace(current.String()); len(chunk) >= p.config.MinChunkLength {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// overlapTail returns the trailing whole words of s that fit in n bytes.
func overlapTail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return ""
	}
	tail := s[len(s)-n:]
	if i := strings.IndexByte(tail, ' '); i >= 0 {
		return tail[i+1:]
	}
	return ""
}

// splitSentences breaks after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// splitLong cuts a sentence into word-aligned pieces of at most max bytes.
// A single word longer than max is kept whole.
func splitLong(sentence string, max int) []string {
	if max <= 0 || len(sentence) <= max {
		return []string{sentence}
	}

	var pieces []string
	var b strings.Builder
	for _, word := range strings.Fields(sentence) {
		if b.Len() > 0 && b.Len()+1+len(word) > max {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}

// Common English stopwords
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for",
	"from", "has", "he", "in", "is", "it", "its", "of", "on",
	"that", "the", "to", "was", "were", "will", "with",
}
