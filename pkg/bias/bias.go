// Package bias asks a generative model about slant in an article and
// inspects the answer by keyword.
package bias

import (
	"context"
	"fmt"
	"strings"

	"github.com/xhad/civis/internal/types"
)

const keyword = "bias"

// Assessment is the raw model output and the keyword verdict on it.
type Assessment struct {
	Output   string
	Detected bool
}

type Detector struct {
	generator types.Generator
}

func NewDetector(generator types.Generator) *Detector {
	return &Detector{generator: generator}
}

// Prompt builds the model input for a claim and the article text.
func Prompt(claim, content string) string {
	return fmt.Sprintf("Claim: %s\nContent: %s", claim, content)
}

// ContainsBias reports whether text mentions bias in any letter case.
// A negated answer such as "no bias found" still counts.
func ContainsBias(text string) bool {
	return strings.Contains(strings.ToLower(text), keyword)
}

func (d *Detector) Detect(ctx context.Context, claim, content string) (Assessment, error) {
	output, err := d.generator.Generate(ctx, Prompt(claim, content))
	if err != nil {
		return Assessment{}, fmt.Errorf("bias generation failed: %w", err)
	}
	return Assessment{
		Output:   output,
		Detected: ContainsBias(output),
	}, nil
}
