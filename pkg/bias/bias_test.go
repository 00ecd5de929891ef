package bias_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhad/civis/pkg/bias"
)

type stubGenerator struct {
	output string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.output, g.err
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "Claim: Water is wet\nContent: Water is wet. Always.", bias.Prompt("Water is wet", "Water is wet. Always."))
	assert.Equal(t, "Claim: \nContent: ", bias.Prompt("", ""))
}

func TestContainsBias(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"The article shows clear political bias.", true},
		{"BIAS", true},
		{"Biased framing throughout", true},
		{"no bias found here", true},
		{"The text reads as neutral reporting.", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, bias.ContainsBias(tt.text))
		})
	}
}

func TestDetect(t *testing.T) {
	gen := &stubGenerator{output: "Strong Bias toward one party"}
	d := bias.NewDetector(gen)

	a, err := d.Detect(context.Background(), "Claim one", "Claim one. More text.")
	require.NoError(t, err)

	assert.Equal(t, "Claim: Claim one\nContent: Claim one. More text.", gen.prompt)
	assert.True(t, a.Detected)
	assert.Equal(t, "Strong Bias toward one party", a.Output)
}

func TestDetectError(t *testing.T) {
	d := bias.NewDetector(&stubGenerator{err: errors.New("model offline")})

	a, err := d.Detect(context.Background(), "c", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
	assert.False(t, a.Detected)
}
