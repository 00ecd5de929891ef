package verdict_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/bias"
	"github.com/xhad/civis/pkg/evidence"
	"github.com/xhad/civis/pkg/verdict"
)

var fullArticle = models.Article{
	URL:                  "https://example.com/story",
	PublicationDate:      "2024-03-01",
	Author:               "Jane Roe",
	AuthorQualifications: "Science editor",
}

func found(channel models.Channel, locations ...string) evidence.Evidence {
	ev := evidence.Evidence{From: channel}
	for _, l := range locations {
		ev.Sources = append(ev.Sources, models.Source{Channel: channel, Location: l})
	}
	return ev
}

func kinds(findings []models.Finding) []models.FindingKind {
	out := make([]models.FindingKind, len(findings))
	for i, f := range findings {
		out[i] = f.Kind
	}
	return out
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name  string
		input verdict.Input
		want  []models.FindingKind
	}{
		{
			name:  "semantic evidence with full metadata",
			input: verdict.Input{Article: fullArticle, Evidence: found(models.ChannelSemantic, "a")},
			want: []models.FindingKind{
				models.FindingSupport,
				models.FindingMetadata,
				models.FindingCredibleElements,
			},
		},
		{
			name: "semantic evidence outweighs bias and missing metadata",
			input: verdict.Input{
				Article:  models.Article{},
				Evidence: found(models.ChannelSemantic, "a"),
				Bias:     bias.Assessment{Output: "bias", Detected: true},
			},
			want: []models.FindingKind{
				models.FindingSupport,
				models.FindingBias,
				models.FindingMissingMetadata,
				models.FindingMissingQualification,
				models.FindingCredibleElements,
			},
		},
		{
			name:  "trusted site evidence is still unverified",
			input: verdict.Input{Article: fullArticle, Evidence: found(models.ChannelTrustedSites, "https://www.snopes.com/")},
			want: []models.FindingKind{
				models.FindingSupport,
				models.FindingUnverified,
				models.FindingMetadata,
				models.FindingCredibleElements,
			},
		},
		{
			name: "nothing found, bias, no metadata",
			input: verdict.Input{
				Bias: bias.Assessment{Output: "Bias present", Detected: true},
			},
			want: []models.FindingKind{
				models.FindingNoSupport,
				models.FindingUnverified,
				models.FindingBias,
				models.FindingMissingMetadata,
				models.FindingMissingQualification,
				models.FindingQuestionable,
			},
		},
		{
			name: "author only is missing metadata",
			input: verdict.Input{
				Article: models.Article{Author: "Jane Roe", AuthorQualifications: "PhD"},
			},
			want: []models.FindingKind{
				models.FindingNoSupport,
				models.FindingUnverified,
				models.FindingMissingMetadata,
				models.FindingQuestionable,
			},
		},
		{
			name:  "nothing found but clean metadata",
			input: verdict.Input{Article: fullArticle},
			want: []models.FindingKind{
				models.FindingNoSupport,
				models.FindingUnverified,
				models.FindingMetadata,
				models.FindingCredibleElements,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(verdict.Compose(tt.input)))
		})
	}
}

func TestComposeSupportHeaders(t *testing.T) {
	tests := []struct {
		channel models.Channel
		header  string
	}{
		{models.ChannelSemantic, "The following trusted sources support this claim:"},
		{models.ChannelTrustedSites, "The following trusted sources support this claim:"},
		{models.ChannelPredefined, "The following predefined trusted sources support this claim:"},
		{models.ChannelNewsAPI, "The following sources from News API support this claim:"},
	}

	for _, tt := range tests {
		t.Run(string(tt.channel), func(t *testing.T) {
			findings := verdict.Compose(verdict.Input{Article: fullArticle, Evidence: found(tt.channel, "x")})
			require.NotEmpty(t, findings)
			assert.Equal(t, tt.header, findings[0].Text)
			assert.Len(t, findings[0].Sources, 1)
		})
	}
}

func TestRender(t *testing.T) {
	report := &models.Report{
		URL: "https://example.com/story",
		Findings: verdict.Compose(verdict.Input{
			Article:  fullArticle,
			Evidence: found(models.ChannelSemantic, "https://www.politifact.com/a", "https://www.politifact.com/a"),
		}),
	}

	want := strings.Join([]string{
		"Evaluation Summary for https://example.com/story:",
		"The following trusted sources support this claim:",
		"- https://www.politifact.com/a",
		"- https://www.politifact.com/a",
		"Publication Date: 2024-03-01",
		"Author: Jane Roe",
		"The article's claim is unverified, but it has some credible elements based on its metadata.",
	}, "\n") + "\n"

	assert.Equal(t, want, verdict.Render(report))
}

func TestLines(t *testing.T) {
	report := &models.Report{
		URL: "https://example.com/story",
		Findings: verdict.Compose(verdict.Input{
			Article:  fullArticle,
			Evidence: found(models.ChannelSemantic, "https://www.politifact.com/a"),
		}),
	}

	lines := verdict.Lines(report)
	require.GreaterOrEqual(t, len(lines), 3)

	assert.Equal(t, verdict.Line{Text: "Evaluation Summary for https://example.com/story:"}, lines[0])
	assert.Equal(t, models.FindingSupport, lines[1].Kind)
	assert.False(t, lines[1].Source)
	assert.Equal(t, verdict.Line{Kind: models.FindingSupport, Text: "- https://www.politifact.com/a", Source: true}, lines[2])

	var texts []string
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	assert.Equal(t, strings.Join(texts, "\n")+"\n", verdict.Render(report))
}

func TestRenderQuestionable(t *testing.T) {
	report := &models.Report{
		URL: "https://example.com/x",
		Findings: verdict.Compose(verdict.Input{
			Bias: bias.Assessment{Output: "The text shows BIAS.", Detected: true},
		}),
	}

	out := verdict.Render(report)
	assert.Contains(t, out, "No trusted sources were found supporting this claim. However, the source's credibility is evaluated based on other factors.\n")
	assert.Contains(t, out, "The claim is **unverified** and lacks support from trusted sources.\n")
	assert.Contains(t, out, "Bias detected: The text shows BIAS.\n")
	assert.Contains(t, out, "The source is missing key metadata (author or publication date), which raises concerns about its credibility.\n")
	assert.Contains(t, out, "Author qualifications are not clearly provided in the article, which could affect its credibility.\n")
	assert.True(t, strings.HasSuffix(out, "The article's credibility is questionable due to unverified claims, detected bias, and missing key source information.\n"))
}
