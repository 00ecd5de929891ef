// Package verdict turns evaluation signals into report findings and
// renders them as text.
package verdict

import (
	"fmt"
	"strings"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/bias"
	"github.com/xhad/civis/pkg/evidence"
)

const (
	trustedSupportHeader    = "The following trusted sources support this claim:"
	predefinedSupportHeader = "The following predefined trusted sources support this claim:"
	newsSupportHeader       = "The following sources from News API support this claim:"

	noSupportText            = "No trusted sources were found supporting this claim. However, the source's credibility is evaluated based on other factors."
	unverifiedText           = "The claim is **unverified** and lacks support from trusted sources."
	missingMetadataText      = "The source is missing key metadata (author or publication date), which raises concerns about its credibility."
	missingQualificationText = "Author qualifications are not clearly provided in the article, which could affect its credibility."
	questionableText         = "The article's credibility is questionable due to unverified claims, detected bias, and missing key source information."
	credibleElementsText     = "The article's claim is unverified, but it has some credible elements based on its metadata."
)

type Input struct {
	Article  models.Article
	Evidence evidence.Evidence
	Bias     bias.Assessment
}

// Compose applies the decision tree. Only semantic evidence counts as
// verification; the live channels only change which sources are listed.
func Compose(in Input) []models.Finding {
	var findings []models.Finding

	if in.Evidence.Found() {
		findings = append(findings, models.Finding{
			Kind:    models.FindingSupport,
			Text:    supportHeader(in.Evidence.From),
			Sources: in.Evidence.Sources,
		})
	} else {
		findings = append(findings, models.Finding{Kind: models.FindingNoSupport, Text: noSupportText})
	}

	verified := in.Evidence.Semantic()
	if !verified {
		findings = append(findings, models.Finding{Kind: models.FindingUnverified, Text: unverifiedText})
	}

	if in.Bias.Detected {
		findings = append(findings, models.Finding{
			Kind: models.FindingBias,
			Text: "Bias detected: " + in.Bias.Output,
		})
	}

	missingMetadata := !in.Article.HasPublicationDate() || !in.Article.HasAuthor()
	if missingMetadata {
		findings = append(findings, models.Finding{Kind: models.FindingMissingMetadata, Text: missingMetadataText})
	} else {
		findings = append(findings, models.Finding{
			Kind: models.FindingMetadata,
			Text: fmt.Sprintf("Publication Date: %s\nAuthor: %s", in.Article.PublicationDate, in.Article.Author),
		})
	}

	if !in.Article.HasAuthorQualifications() {
		findings = append(findings, models.Finding{Kind: models.FindingMissingQualification, Text: missingQualificationText})
	}

	if !verified && (in.Bias.Detected || missingMetadata) {
		findings = append(findings, models.Finding{Kind: models.FindingQuestionable, Text: questionableText})
	} else {
		findings = append(findings, models.Finding{Kind: models.FindingCredibleElements, Text: credibleElementsText})
	}

	return findings
}

func supportHeader(channel models.Channel) string {
	switch channel {
	case models.ChannelPredefined:
		return predefinedSupportHeader
	case models.ChannelNewsAPI:
		return newsSupportHeader
	default:
		return trustedSupportHeader
	}
}

// Line is one printed line of a report. The header has no Kind; source
// lines carry the kind of the finding they belong to.
type Line struct {
	Kind   models.FindingKind
	Text   string
	Source bool
}

// Lines lays out a report: the header, then each finding followed by
// its "- <location>" source lines.
func Lines(r *models.Report) []Line {
	lines := []Line{{Text: fmt.Sprintf("Evaluation Summary for %s:", r.URL)}}
	for _, f := range r.Findings {
		lines = append(lines, Line{Kind: f.Kind, Text: f.Text})
		for _, s := range f.Sources {
			lines = append(lines, Line{Kind: f.Kind, Text: "- " + s.Location, Source: true})
		}
	}
	return lines
}

// Render joins Lines with newlines, ending with one.
func Render(r *models.Report) string {
	var b strings.Builder
	for _, l := range Lines(r) {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
