package models

// Channel names an evidence lookup strategy.
type Channel string

const (
	ChannelSemantic     Channel = "semantic"
	ChannelTrustedSites Channel = "trusted_sites"
	ChannelPredefined   Channel = "predefined"
	ChannelNewsAPI      Channel = "news_api"
)

// Source is one piece of corroborating evidence.
type Source struct {
	Channel  Channel `json:"channel"`
	Location string  `json:"location"`
	Title    string  `json:"title,omitempty"`
	Snippet  string  `json:"snippet,omitempty"`
}

// FindingKind classifies a line of the credibility report.
type FindingKind string

const (
	FindingSupport              FindingKind = "support"
	FindingNoSupport            FindingKind = "no_support"
	FindingUnverified           FindingKind = "unverified"
	FindingBias                 FindingKind = "bias"
	FindingMissingMetadata      FindingKind = "missing_metadata"
	FindingMetadata             FindingKind = "metadata"
	FindingMissingQualification FindingKind = "missing_qualifications"
	FindingQuestionable         FindingKind = "questionable"
	FindingCredibleElements     FindingKind = "credible_elements"
)

// Finding is a single typed statement of the report. Text holds the
// sentence as printed; Sources is only set for support findings.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Text    string      `json:"text"`
	Sources []Source    `json:"sources,omitempty"`
}

// Report is the outcome of evaluating one URL.
type Report struct {
	URL          string    `json:"url"`
	Claim        string    `json:"claim"`
	Article      Article   `json:"article"`
	Evidence     []Source  `json:"evidence,omitempty"`
	EvidenceFrom Channel   `json:"evidence_from,omitempty"`
	BiasOutput   string    `json:"bias_output"`
	BiasDetected bool      `json:"bias_detected"`
	Findings     []Finding `json:"findings"`
}

// Has reports whether any finding of the given kind is present.
func (r *Report) Has(kind FindingKind) bool {
	for _, f := range r.Findings {
		if f.Kind == kind {
			return true
		}
	}
	return false
}
