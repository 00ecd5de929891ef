// Package evaluator runs the credibility pipeline for a single URL:
// extraction, claim, evidence escalation, bias check, verdict.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/bias"
	"github.com/xhad/civis/pkg/evidence"
	"github.com/xhad/civis/pkg/logger"
	"github.com/xhad/civis/pkg/processor"
	"github.com/xhad/civis/pkg/verdict"
)

// ErrExtractionFailed aborts an evaluation when the page yields no text.
var ErrExtractionFailed = errors.New("unable to extract content from the URL")

// ErrInterrupted is returned when the context ends before every stage ran.
var ErrInterrupted = errors.New("evaluation interrupted")

type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (*models.Article, error)
}

type EvidenceGatherer interface {
	Gather(ctx context.Context, claim string) evidence.Evidence
}

type BiasDetector interface {
	Detect(ctx context.Context, claim, content string) (bias.Assessment, error)
}

// Deps are the collaborators an Evaluator is built from.
type Deps struct {
	Articles ArticleFetcher
	Evidence EvidenceGatherer
	Bias     BiasDetector
	Logger   *logger.Logger
}

type Evaluator struct {
	articles ArticleFetcher
	evidence EvidenceGatherer
	bias     BiasDetector
	log      *logger.Logger
}

// ProgressFunc receives a short description of each pipeline stage.
type ProgressFunc func(stage string)

func New(deps Deps) (*Evaluator, error) {
	if deps.Articles == nil || deps.Evidence == nil || deps.Bias == nil {
		return nil, errors.New("evaluator requires an article fetcher, evidence gatherer and bias detector")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	return &Evaluator{
		articles: deps.Articles,
		evidence: deps.Evidence,
		bias:     deps.Bias,
		log:      deps.Logger,
	}, nil
}

func (e *Evaluator) Evaluate(ctx context.Context, url string) (*models.Report, error) {
	return e.EvaluateWithProgress(ctx, url, nil)
}

// EvaluateWithProgress is Evaluate with a per-stage callback.
func (e *Evaluator) EvaluateWithProgress(ctx context.Context, url string, progress ProgressFunc) (*models.Report, error) {
	if progress == nil {
		progress = func(string) {}
	}
	log := e.log.With("url", url)

	progress("Extracting content")
	article, err := e.articles.FetchArticle(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, ErrExtractionFailed
	}

	claim := processor.ExtractMainClaim(article.Content)
	log.Debug("extracted claim", "claim", claim)

	progress("Searching for evidence")
	ev := e.evidence.Gather(ctx, claim)
	log.Debug("evidence gathered", "from", ev.From, "sources", len(ev.Sources))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	progress("Checking for bias")
	assessment, err := e.bias.Detect(ctx, claim, article.Content)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, ctxErr)
	}
	if err != nil {
		// an unanswered bias check reads as no bias
		log.Warn("bias check failed", "error", err)
		assessment = bias.Assessment{}
	}

	progress("Composing verdict")
	report := &models.Report{
		URL:          url,
		Claim:        claim,
		Article:      *article,
		Evidence:     ev.Sources,
		EvidenceFrom: ev.From,
		BiasOutput:   assessment.Output,
		BiasDetected: assessment.Detected,
		Findings: verdict.Compose(verdict.Input{
			Article:  *article,
			Evidence: ev,
			Bias:     assessment,
		}),
	}

	log.Info("evaluation complete", "evidence_from", ev.From, "bias", assessment.Detected)
	return report, nil
}
