// Package evidence looks for sources corroborating a claim. Channels are
// tried in a fixed order and the first one that finds anything wins.
package evidence

import (
	"context"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/logger"
)

// Channel is one evidence lookup strategy.
type Channel interface {
	Name() models.Channel
	Lookup(ctx context.Context, claim string) ([]models.Source, error)
}

type Outcome int

const (
	OutcomeEmpty Outcome = iota
	OutcomeFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Result is what a single channel lookup produced.
type Result struct {
	Channel models.Channel
	Sources []models.Source
	Err     error
}

// Outcome reports found when sources exist, even if part of the lookup failed.
func (r Result) Outcome() Outcome {
	switch {
	case len(r.Sources) > 0:
		return OutcomeFound
	case r.Err != nil:
		return OutcomeFailed
	default:
		return OutcomeEmpty
	}
}

// Evidence is the outcome of an escalation. Results holds every channel
// that was consulted, in order.
type Evidence struct {
	Results []Result
	From    models.Channel
	Sources []models.Source
}

func (e Evidence) Found() bool {
	return len(e.Sources) > 0
}

// Semantic reports whether the semantic indices produced the evidence.
func (e Evidence) Semantic() bool {
	return e.Found() && e.From == models.ChannelSemantic
}

// Consulted reports whether the named channel was invoked.
func (e Evidence) Consulted(name models.Channel) bool {
	for _, r := range e.Results {
		if r.Channel == name {
			return true
		}
	}
	return false
}

type Escalator struct {
	channels []Channel
	log      *logger.Logger
}

func NewEscalator(log *logger.Logger, channels ...Channel) *Escalator {
	if log == nil {
		log = logger.Discard()
	}
	return &Escalator{channels: channels, log: log}
}

// Gather consults channels in order until one returns sources. A failed
// channel is logged and escalation moves on as if it were empty.
func (e *Escalator) Gather(ctx context.Context, claim string) Evidence {
	var ev Evidence
	for _, ch := range e.channels {
		if ctx.Err() != nil {
			break
		}

		sources, err := ch.Lookup(ctx, claim)
		res := Result{Channel: ch.Name(), Sources: sources, Err: err}
		ev.Results = append(ev.Results, res)

		if err != nil {
			e.log.Warn("evidence channel failed", "channel", ch.Name(), "error", err)
		}
		e.log.Debug("evidence channel consulted", "channel", ch.Name(), "outcome", res.Outcome().String(), "sources", len(sources))

		if res.Outcome() == OutcomeFound {
			ev.From = res.Channel
			ev.Sources = sources
			break
		}
	}
	return ev
}
