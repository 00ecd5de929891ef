package evidence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/evidence"
)

type mockChannel struct {
	name    models.Channel
	sources []models.Source
	err     error
	calls   int
	claims  []string
}

func (m *mockChannel) Name() models.Channel { return m.name }

func (m *mockChannel) Lookup(_ context.Context, claim string) ([]models.Source, error) {
	m.calls++
	m.claims = append(m.claims, claim)
	return m.sources, m.err
}

func src(channel models.Channel, location string) models.Source {
	return models.Source{Channel: channel, Location: location}
}

func channels() (*mockChannel, *mockChannel, *mockChannel, *mockChannel) {
	return &mockChannel{name: models.ChannelSemantic},
		&mockChannel{name: models.ChannelTrustedSites},
		&mockChannel{name: models.ChannelPredefined},
		&mockChannel{name: models.ChannelNewsAPI}
}

func TestGatherShortCircuitsOnSemantic(t *testing.T) {
	semantic, trusted, predefined, news := channels()
	semantic.sources = []models.Source{src(models.ChannelSemantic, "https://a"), src(models.ChannelSemantic, "https://a")}

	ev := evidence.NewEscalator(nil, semantic, trusted, predefined, news).Gather(context.Background(), "claim")

	assert.Equal(t, 1, semantic.calls)
	assert.Zero(t, trusted.calls)
	assert.Zero(t, predefined.calls)
	assert.Zero(t, news.calls)

	assert.True(t, ev.Semantic())
	assert.Equal(t, models.ChannelSemantic, ev.From)
	assert.Len(t, ev.Sources, 2)
	assert.False(t, ev.Consulted(models.ChannelTrustedSites))
}

func TestGatherEscalation(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(s, tr, p, n *mockChannel)
		wantFrom  models.Channel
		wantCalls [4]int
	}{
		{
			name: "trusted sites after empty semantic",
			setup: func(s, tr, p, n *mockChannel) {
				tr.sources = []models.Source{src(models.ChannelTrustedSites, "https://www.snopes.com/")}
			},
			wantFrom:  models.ChannelTrustedSites,
			wantCalls: [4]int{1, 1, 0, 0},
		},
		{
			name: "failure treated as empty",
			setup: func(s, tr, p, n *mockChannel) {
				s.err = errors.New("index down")
				tr.err = errors.New("timeout")
				p.sources = []models.Source{src(models.ChannelPredefined, "https://www.factcheck.org/x")}
			},
			wantFrom:  models.ChannelPredefined,
			wantCalls: [4]int{1, 1, 1, 0},
		},
		{
			name: "news api last",
			setup: func(s, tr, p, n *mockChannel) {
				n.sources = []models.Source{src(models.ChannelNewsAPI, "https://news/1")}
			},
			wantFrom:  models.ChannelNewsAPI,
			wantCalls: [4]int{1, 1, 1, 1},
		},
		{
			name:      "all empty",
			setup:     func(s, tr, p, n *mockChannel) {},
			wantFrom:  "",
			wantCalls: [4]int{1, 1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr, p, n := channels()
			tt.setup(s, tr, p, n)

			ev := evidence.NewEscalator(nil, s, tr, p, n).Gather(context.Background(), "the claim")

			assert.Equal(t, tt.wantFrom, ev.From)
			assert.Equal(t, tt.wantCalls, [4]int{s.calls, tr.calls, p.calls, n.calls})
			assert.False(t, ev.Semantic())
			assert.Equal(t, tt.wantFrom != "", ev.Found())
			for _, ch := range []*mockChannel{s, tr, p, n} {
				for _, c := range ch.claims {
					assert.Equal(t, "the claim", c)
				}
			}
		})
	}
}

func TestGatherRecordsOutcomes(t *testing.T) {
	s, tr, p, n := channels()
	s.err = errors.New("index down")
	n.sources = []models.Source{src(models.ChannelNewsAPI, "https://news/1")}

	ev := evidence.NewEscalator(nil, s, tr, p, n).Gather(context.Background(), "claim")

	require.Len(t, ev.Results, 4)
	assert.Equal(t, evidence.OutcomeFailed, ev.Results[0].Outcome())
	assert.Equal(t, evidence.OutcomeEmpty, ev.Results[1].Outcome())
	assert.Equal(t, evidence.OutcomeEmpty, ev.Results[2].Outcome())
	assert.Equal(t, evidence.OutcomeFound, ev.Results[3].Outcome())
	assert.Equal(t, "failed", ev.Results[0].Outcome().String())
}

func TestGatherStopsOnCancelledContext(t *testing.T) {
	s, tr, p, n := channels()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := evidence.NewEscalator(nil, s, tr, p, n).Gather(ctx, "claim")

	assert.Empty(t, ev.Results)
	assert.Zero(t, s.calls)
}

func TestResultOutcome(t *testing.T) {
	partial := evidence.Result{
		Sources: []models.Source{src(models.ChannelSemantic, "x")},
		Err:     errors.New("one index failed"),
	}
	assert.Equal(t, evidence.OutcomeFound, partial.Outcome())
	assert.Equal(t, evidence.OutcomeEmpty, evidence.Result{}.Outcome())
}
