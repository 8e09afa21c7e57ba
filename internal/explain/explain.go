// Package explain enriches computed artifacts and guard verdicts with short
// prose explanations. Enrichment is strictly additive: the numbers, verdicts,
// and payloads produced upstream are never altered here.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/pkg/anthropic"
)

const (
	defaultMaxTokens = 512
	defaultRPM       = 30
)

const systemPrompt = `You are a data analyst writing one short paragraph for a business user.
Describe only the facts given. Do not invent numbers, do not speculate about
causes, and do not recommend actions.`

// Options configures an Explainer.
type Options struct {
	Model          string
	MaxTokens      int
	RequestsPerMin float64
}

// Explainer generates prose for artifacts and guard blocks.
type Explainer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// New creates an Explainer with a per-minute rate limit on API calls.
func New(client anthropic.Client, opts Options) *Explainer {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	rpm := opts.RequestsPerMin
	if rpm <= 0 {
		rpm = defaultRPM
	}
	return &Explainer{
		client:    client,
		model:     opts.Model,
		maxTokens: int64(maxTokens),
		limiter:   rate.NewLimiter(rate.Limit(rpm/60.0), 1),
	}
}

// ExplainArtifact returns a prose summary of the artifact's payload. The
// artifact itself is not modified.
func (e *Explainer) ExplainArtifact(ctx context.Context, question string, a *model.Artifact) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "explain: rate limit wait")
	}

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Question: %s\n\nResult:\n%s", question, summarizeArtifact(a)),
		}},
	})
	if err != nil {
		return "", eris.Wrap(err, "explain: artifact")
	}
	resp.Usage.LogCost(e.model, "explain_artifact")

	return firstText(resp), nil
}

// ExplainGuardBlock returns a prose restatement of why an operation was
// refused. The verdict and suggested alternatives are passed through verbatim
// in the prompt so the model cannot change them.
func (e *Explainer) ExplainGuardBlock(ctx context.Context, question string, g *model.GuardResult) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "explain: rate limit wait")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "The operation %s on column %q (type %s) was refused.\n",
		g.AttemptedOperation, g.Column, g.SemanticType)
	fmt.Fprintf(&b, "Reason: %s\n", g.Reason)
	if len(g.SuggestedAlternatives) > 0 {
		alts := make([]string, len(g.SuggestedAlternatives))
		for i, op := range g.SuggestedAlternatives {
			alts[i] = string(op)
		}
		fmt.Fprintf(&b, "Valid alternatives: %s\n", strings.Join(alts, ", "))
	}
	b.WriteString("Explain to the user, in one short paragraph, why this analysis does not make sense and what they could ask instead.")

	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: b.String()}},
	})
	if err != nil {
		return "", eris.Wrap(err, "explain: guard block")
	}
	resp.Usage.LogCost(e.model, "explain_guard")

	return firstText(resp), nil
}

// summarizeArtifact renders the payload as plain text for the prompt.
func summarizeArtifact(a *model.Artifact) string {
	var b strings.Builder
	switch a.Type {
	case model.ArtifactScalar:
		s := a.Scalar
		fmt.Fprintf(&b, "%s of column %q = %g (over %d rows)", s.Operation, s.Column, s.Value, s.RowsUsed)
	case model.ArtifactBreakdown:
		d := a.Breakdown
		fmt.Fprintf(&b, "Average %q by %q:\n", d.Metric, d.Dimension)
		for _, r := range d.Rows {
			fmt.Fprintf(&b, "  %s: count=%d avg=%g\n", r.Category, r.Count, r.AverageMetric)
		}
	case model.ArtifactTimeSeries:
		d := a.TimeSeries
		fmt.Fprintf(&b, "Average %q over %q per %s:\n", d.Metric, d.TimeColumn, d.Granularity)
		for _, p := range d.Points {
			fmt.Fprintf(&b, "  %s: %g\n", p.Bucket, p.Value)
		}
	case model.ArtifactDistribution:
		d := a.Distribution
		fmt.Fprintf(&b, "Distribution of %q:\n", d.Column)
		for _, bk := range d.Buckets {
			fmt.Fprintf(&b, "  %s: count=%d (%.2f%%)\n", bk.Label, bk.Count, bk.Percentage)
		}
	case model.ArtifactOutcomeAnalysis:
		o := a.Outcome
		fmt.Fprintf(&b, "Outcome %q: overall rate %.2f (%d with, %d without)\n",
			o.OutcomeColumn, o.OverallRate, o.GroupACount, o.GroupBCount)
		for _, kd := range o.KeyDifferences {
			fmt.Fprintf(&b, "  #%d %s: %g with vs %g without\n",
				kd.Rank, kd.MetricColumn, kd.AverageGroupA, kd.AverageGroupB)
		}
	default:
		fmt.Fprintf(&b, "artifact %s of type %s", a.ID, a.Type)
	}
	return b.String()
}

// firstText returns the first text content block, or "".
func firstText(resp *anthropic.MessageResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" {
			return strings.TrimSpace(block.Text)
		}
	}
	return ""
}
