package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/insight-cli/internal/model"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     model.Intent
		wantConf float64
	}{
		{"average", "what is the average revenue?", model.IntentAggregateAvg, 0.9},
		{"mean", "mean deal size across accounts", model.IntentAggregateAvg, 0.9},
		{"total", "total revenue this quarter", model.IntentAggregateSum, 0.9},
		{"count", "count of closed deals", model.IntentAggregateCount, 0.9},
		{"how many", "how many customers signed up", model.IntentAggregateCount, 0.9},
		{"group by", "revenue by region", model.IntentGroupBy, 0.9},
		{"breakdown", "breakdown of deals per rep", model.IntentGroupBy, 0.9},
		{"trend", "revenue trend", model.IntentTimeSeries, 0.9},
		{"over time", "how did signups change over time", model.IntentTimeSeries, 0.9},
		{"compare", "compare revenue for west and east", model.IntentCompare, 0.9},
		{"versus", "west versus east revenue", model.IntentCompare, 0.9},
		{"weak avg cue", "what is the typical deal size", model.IntentAggregateAvg, 0.6},
		{"weak sum cue", "how much did we make overall", model.IntentAggregateSum, 0.6},
		{"gibberish", "tell me a story about dragons", model.IntentUnsupported, 0},
		{"empty", "", model.IntentUnsupported, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyIntent(tt.question)
			assert.Equal(t, tt.want, got.Intent)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyIntent_PrecedenceOrder(t *testing.T) {
	// "average revenue by region" mentions both an aggregate and a grouping;
	// the grouping cue wins so the answer is a breakdown, not a scalar.
	got := ClassifyIntent("average revenue by region")
	assert.Equal(t, model.IntentGroupBy, got.Intent)

	// "compare revenue by region" mentions compare and group cues; compare wins.
	got = ClassifyIntent("compare revenue by region")
	assert.Equal(t, model.IntentCompare, got.Intent)

	// "total revenue by month" is a trend, not a grouped sum.
	got = ClassifyIntent("total revenue by month")
	assert.Equal(t, model.IntentTimeSeries, got.Intent)
}

func TestClassifyIntent_ExtractsQuotedValue(t *testing.T) {
	got := ClassifyIntent(`how many deals for "Acme Corp"`)
	assert.Equal(t, model.IntentAggregateCount, got.Intent)
	assert.Equal(t, "Acme Corp", got.ExtractedValue)

	got = ClassifyIntent("average revenue for 'west'")
	assert.Equal(t, "west", got.ExtractedValue)
}

func TestClassifyIntent_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		got := ClassifyIntent("average revenue by region")
		assert.Equal(t, model.IntentGroupBy, got.Intent)
		assert.InDelta(t, 0.9, got.Confidence, 1e-9)
	}
}
