// Package analyst implements the question pipeline: intent classification,
// column resolution, semantic validation, and execution. Each stage owns
// detection of its own error class and short-circuits the stages after it.
package analyst

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// confidenceThreshold is the floor below which a classification falls back to
// unsupported_query.
const confidenceThreshold = 0.5

// intentCue is one deterministic keyword rule. Cues are evaluated in table
// order; the first hit wins. Strong cues (exact analytic keywords) carry 0.9,
// weaker phrasings 0.6.
type intentCue struct {
	keywords   []string
	intent     model.Intent
	confidence float64
}

// intentCues maps question phrasings to intents. Comparison and trend cues
// come before group_by so "compare revenue by region" classifies as compare,
// and group_by comes before the plain aggregates so "average revenue by
// region" becomes a breakdown rather than a single scalar.
var intentCues = []intentCue{
	{[]string{"compare", " vs ", " vs. ", "versus", "difference between"}, model.IntentCompare, 0.9},
	{[]string{"over time", "trend", "by month", "by week", "by day", "by year", "per month", "timeline"}, model.IntentTimeSeries, 0.9},
	{[]string{" by ", "breakdown", "broken down", "grouped", "group by", "for each", "per "}, model.IntentGroupBy, 0.9},
	{[]string{"average", "mean ", "avg"}, model.IntentAggregateAvg, 0.9},
	{[]string{"total", "sum"}, model.IntentAggregateSum, 0.9},
	{[]string{"how many", "count", "number of"}, model.IntentAggregateCount, 0.9},
	{[]string{"typical", "usually"}, model.IntentAggregateAvg, 0.6},
	{[]string{"altogether", "overall"}, model.IntentAggregateSum, 0.6},
}

// quotedLiteral captures a double- or single-quoted literal in the question,
// surfaced as the extracted value (e.g. a lookup key).
var quotedLiteral = regexp.MustCompile(`["']([^"']+)["']`)

// ClassifyIntent maps a natural-language question to one of the fixed intents
// with a confidence score. It operates purely on text and never touches the
// dataset.
func ClassifyIntent(question string) model.IntentClassification {
	lower := " " + strings.ToLower(strings.TrimSpace(question)) + " "

	result := model.IntentClassification{
		Intent:     model.IntentUnsupported,
		Confidence: 0,
	}

	for _, cue := range intentCues {
		for _, kw := range cue.keywords {
			if strings.Contains(lower, kw) {
				result.Intent = cue.intent
				result.Confidence = cue.confidence
				break
			}
		}
		if result.Intent != model.IntentUnsupported {
			break
		}
	}

	if result.Confidence < confidenceThreshold {
		result.Intent = model.IntentUnsupported
		result.Confidence = 0
	}

	if m := quotedLiteral.FindStringSubmatch(question); m != nil {
		result.ExtractedValue = m[1]
	}

	zap.L().Debug("classify: intent determined",
		zap.String("intent", string(result.Intent)),
		zap.Float64("confidence", result.Confidence),
	)

	return result
}
