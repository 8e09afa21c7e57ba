package model

// Intent is the classified analytic operation a question is asking for.
type Intent string

const (
	IntentAggregateAvg   Intent = "aggregate_avg"
	IntentAggregateSum   Intent = "aggregate_sum"
	IntentAggregateCount Intent = "aggregate_count"
	IntentGroupBy        Intent = "group_by"
	IntentTimeSeries     Intent = "time_series"
	IntentCompare        Intent = "compare"
	IntentUnsupported    Intent = "unsupported_query"
)

// AllIntents returns the closed set of intents the classifier can produce.
func AllIntents() []Intent {
	return []Intent{
		IntentAggregateAvg,
		IntentAggregateSum,
		IntentAggregateCount,
		IntentGroupBy,
		IntentTimeSeries,
		IntentCompare,
		IntentUnsupported,
	}
}

// NeedsDimension reports whether the intent resolves a second, categorical column.
func (i Intent) NeedsDimension() bool {
	return i == IntentGroupBy || i == IntentCompare
}

// NeedsTimeColumn reports whether the intent resolves a date-typed column.
func (i Intent) NeedsTimeColumn() bool {
	return i == IntentTimeSeries
}

// IntentClassification is the classifier output for one question. Transient:
// computed per question and not persisted beyond the resulting artifact.
type IntentClassification struct {
	Intent         Intent  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	ExtractedValue string  `json:"extracted_value,omitempty"`
}
