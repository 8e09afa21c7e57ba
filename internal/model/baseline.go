package model

import "time"

// MetricSummary is the Phase A summary for one numeric column.
type MetricSummary struct {
	ColumnName   string            `json:"column_name"`
	RowCount     int               `json:"row_count"`
	NonNullCount int               `json:"non_null_count"`
	Mean         float64           `json:"mean"`
	Min          float64           `json:"min"`
	Max          float64           `json:"max"`
	Distribution []HistogramBucket `json:"distribution"`
}

// StandardBreakdown is one Phase B (categorical x metric) breakdown.
type StandardBreakdown struct {
	CategoricalColumn string         `json:"categorical_column"`
	MetricColumn      string         `json:"metric_column"`
	Breakdowns        []BreakdownRow `json:"breakdowns"`
}

// OutcomeRate is the outcome rate within one category of a categorical column.
type OutcomeRate struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Rate     float64 `json:"rate"`
}

// OutcomeBreakdown groups outcome rates by one categorical column.
type OutcomeBreakdown struct {
	CategoricalColumn string        `json:"categorical_column"`
	Rates             []OutcomeRate `json:"rates"`
}

// MetricOutcomeSplit compares a numeric column's average between rows with and
// without the outcome.
type MetricOutcomeSplit struct {
	MetricColumn       string  `json:"metric_column"`
	AverageWithOutcome float64 `json:"average_with_outcome"`
	AverageWithout     float64 `json:"average_without_outcome"`
}

// KeyDifference ranks how strongly one numeric metric separates the two
// outcome groups. RelativeDifference is nil when AverageGroupB is zero;
// entries without a defined relative difference rank after those with one,
// ordered by absolute difference.
type KeyDifference struct {
	MetricColumn       string   `json:"metric_column"`
	AverageGroupA      float64  `json:"average_group_a"` // outcome = true
	AverageGroupB      float64  `json:"average_group_b"` // outcome = false
	AbsoluteDifference float64  `json:"absolute_difference"`
	RelativeDifference *float64 `json:"relative_difference"`
	Rank               int      `json:"rank"`
}

// OutcomeAnalysis is the Phase C payload: outcome rates and ranked key
// differences between the outcome groups.
type OutcomeAnalysis struct {
	OutcomeColumn  string               `json:"outcome_column"`
	OverallRate    float64              `json:"overall_rate"`
	RateByCategory []OutcomeBreakdown   `json:"rate_by_category"`
	MetricSplits   []MetricOutcomeSplit `json:"metric_splits"`
	KeyDifferences []KeyDifference      `json:"key_differences"`
	GroupACount    int                  `json:"group_a_count"`
	GroupBCount    int                  `json:"group_b_count"`
}

// BaselineAnalysis is the fixed three-phase report computed once per dataset
// version, independent of user questions. Regenerated wholesale on a new
// version, never partially updated.
type BaselineAnalysis struct {
	PhaseA struct {
		MetricSummaries []MetricSummary `json:"metric_summaries"`
	} `json:"phase_a"`
	PhaseB struct {
		Breakdowns []StandardBreakdown `json:"breakdowns"`
	} `json:"phase_b"`
	PhaseC struct {
		OutcomeAnalysis *OutcomeAnalysis `json:"outcome_analysis"`
	} `json:"phase_c"`
	Metadata BaselineMetadata `json:"metadata"`
}

// BaselineMetadata identifies the dataset version a baseline was computed for.
type BaselineMetadata struct {
	DatasetVersionID string    `json:"dataset_version_id"`
	RowCount         int       `json:"row_count"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

// GroupStats holds the drill-down statistics for one outcome group.
type GroupStats struct {
	Label        string            `json:"label"` // "outcome" or "no_outcome"
	Count        int               `json:"count"`
	P25          float64           `json:"p25"`
	P50          float64           `json:"p50"`
	P75          float64           `json:"p75"`
	Distribution []HistogramBucket `json:"distribution"`

	// SecondaryBreakdown is present only when a secondary dimension was
	// requested.
	SecondaryBreakdown []BreakdownRow `json:"secondary_breakdown,omitempty"`
}

// DrillDownResult compares a metric between the two outcome groups, with an
// optional secondary breakdown by one categorical dimension.
type DrillDownResult struct {
	MetricColumn       string       `json:"metric_column"`
	SecondaryDimension string       `json:"secondary_dimension,omitempty"`
	Groups             []GroupStats `json:"groups"`
}
