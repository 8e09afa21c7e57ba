package model

import "time"

// ArtifactType discriminates the payload variants of an Artifact.
type ArtifactType string

const (
	ArtifactScalar          ArtifactType = "scalar"
	ArtifactBreakdown       ArtifactType = "breakdown"
	ArtifactTimeSeries      ArtifactType = "timeSeries"
	ArtifactDistribution    ArtifactType = "distribution"
	ArtifactOutcomeAnalysis ArtifactType = "outcomeAnalysis"
)

// ScalarData is the payload for aggregate_avg / aggregate_sum / aggregate_count.
type ScalarData struct {
	Column    string    `json:"column"`
	Operation Operation `json:"operation"`
	Value     float64   `json:"value"`
	RowsUsed  int       `json:"rows_used"`
}

// BreakdownRow is one category in a group-by result.
type BreakdownRow struct {
	Category      string  `json:"category"`
	Count         int     `json:"count"`
	AverageMetric float64 `json:"average_metric"`
}

// BreakdownData is the payload for group_by and compare intents.
type BreakdownData struct {
	Metric    string         `json:"metric"`
	Dimension string         `json:"dimension"`
	Rows      []BreakdownRow `json:"rows"`
}

// TimeSeriesPoint is one bucket of a time series.
type TimeSeriesPoint struct {
	Bucket string  `json:"bucket"`
	Value  float64 `json:"value"`
}

// TimeSeriesData is the payload for the time_series intent.
type TimeSeriesData struct {
	Metric      string            `json:"metric"`
	TimeColumn  string            `json:"time_column"`
	Granularity string            `json:"granularity"` // "day" or "month"
	Points      []TimeSeriesPoint `json:"points"`
}

// HistogramBucket is one equal-width bucket of a histogram.
type HistogramBucket struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DistributionData is a fixed-bucket histogram payload.
type DistributionData struct {
	Column  string            `json:"column"`
	Buckets []HistogramBucket `json:"buckets"`
}

// Artifact is the immutable, typed result of a successful execution. Exactly
// one payload field matching Type is set. Explanation and ChartSpec may be
// attached later; the computed payload never changes retroactively.
type Artifact struct {
	ID               string       `json:"id"`
	Type             ArtifactType `json:"type"`
	DatasetVersionID string       `json:"dataset_version_id"`
	GeneratedAt      time.Time    `json:"generated_at"`

	Scalar       *ScalarData       `json:"scalar,omitempty"`
	Breakdown    *BreakdownData    `json:"breakdown,omitempty"`
	TimeSeries   *TimeSeriesData   `json:"time_series,omitempty"`
	Distribution *DistributionData `json:"distribution,omitempty"`
	Outcome      *OutcomeAnalysis  `json:"outcome,omitempty"`

	Explanation string `json:"explanation,omitempty"`
	ChartSpec   string `json:"chart_spec,omitempty"`
}
