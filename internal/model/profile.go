// Package model defines the shared types for the analytics core: dataset
// profiles, question intents, column resolutions, guard verdicts, artifacts,
// and baseline analyses.
package model

import "time"

// SemanticType is the inferred meaning-bearing type of a column, distinct
// from its raw storage representation (which is always string).
type SemanticType string

const (
	SemanticString  SemanticType = "string"
	SemanticNumber  SemanticType = "number"
	SemanticBoolean SemanticType = "boolean"
	SemanticDate    SemanticType = "date"
	SemanticUnknown SemanticType = "unknown"
)

// ColumnProfile holds the inferred type and summary statistics for one column
// of a dataset version. The semantic type is decided once per version and is
// immutable for that version.
type ColumnProfile struct {
	Name          string       `json:"name"`
	SemanticType  SemanticType `json:"semantic_type"`
	NullCount     int          `json:"null_count"`
	NullRatio     float64      `json:"null_ratio"`
	DistinctCount int          `json:"distinct_count"`

	// Numeric-only statistics; nil unless SemanticType is number.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty"`
}

// IsNumeric reports whether the column was inferred as numeric.
func (c *ColumnProfile) IsNumeric() bool {
	return c.SemanticType == SemanticNumber
}

// DatasetProfile is the read-only profiling result for one dataset version.
type DatasetProfile struct {
	DatasetVersionID string          `json:"dataset_version_id"`
	RowCount         int             `json:"row_count"`
	ColumnCount      int             `json:"column_count"`
	Columns          []ColumnProfile `json:"columns"`
	ProfiledAt       time.Time       `json:"profiled_at"`

	// OutcomeColumn is the designated boolean column used to split the
	// dataset into two comparison groups, empty when none is designated.
	OutcomeColumn string `json:"outcome_column,omitempty"`
}

// Column returns the profile for the named column, or nil if absent.
func (p *DatasetProfile) Column(name string) *ColumnProfile {
	for i := range p.Columns {
		if p.Columns[i].Name == name {
			return &p.Columns[i]
		}
	}
	return nil
}

// NumericColumns returns the profiles of all numeric columns in order.
func (p *DatasetProfile) NumericColumns() []ColumnProfile {
	var out []ColumnProfile
	for _, c := range p.Columns {
		if c.SemanticType == SemanticNumber {
			out = append(out, c)
		}
	}
	return out
}

// CategoricalColumns returns string-typed columns whose distinct count falls
// inside [minDistinct, maxDistinct], the window used for standard breakdowns.
func (p *DatasetProfile) CategoricalColumns(minDistinct, maxDistinct int) []ColumnProfile {
	var out []ColumnProfile
	for _, c := range p.Columns {
		if c.SemanticType == SemanticString && c.DistinctCount >= minDistinct && c.DistinctCount <= maxDistinct {
			out = append(out, c)
		}
	}
	return out
}
