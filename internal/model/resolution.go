package model

// Error codes for the five error classes of the analytics core. Every failure
// surfaced to a caller carries one of these so the distinguishing class is
// never lost.
const (
	CodeEmptyDataset      = "EMPTY_DATASET"
	CodeNoColumns         = "NO_COLUMNS"
	CodeUnsupportedQuery  = "UNSUPPORTED_QUERY"
	CodeNoMetricMatch     = "NO_METRIC_MATCH"
	CodeNoDimensionMatch  = "NO_DIMENSION_MATCH"
	CodeNoTimeColumn      = "NO_TIME_COLUMN"
	CodeSemanticBlocked   = "SEMANTIC_BLOCKED"
	CodeColumnMissing     = "COLUMN_MISSING"
	CodeFileUnreadable    = "FILE_UNREADABLE"
	CodeMetricNotFound    = "METRIC_NOT_FOUND"
	CodeInsufficientGroup = "INSUFFICIENT_GROUP"
)

// AnalysisError is a structured, typed failure returned by a pipeline stage.
type AnalysisError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AnalysisError) Error() string {
	return e.Code + ": " + e.Message
}

// NewAnalysisError builds a typed error with the given code and message.
func NewAnalysisError(code, message string) *AnalysisError {
	return &AnalysisError{Code: code, Message: message}
}

// ColumnRef pairs a resolved column name with its profile.
type ColumnRef struct {
	ColumnName string         `json:"column_name"`
	Profile    *ColumnProfile `json:"profile"`
}

// MetricResolution maps a question to concrete dataset columns. A resolution
// is either valid or replaced by an AnalysisError, never both.
type MetricResolution struct {
	Metric     ColumnRef  `json:"metric"`
	Dimension  *ColumnRef `json:"dimension,omitempty"`
	TimeColumn *ColumnRef `json:"time_column,omitempty"`
}
