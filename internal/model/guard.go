package model

// Operation is a concrete analytic operation checked by the semantic guard.
type Operation string

const (
	OpAvg        Operation = "AGG_AVG"
	OpSum        Operation = "AGG_SUM"
	OpCount      Operation = "AGG_COUNT"
	OpGroupBy    Operation = "GROUP_BY"
	OpTimeBucket Operation = "TIME_BUCKET"
)

// GuardResult is present only when an operation is semantically invalid for a
// column's inferred type. A nil GuardResult is the only proceed signal; any
// non-null result stops execution and is surfaced to the caller. The verdict
// is final and may not be overridden downstream.
type GuardResult struct {
	IsValid               bool         `json:"is_valid"`
	Column                string       `json:"column"`
	SemanticType          SemanticType `json:"semantic_type"`
	AttemptedOperation    Operation    `json:"attempted_operation"`
	Reason                string       `json:"reason"`
	SuggestedAlternatives []Operation  `json:"suggested_alternatives"`

	// Explanation is optional prose attached after the verdict; it never
	// changes the verdict or the alternatives.
	Explanation string `json:"explanation,omitempty"`
}
