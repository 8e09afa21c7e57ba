// Package profiler infers a semantic type and summary statistics for every
// column of a dataset version. Profiling is a pure function of the parsed
// rows: the same input always yields the same profile, and the inferred types
// are immutable for that version. Downstream stages consume the inferred
// types and never re-infer from raw strings.
package profiler

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/dataset"
	"github.com/sells-group/insight-cli/internal/model"
)

// booleanValues is the closed set of raw values a boolean column may contain.
var booleanValues = map[string]bool{
	"true": true, "false": false,
	"yes": true, "no": false,
	"1": true, "0": false,
}

// dateLayouts are the calendar-date formats accepted during inference,
// most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// Profile infers a DatasetProfile from parsed rows and headers. It fails with
// EMPTY_DATASET when there are zero rows and NO_COLUMNS when there are zero
// columns; both are fatal and no partial profile is returned. An optional
// schema sidecar may pin semantic types and designate the outcome column.
func Profile(table *dataset.Table, datasetVersionID string, schema *dataset.Schema) (*model.DatasetProfile, error) {
	if len(table.Headers) == 0 {
		return nil, model.NewAnalysisError(model.CodeNoColumns, "the dataset has no columns; check that the file has a header row")
	}
	if len(table.Rows) == 0 {
		return nil, model.NewAnalysisError(model.CodeEmptyDataset, "the dataset has no data rows; upload a file with at least one row")
	}

	profile := &model.DatasetProfile{
		DatasetVersionID: datasetVersionID,
		RowCount:         len(table.Rows),
		ColumnCount:      len(table.Headers),
		Columns:          make([]model.ColumnProfile, 0, len(table.Headers)),
		ProfiledAt:       time.Now().UTC(),
	}

	for _, name := range table.Headers {
		values := make([]string, 0, len(table.Rows))
		for _, row := range table.Rows {
			values = append(values, row[name])
		}

		var pinned model.SemanticType
		if schema != nil {
			pinned = schema.TypeOverrides[name]
		}
		profile.Columns = append(profile.Columns, profileColumn(name, values, pinned))
	}

	profile.OutcomeColumn = designateOutcome(profile, schema)

	zap.L().Info("profiler: dataset profiled",
		zap.String("dataset_version_id", datasetVersionID),
		zap.Int("row_count", profile.RowCount),
		zap.Int("column_count", profile.ColumnCount),
		zap.String("outcome_column", profile.OutcomeColumn),
	)

	return profile, nil
}

func profileColumn(name string, values []string, pinned model.SemanticType) model.ColumnProfile {
	col := model.ColumnProfile{Name: name}

	distinct := make(map[string]struct{})
	var nonNull []string
	for _, v := range values {
		norm := Normalize(v)
		if norm == "" {
			col.NullCount++
			continue
		}
		distinct[norm] = struct{}{}
		nonNull = append(nonNull, norm)
	}
	col.NullRatio = float64(col.NullCount) / float64(len(values))
	col.DistinctCount = len(distinct)

	if pinned != "" {
		col.SemanticType = pinned
	} else {
		col.SemanticType = inferType(nonNull)
	}

	if col.SemanticType == model.SemanticNumber {
		var sum float64
		var n int
		for _, v := range nonNull {
			f, ok := ParseNumber(v)
			if !ok {
				continue
			}
			if n == 0 {
				mn, mx := f, f
				col.Min, col.Max = &mn, &mx
			} else {
				if f < *col.Min {
					*col.Min = f
				}
				if f > *col.Max {
					*col.Max = f
				}
			}
			sum += f
			n++
		}
		if n > 0 {
			mean := sum / float64(n)
			col.Mean = &mean
		}
	}

	return col
}

// inferType picks the semantic type matched by the majority of non-null
// values, checking boolean, then date, then number. A column that matches
// nothing (including an entirely null column) is a string.
func inferType(nonNull []string) model.SemanticType {
	if len(nonNull) == 0 {
		return model.SemanticString
	}

	var boolN, dateN, numN int
	for _, v := range nonNull {
		if _, ok := booleanValues[strings.ToLower(v)]; ok {
			boolN++
		}
		if isDate(v) {
			dateN++
		}
		if _, ok := ParseNumber(v); ok {
			numN++
		}
	}

	majority := len(nonNull)/2 + 1
	switch {
	case boolN >= majority:
		return model.SemanticBoolean
	case dateN >= majority:
		return model.SemanticDate
	case numN >= majority:
		return model.SemanticNumber
	default:
		return model.SemanticString
	}
}

func isDate(v string) bool {
	_, err := ParseDate(v)
	return err == nil
}

// ParseDate parses a raw value as a calendar date using the accepted layouts.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ParseNumber parses a raw value as a float after stripping grouping
// separators and a currency prefix.
func ParseNumber(v string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool interprets a raw value from the boolean closed set.
func ParseBool(v string) (bool, bool) {
	b, ok := booleanValues[strings.ToLower(strings.TrimSpace(v))]
	return b, ok
}

// Normalize trims a raw value and removes thousands separators so that
// "1,000" and "1000" count as one distinct value. Empty string means null.
func Normalize(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return ""
	}
	if _, ok := ParseNumber(trimmed); ok {
		return strings.ReplaceAll(trimmed, ",", "")
	}
	return trimmed
}

// designateOutcome picks the outcome column: the sidecar designation when it
// names a boolean column, otherwise the single boolean column when exactly
// one exists. No further guessing.
func designateOutcome(p *model.DatasetProfile, schema *dataset.Schema) string {
	if schema != nil && schema.OutcomeColumn != "" {
		if c := p.Column(schema.OutcomeColumn); c != nil && c.SemanticType == model.SemanticBoolean {
			return schema.OutcomeColumn
		}
		zap.L().Warn("profiler: designated outcome column is not boolean, ignoring",
			zap.String("column", schema.OutcomeColumn),
		)
	}

	var boolCols []string
	for _, c := range p.Columns {
		if c.SemanticType == model.SemanticBoolean {
			boolCols = append(boolCols, c.Name)
		}
	}
	if len(boolCols) == 1 {
		return boolCols[0]
	}
	return ""
}
