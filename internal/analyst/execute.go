package analyst

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/dataset"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/profiler"
)

// dayGranularityWindow is the widest date span, in days, still bucketed per
// day; anything wider buckets per month.
const dayGranularityWindow = 62

// Execute computes the validated operation against the authoritative dataset
// file and produces a typed artifact. It always re-reads the file rather than
// trusting the profiler's cached statistics, so the artifact reflects the
// exact rows. A column present at profiling time but absent at execution time
// is a consistency error, never silently skipped.
func Execute(ctx context.Context, filePath string, intent model.Intent, resolution *model.MetricResolution, datasetVersionID string) (*model.Artifact, *model.AnalysisError) {
	table, err := dataset.Load(ctx, filePath, dataset.LoadOptions{})
	if err != nil {
		return nil, model.NewAnalysisError(model.CodeFileUnreadable,
			fmt.Sprintf("the dataset file could not be read: %v", err))
	}

	if aerr := checkColumns(table, resolution); aerr != nil {
		return nil, aerr
	}

	artifact := &model.Artifact{
		ID:               uuid.New().String(),
		DatasetVersionID: datasetVersionID,
		GeneratedAt:      time.Now().UTC(),
	}

	switch intent {
	case model.IntentAggregateAvg, model.IntentAggregateSum, model.IntentAggregateCount:
		scalar := executeScalar(table, intent, resolution.Metric.ColumnName)
		artifact.Type = model.ArtifactScalar
		artifact.Scalar = scalar

	case model.IntentGroupBy, model.IntentCompare:
		breakdown := executeBreakdown(table, resolution.Metric.ColumnName, resolution.Dimension.ColumnName)
		artifact.Type = model.ArtifactBreakdown
		artifact.Breakdown = breakdown

	case model.IntentTimeSeries:
		series := executeTimeSeries(table, resolution.Metric.ColumnName, resolution.TimeColumn.ColumnName)
		artifact.Type = model.ArtifactTimeSeries
		artifact.TimeSeries = series

	default:
		return nil, model.NewAnalysisError(model.CodeUnsupportedQuery,
			"the question could not be executed; rephrase using averages, totals, counts, breakdowns, or trends")
	}

	zap.L().Info("execute: artifact produced",
		zap.String("artifact_id", artifact.ID),
		zap.String("type", string(artifact.Type)),
		zap.String("dataset_version_id", datasetVersionID),
	)

	return artifact, nil
}

// checkColumns verifies every resolved column still exists in the file.
func checkColumns(table *dataset.Table, resolution *model.MetricResolution) *model.AnalysisError {
	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}

	required := []string{resolution.Metric.ColumnName}
	if resolution.Dimension != nil {
		required = append(required, resolution.Dimension.ColumnName)
	}
	if resolution.TimeColumn != nil {
		required = append(required, resolution.TimeColumn.ColumnName)
	}

	for _, name := range required {
		if !present[name] {
			return model.NewAnalysisError(model.CodeColumnMissing,
				fmt.Sprintf("column %q was present when the dataset was profiled but is missing from the file; the dataset is inconsistent with its profile", name))
		}
	}
	return nil
}

func executeScalar(table *dataset.Table, intent model.Intent, metric string) *model.ScalarData {
	var sum float64
	var used int

	for _, row := range table.Rows {
		raw := profiler.Normalize(row[metric])
		if raw == "" {
			continue
		}
		if intent == model.IntentAggregateCount {
			used++
			continue
		}
		f, ok := profiler.ParseNumber(raw)
		if !ok {
			continue
		}
		sum += f
		used++
	}

	data := &model.ScalarData{Column: metric, RowsUsed: used}
	switch intent {
	case model.IntentAggregateAvg:
		data.Operation = model.OpAvg
		if used > 0 {
			data.Value = sum / float64(used)
		}
	case model.IntentAggregateSum:
		data.Operation = model.OpSum
		data.Value = sum
	case model.IntentAggregateCount:
		data.Operation = model.OpCount
		data.Value = float64(used)
	}
	return data
}

func executeBreakdown(table *dataset.Table, metric, dimension string) *model.BreakdownData {
	type agg struct {
		count   int
		sum     float64
		numeric int
	}
	groups := make(map[string]*agg)

	for _, row := range table.Rows {
		category := profiler.Normalize(row[dimension])
		if category == "" {
			continue
		}
		g, ok := groups[category]
		if !ok {
			g = &agg{}
			groups[category] = g
		}
		g.count++
		if f, ok := profiler.ParseNumber(row[metric]); ok {
			g.sum += f
			g.numeric++
		}
	}

	rows := make([]model.BreakdownRow, 0, len(groups))
	for category, g := range groups {
		row := model.BreakdownRow{Category: category, Count: g.count}
		if g.numeric > 0 {
			row.AverageMetric = g.sum / float64(g.numeric)
		}
		rows = append(rows, row)
	}

	// Descending count, ties broken by category ascending.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Category < rows[j].Category
	})

	return &model.BreakdownData{Metric: metric, Dimension: dimension, Rows: rows}
}

func executeTimeSeries(table *dataset.Table, metric, timeColumn string) *model.TimeSeriesData {
	type point struct {
		sum float64
		n   int
	}

	// First pass: parse dates to pick the granularity from the span.
	var minDate, maxDate time.Time
	var seen bool
	for _, row := range table.Rows {
		t, err := profiler.ParseDate(row[timeColumn])
		if err != nil {
			continue
		}
		if !seen || t.Before(minDate) {
			minDate = t
		}
		if !seen || t.After(maxDate) {
			maxDate = t
		}
		seen = true
	}

	granularity := "month"
	layout := "2006-01"
	if seen && maxDate.Sub(minDate) < dayGranularityWindow*24*time.Hour {
		granularity = "day"
		layout = "2006-01-02"
	}

	buckets := make(map[string]*point)
	for _, row := range table.Rows {
		t, err := profiler.ParseDate(row[timeColumn])
		if err != nil {
			continue
		}
		f, ok := profiler.ParseNumber(row[metric])
		if !ok {
			continue
		}
		key := t.Format(layout)
		p, ok := buckets[key]
		if !ok {
			p = &point{}
			buckets[key] = p
		}
		p.sum += f
		p.n++
	}

	points := make([]model.TimeSeriesPoint, 0, len(buckets))
	for key, p := range buckets {
		points = append(points, model.TimeSeriesPoint{Bucket: key, Value: p.sum / float64(p.n)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket < points[j].Bucket })

	return &model.TimeSeriesData{
		Metric:      metric,
		TimeColumn:  timeColumn,
		Granularity: granularity,
		Points:      points,
	}
}
