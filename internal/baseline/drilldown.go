package baseline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/dataset"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/profiler"
)

// minViableSample is the smallest outcome group a drill-down will compare.
const minViableSample = 5

// DrillDown compares a metric column between the two outcome groups:
// per-group histogram, interpolated p25/p50/p75, and an optional secondary
// breakdown by one categorical dimension. It fails with a descriptive typed
// error when the metric cannot be found or a group is below the minimum
// viable sample size.
func DrillDown(ctx context.Context, filePath string, profile *model.DatasetProfile, metricColumn, secondaryDimension string) (*model.DrillDownResult, *model.AnalysisError) {
	metricProfile := profile.Column(metricColumn)
	if metricProfile == nil {
		return nil, model.NewAnalysisError(model.CodeMetricNotFound,
			fmt.Sprintf("metric column %q does not exist in this dataset", metricColumn))
	}
	if !metricProfile.IsNumeric() {
		return nil, model.NewAnalysisError(model.CodeMetricNotFound,
			fmt.Sprintf("column %q is %s, not numeric; drill-down compares numeric metrics", metricColumn, metricProfile.SemanticType))
	}
	if profile.OutcomeColumn == "" {
		return nil, model.NewAnalysisError(model.CodeInsufficientGroup,
			"no outcome column is designated for this dataset; drill-down needs two outcome groups to compare")
	}
	if secondaryDimension != "" && profile.Column(secondaryDimension) == nil {
		return nil, model.NewAnalysisError(model.CodeNoDimensionMatch,
			fmt.Sprintf("secondary dimension %q does not exist in this dataset", secondaryDimension))
	}

	table, err := dataset.Load(ctx, filePath, dataset.LoadOptions{})
	if err != nil {
		return nil, model.NewAnalysisError(model.CodeFileUnreadable,
			fmt.Sprintf("the dataset file could not be read: %v", err))
	}

	groupA, groupB := splitByOutcome(table, profile.OutcomeColumn, metricColumn)
	if len(groupA) < minViableSample || len(groupB) < minViableSample {
		return nil, model.NewAnalysisError(model.CodeInsufficientGroup,
			fmt.Sprintf("outcome groups are too small to compare (%d with outcome, %d without; need at least %d each)",
				len(groupA), len(groupB), minViableSample))
	}

	result := &model.DrillDownResult{
		MetricColumn:       metricColumn,
		SecondaryDimension: secondaryDimension,
		Groups: []model.GroupStats{
			groupStats("outcome", groupA),
			groupStats("no_outcome", groupB),
		},
	}

	if secondaryDimension != "" {
		withOutcome, withoutOutcome := splitTableByOutcome(table, profile.OutcomeColumn)
		result.Groups[0].SecondaryBreakdown = groupBreakdown(withOutcome, metricColumn, secondaryDimension)
		result.Groups[1].SecondaryBreakdown = groupBreakdown(withoutOutcome, metricColumn, secondaryDimension)
	}

	zap.L().Info("drilldown: comparison computed",
		zap.String("metric", metricColumn),
		zap.Int("group_a", len(groupA)),
		zap.Int("group_b", len(groupB)),
	)

	return result, nil
}

func groupStats(label string, values []float64) model.GroupStats {
	sorted := sortedCopy(values)
	return model.GroupStats{
		Label:        label,
		Count:        len(values),
		P25:          percentile(sorted, 25),
		P50:          percentile(sorted, 50),
		P75:          percentile(sorted, 75),
		Distribution: histogram(values, defaultBucketCount),
	}
}

// splitTableByOutcome partitions the table's rows by the outcome column.
// Rows whose outcome value is not parseable as boolean belong to neither
// group.
func splitTableByOutcome(table *dataset.Table, outcome string) (withOutcome, withoutOutcome *dataset.Table) {
	withOutcome = &dataset.Table{Headers: table.Headers}
	withoutOutcome = &dataset.Table{Headers: table.Headers}
	for _, row := range table.Rows {
		b, ok := profiler.ParseBool(row[outcome])
		if !ok {
			continue
		}
		if b {
			withOutcome.Rows = append(withOutcome.Rows, row)
		} else {
			withoutOutcome.Rows = append(withoutOutcome.Rows, row)
		}
	}
	return withOutcome, withoutOutcome
}
