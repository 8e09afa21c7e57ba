// Package baseline computes the fixed three-phase deterministic report for a
// dataset version (per-metric summaries, standard breakdowns, outcome
// analysis) and the drill-down comparisons between outcome groups. All
// computation is a pure function of the dataset snapshot: re-running on an
// unchanged version produces identical output.
package baseline

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insight-cli/internal/dataset"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/profiler"
)

const (
	// minDistinct..maxDistinct is the cardinality window a string column
	// must fall in to qualify as a breakdown dimension.
	minDistinct = 2
	maxDistinct = 20
)

// Run computes the full baseline analysis for a dataset version. Phases with
// no qualifying columns produce empty/nil data, never fabricated values.
func Run(ctx context.Context, profile *model.DatasetProfile, filePath string) (*model.BaselineAnalysis, error) {
	table, err := dataset.Load(ctx, filePath, dataset.LoadOptions{})
	if err != nil {
		return nil, err
	}

	analysis := &model.BaselineAnalysis{
		Metadata: model.BaselineMetadata{
			DatasetVersionID: profile.DatasetVersionID,
			RowCount:         len(table.Rows),
			AnalyzedAt:       time.Now().UTC(),
		},
	}

	metrics := profile.NumericColumns()
	categoricals := profile.CategoricalColumns(minDistinct, maxDistinct)

	// Phase A: per-metric summaries, one goroutine per metric. Results land
	// in pre-indexed slots so the output order stays deterministic.
	summaries := make([]model.MetricSummary, len(metrics))
	g, _ := errgroup.WithContext(ctx)
	for i, m := range metrics {
		g.Go(func() error {
			summaries[i] = summarizeMetric(table, m.Name)
			return nil
		})
	}
	_ = g.Wait()
	analysis.PhaseA.MetricSummaries = summaries

	// Phase B: every (metric x categorical) pair.
	breakdowns := make([]model.StandardBreakdown, 0, len(metrics)*len(categoricals))
	for _, m := range metrics {
		for _, c := range categoricals {
			breakdowns = append(breakdowns, model.StandardBreakdown{
				CategoricalColumn: c.Name,
				MetricColumn:      m.Name,
				Breakdowns:        groupBreakdown(table, m.Name, c.Name),
			})
		}
	}
	analysis.PhaseB.Breakdowns = breakdowns

	// Phase C: only when an outcome column is designated.
	if profile.OutcomeColumn != "" {
		analysis.PhaseC.OutcomeAnalysis = analyzeOutcome(table, profile, metrics, categoricals)
	}

	zap.L().Info("baseline: analysis complete",
		zap.String("dataset_version_id", profile.DatasetVersionID),
		zap.Int("metric_summaries", len(analysis.PhaseA.MetricSummaries)),
		zap.Int("breakdowns", len(analysis.PhaseB.Breakdowns)),
		zap.Bool("outcome_analysis", analysis.PhaseC.OutcomeAnalysis != nil),
	)

	return analysis, nil
}

func summarizeMetric(table *dataset.Table, column string) model.MetricSummary {
	values := numericValues(table, column)

	summary := model.MetricSummary{
		ColumnName:   column,
		RowCount:     len(table.Rows),
		NonNullCount: len(values),
	}
	if len(values) == 0 {
		return summary
	}

	sorted := sortedCopy(values)
	summary.Min = sorted[0]
	summary.Max = sorted[len(sorted)-1]
	summary.Mean = mean(values)
	summary.Distribution = histogram(values, defaultBucketCount)
	return summary
}

// groupBreakdown aggregates the metric per category of the dimension, sorted
// by descending count, ties broken by category ascending.
func groupBreakdown(table *dataset.Table, metric, dimension string) []model.BreakdownRow {
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
		a, ok := groups[category]
		if !ok {
			a = &agg{}
			groups[category] = a
		}
		a.count++
		if f, ok := profiler.ParseNumber(row[metric]); ok {
			a.sum += f
			a.numeric++
		}
	}

	rows := make([]model.BreakdownRow, 0, len(groups))
	for category, a := range groups {
		row := model.BreakdownRow{Category: category, Count: a.count}
		if a.numeric > 0 {
			row.AverageMetric = a.sum / float64(a.numeric)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

func analyzeOutcome(table *dataset.Table, profile *model.DatasetProfile, metrics, categoricals []model.ColumnProfile) *model.OutcomeAnalysis {
	outcome := profile.OutcomeColumn

	var trueCount, falseCount int
	for _, row := range table.Rows {
		b, ok := profiler.ParseBool(row[outcome])
		if !ok {
			continue
		}
		if b {
			trueCount++
		} else {
			falseCount++
		}
	}
	total := trueCount + falseCount
	if total == 0 {
		return nil
	}

	analysis := &model.OutcomeAnalysis{
		OutcomeColumn: outcome,
		OverallRate:   float64(trueCount) / float64(total),
		GroupACount:   trueCount,
		GroupBCount:   falseCount,
	}

	// Outcome rate per category of each qualifying categorical column.
	for _, c := range categoricals {
		analysis.RateByCategory = append(analysis.RateByCategory, outcomeRates(table, outcome, c.Name))
	}

	// Per-metric averages with and without the outcome, and ranked key
	// differences.
	for _, m := range metrics {
		groupA, groupB := splitByOutcome(table, outcome, m.Name)
		if len(groupA) == 0 || len(groupB) == 0 {
			continue
		}
		avgA, avgB := mean(groupA), mean(groupB)

		analysis.MetricSplits = append(analysis.MetricSplits, model.MetricOutcomeSplit{
			MetricColumn:       m.Name,
			AverageWithOutcome: avgA,
			AverageWithout:     avgB,
		})

		kd := model.KeyDifference{
			MetricColumn:       m.Name,
			AverageGroupA:      avgA,
			AverageGroupB:      avgB,
			AbsoluteDifference: math.Abs(avgA - avgB),
		}
		if avgB != 0 {
			rel := kd.AbsoluteDifference / avgB
			kd.RelativeDifference = &rel
		}
		analysis.KeyDifferences = append(analysis.KeyDifferences, kd)
	}

	rankKeyDifferences(analysis.KeyDifferences)
	return analysis
}

// rankKeyDifferences orders by descending absolute relative difference.
// Entries whose relative difference is undefined (zero baseline) rank after
// all defined ones, ordered by absolute difference.
func rankKeyDifferences(kds []model.KeyDifference) {
	sort.SliceStable(kds, func(i, j int) bool {
		ri, rj := kds[i].RelativeDifference, kds[j].RelativeDifference
		switch {
		case ri != nil && rj != nil:
			return math.Abs(*ri) > math.Abs(*rj)
		case ri != nil:
			return true
		case rj != nil:
			return false
		default:
			return kds[i].AbsoluteDifference > kds[j].AbsoluteDifference
		}
	})
	for i := range kds {
		kds[i].Rank = i + 1
	}
}

func outcomeRates(table *dataset.Table, outcome, dimension string) model.OutcomeBreakdown {
	type agg struct {
		total    int
		positive int
	}
	groups := make(map[string]*agg)

	for _, row := range table.Rows {
		category := profiler.Normalize(row[dimension])
		if category == "" {
			continue
		}
		b, ok := profiler.ParseBool(row[outcome])
		if !ok {
			continue
		}
		a, found := groups[category]
		if !found {
			a = &agg{}
			groups[category] = a
		}
		a.total++
		if b {
			a.positive++
		}
	}

	rates := make([]model.OutcomeRate, 0, len(groups))
	for category, a := range groups {
		rates = append(rates, model.OutcomeRate{
			Category: category,
			Count:    a.total,
			Rate:     float64(a.positive) / float64(a.total),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Count != rates[j].Count {
			return rates[i].Count > rates[j].Count
		}
		return rates[i].Category < rates[j].Category
	})

	return model.OutcomeBreakdown{CategoricalColumn: dimension, Rates: rates}
}

// splitByOutcome returns the metric's non-null numeric values for the
// outcome-true and outcome-false groups.
func splitByOutcome(table *dataset.Table, outcome, metric string) (groupA, groupB []float64) {
	for _, row := range table.Rows {
		b, ok := profiler.ParseBool(row[outcome])
		if !ok {
			continue
		}
		f, ok := profiler.ParseNumber(row[metric])
		if !ok {
			continue
		}
		if b {
			groupA = append(groupA, f)
		} else {
			groupB = append(groupB, f)
		}
	}
	return groupA, groupB
}

func numericValues(table *dataset.Table, column string) []float64 {
	var values []float64
	for _, row := range table.Rows {
		if f, ok := profiler.ParseNumber(row[column]); ok {
			values = append(values, f)
		}
	}
	return values
}
