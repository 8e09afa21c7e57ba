package analyst

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

// writeCSV drops CSV content into a temp file and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func metricRes(name string, st model.SemanticType) *model.MetricResolution {
	ref := guardRef(name, st)
	return &model.MetricResolution{Metric: ref}
}

func TestExecute_ScalarAverage(t *testing.T) {
	path := writeCSV(t, "revenue\n100\n200\n\n300\n")

	artifact, aerr := Execute(context.Background(), path, model.IntentAggregateAvg,
		metricRes("revenue", model.SemanticNumber), "ds-v1")
	require.Nil(t, aerr)
	require.Equal(t, model.ArtifactScalar, artifact.Type)
	require.NotNil(t, artifact.Scalar)

	// Nulls are excluded from both the sum and the denominator.
	assert.Equal(t, model.OpAvg, artifact.Scalar.Operation)
	assert.InDelta(t, 200.0, artifact.Scalar.Value, 1e-9)
	assert.Equal(t, 3, artifact.Scalar.RowsUsed)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, "ds-v1", artifact.DatasetVersionID)
}

func TestExecute_ScalarSumParsesCurrency(t *testing.T) {
	path := writeCSV(t, "revenue\n\"$1,000\"\n\"2,500\"\nnot-a-number\n")

	artifact, aerr := Execute(context.Background(), path, model.IntentAggregateSum,
		metricRes("revenue", model.SemanticNumber), "ds-v1")
	require.Nil(t, aerr)
	assert.InDelta(t, 3500.0, artifact.Scalar.Value, 1e-9)
	assert.Equal(t, 2, artifact.Scalar.RowsUsed)
}

func TestExecute_ScalarCountCountsNonNull(t *testing.T) {
	path := writeCSV(t, "region\nwest\n\neast\nwest\n")

	artifact, aerr := Execute(context.Background(), path, model.IntentAggregateCount,
		metricRes("region", model.SemanticString), "ds-v1")
	require.Nil(t, aerr)
	assert.InDelta(t, 3.0, artifact.Scalar.Value, 1e-9)
}

func TestExecute_Breakdown(t *testing.T) {
	path := writeCSV(t, "revenue,region\n100,west\n300,west\n200,east\n")

	dim := guardRef("region", model.SemanticString)
	res := &model.MetricResolution{Metric: guardRef("revenue", model.SemanticNumber), Dimension: &dim}

	artifact, aerr := Execute(context.Background(), path, model.IntentGroupBy, res, "ds-v1")
	require.Nil(t, aerr)
	require.Equal(t, model.ArtifactBreakdown, artifact.Type)
	require.NotNil(t, artifact.Breakdown)

	rows := artifact.Breakdown.Rows
	require.Len(t, rows, 2)
	// Descending count: west (2) before east (1).
	assert.Equal(t, "west", rows[0].Category)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 200.0, rows[0].AverageMetric, 1e-9)
	assert.Equal(t, "east", rows[1].Category)
	assert.InDelta(t, 200.0, rows[1].AverageMetric, 1e-9)
}

func TestExecute_BreakdownTieBrokenByCategory(t *testing.T) {
	path := writeCSV(t, "revenue,region\n100,west\n200,east\n")

	dim := guardRef("region", model.SemanticString)
	res := &model.MetricResolution{Metric: guardRef("revenue", model.SemanticNumber), Dimension: &dim}

	artifact, aerr := Execute(context.Background(), path, model.IntentGroupBy, res, "ds-v1")
	require.Nil(t, aerr)
	rows := artifact.Breakdown.Rows
	require.Len(t, rows, 2)
	assert.Equal(t, "east", rows[0].Category)
	assert.Equal(t, "west", rows[1].Category)
}

func TestExecute_TimeSeriesMonthly(t *testing.T) {
	path := writeCSV(t, "revenue,signup_date\n100,2024-01-10\n300,2024-01-20\n200,2024-06-05\n")

	tc := guardRef("signup_date", model.SemanticDate)
	res := &model.MetricResolution{Metric: guardRef("revenue", model.SemanticNumber), TimeColumn: &tc}

	artifact, aerr := Execute(context.Background(), path, model.IntentTimeSeries, res, "ds-v1")
	require.Nil(t, aerr)
	require.Equal(t, model.ArtifactTimeSeries, artifact.Type)

	series := artifact.TimeSeries
	assert.Equal(t, "month", series.Granularity)
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2024-01", series.Points[0].Bucket)
	assert.InDelta(t, 200.0, series.Points[0].Value, 1e-9)
	assert.Equal(t, "2024-06", series.Points[1].Bucket)
	assert.InDelta(t, 200.0, series.Points[1].Value, 1e-9)
}

func TestExecute_TimeSeriesDailyForShortSpan(t *testing.T) {
	path := writeCSV(t, "revenue,signup_date\n100,2024-01-10\n200,2024-01-12\n")

	tc := guardRef("signup_date", model.SemanticDate)
	res := &model.MetricResolution{Metric: guardRef("revenue", model.SemanticNumber), TimeColumn: &tc}

	artifact, aerr := Execute(context.Background(), path, model.IntentTimeSeries, res, "ds-v1")
	require.Nil(t, aerr)
	series := artifact.TimeSeries
	assert.Equal(t, "day", series.Granularity)
	require.Len(t, series.Points, 2)
	assert.Equal(t, "2024-01-10", series.Points[0].Bucket)
}

func TestExecute_FileUnreadable(t *testing.T) {
	_, aerr := Execute(context.Background(), filepath.Join(t.TempDir(), "missing.csv"),
		model.IntentAggregateAvg, metricRes("revenue", model.SemanticNumber), "ds-v1")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeFileUnreadable, aerr.Code)
}

func TestExecute_ColumnMissingFromFile(t *testing.T) {
	path := writeCSV(t, "other\n1\n")

	_, aerr := Execute(context.Background(), path, model.IntentAggregateAvg,
		metricRes("revenue", model.SemanticNumber), "ds-v1")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeColumnMissing, aerr.Code)
	assert.Contains(t, aerr.Message, "revenue")
}
