package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

const drillCSV = `revenue,region,converted
1000,west,true
1200,west,true
800,east,true
1400,west,true
900,east,true
100,east,false
200,east,false
150,west,false
120,east,false
180,west,false
`

func TestDrillDown_ComparesOutcomeGroups(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	result, aerr := DrillDown(context.Background(), path, profile, "revenue", "")
	require.Nil(t, aerr)
	require.NotNil(t, result)

	assert.Equal(t, "revenue", result.MetricColumn)
	assert.Empty(t, result.SecondaryDimension)
	require.Len(t, result.Groups, 2)

	with := result.Groups[0]
	assert.Equal(t, "outcome", with.Label)
	assert.Equal(t, 5, with.Count)
	// sorted: 800 900 1000 1200 1400
	assert.InDelta(t, 900.0, with.P25, 1e-9)
	assert.InDelta(t, 1000.0, with.P50, 1e-9)
	assert.InDelta(t, 1200.0, with.P75, 1e-9)
	assert.NotEmpty(t, with.Distribution)

	without := result.Groups[1]
	assert.Equal(t, "no_outcome", without.Label)
	assert.Equal(t, 5, without.Count)
	// sorted: 100 120 150 180 200
	assert.InDelta(t, 120.0, without.P25, 1e-9)
	assert.InDelta(t, 150.0, without.P50, 1e-9)
	assert.InDelta(t, 180.0, without.P75, 1e-9)
}

func TestDrillDown_SecondaryBreakdown(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	result, aerr := DrillDown(context.Background(), path, profile, "revenue", "region")
	require.Nil(t, aerr)
	assert.Equal(t, "region", result.SecondaryDimension)

	with := result.Groups[0].SecondaryBreakdown
	require.Len(t, with, 2)
	// Outcome group: 3 west rows, 2 east rows.
	assert.Equal(t, "west", with[0].Category)
	assert.Equal(t, 3, with[0].Count)
	assert.InDelta(t, 1200.0, with[0].AverageMetric, 1e-9)
	assert.Equal(t, "east", with[1].Category)
	assert.Equal(t, 2, with[1].Count)
	assert.InDelta(t, 850.0, with[1].AverageMetric, 1e-9)

	without := result.Groups[1].SecondaryBreakdown
	require.Len(t, without, 2)
	assert.Equal(t, "east", without[0].Category)
	assert.Equal(t, 3, without[0].Count)
}

func TestDrillDown_MetricNotFound(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	_, aerr := DrillDown(context.Background(), path, profile, "headcount", "")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeMetricNotFound, aerr.Code)
	assert.Contains(t, aerr.Message, "headcount")
}

func TestDrillDown_NonNumericMetric(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	_, aerr := DrillDown(context.Background(), path, profile, "region", "")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeMetricNotFound, aerr.Code)
	assert.Contains(t, aerr.Message, "not numeric")
}

func TestDrillDown_NoOutcomeColumn(t *testing.T) {
	profile, path := fixture(t, "revenue,region\n100,west\n200,east\n")

	_, aerr := DrillDown(context.Background(), path, profile, "revenue", "")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeInsufficientGroup, aerr.Code)
}

func TestDrillDown_GroupBelowMinimumSample(t *testing.T) {
	profile, path := fixture(t, `revenue,converted
1000,true
1200,true
800,true
900,true
1400,true
100,false
200,false
`)

	_, aerr := DrillDown(context.Background(), path, profile, "revenue", "")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeInsufficientGroup, aerr.Code)
	assert.Contains(t, aerr.Message, "too small")
}

func TestDrillDown_UnknownSecondaryDimension(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	_, aerr := DrillDown(context.Background(), path, profile, "revenue", "segment")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeNoDimensionMatch, aerr.Code)
}

func TestDrillDown_FileUnreadable(t *testing.T) {
	profile, path := fixture(t, drillCSV)

	_, aerr := DrillDown(context.Background(), path+".missing", profile, "revenue", "")
	require.NotNil(t, aerr)
	assert.Equal(t, model.CodeFileUnreadable, aerr.Code)
}
