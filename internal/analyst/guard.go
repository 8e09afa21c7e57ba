package analyst

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// guardRules is the single source of truth for which operations are
// semantically valid on which column types. Anything absent from the table is
// blocked. Kept as an enumerable table rather than scattered conditionals so
// it can be exhaustively unit-tested.
var guardRules = map[model.Operation]map[model.SemanticType]bool{
	model.OpAvg: {
		model.SemanticNumber: true,
	},
	model.OpSum: {
		model.SemanticNumber: true,
	},
	model.OpCount: {
		model.SemanticNumber:  true,
		model.SemanticDate:    true,
		model.SemanticString:  true,
		model.SemanticBoolean: true,
		model.SemanticUnknown: true,
	},
	model.OpGroupBy: {
		model.SemanticDate:   true,
		model.SemanticString: true,
	},
	model.OpTimeBucket: {
		model.SemanticDate: true,
	},
}

// blockReasons explains, per operation, why a blocked type lacks real-world
// meaning.
var blockReasons = map[model.Operation]string{
	model.OpAvg:        "averaging %s values is not meaningful; an average is only defined for numbers",
	model.OpSum:        "summing %s values is not meaningful; a total is only defined for numbers",
	model.OpCount:      "counting is not defined for %s values",
	model.OpGroupBy:    "grouping by a %s column is not meaningful; group by a category or a date instead",
	model.OpTimeBucket: "a %s column cannot be placed on a time axis; a trend needs calendar dates",
}

// operationsForIntent maps an intent to the operations the guard must check,
// in evaluation order: the metric operation first, then dimension, then time.
func operationsForIntent(intent model.Intent) (metricOp model.Operation, checkDimension, checkTime bool) {
	switch intent {
	case model.IntentAggregateAvg:
		return model.OpAvg, false, false
	case model.IntentAggregateSum:
		return model.OpSum, false, false
	case model.IntentAggregateCount:
		return model.OpCount, false, false
	case model.IntentGroupBy, model.IntentCompare:
		// Breakdowns report the average of the metric per category, so the
		// metric must support averaging.
		return model.OpAvg, true, false
	case model.IntentTimeSeries:
		return model.OpAvg, false, true
	default:
		return model.OpCount, false, false
	}
}

// ValidateSemanticOperations checks that every (operation, semantic type)
// pair in the resolution is meaningful. It returns nil when the operation is
// approved (the only proceed signal) and a GuardResult describing the block
// otherwise. The metric column is evaluated first; if it is invalid, later
// columns are not evaluated.
func ValidateSemanticOperations(resolution *model.MetricResolution, intent model.Intent, datasetVersionID string) *model.GuardResult {
	metricOp, checkDimension, checkTime := operationsForIntent(intent)

	if res := check(resolution.Metric, metricOp, datasetVersionID); res != nil {
		return res
	}
	if checkDimension && resolution.Dimension != nil {
		if res := check(*resolution.Dimension, model.OpGroupBy, datasetVersionID); res != nil {
			return res
		}
	}
	if checkTime && resolution.TimeColumn != nil {
		if res := check(*resolution.TimeColumn, model.OpTimeBucket, datasetVersionID); res != nil {
			return res
		}
	}

	return nil
}

func check(ref model.ColumnRef, op model.Operation, datasetVersionID string) *model.GuardResult {
	st := ref.Profile.SemanticType
	if guardRules[op][st] {
		return nil
	}

	result := &model.GuardResult{
		IsValid:               false,
		Column:                ref.ColumnName,
		SemanticType:          st,
		AttemptedOperation:    op,
		Reason:                fmt.Sprintf(blockReasons[op], st),
		SuggestedAlternatives: alternativesFor(st, op),
	}

	zap.L().Info("guard: operation blocked",
		zap.String("dataset_version_id", datasetVersionID),
		zap.String("column", ref.ColumnName),
		zap.String("semantic_type", string(st)),
		zap.String("operation", string(op)),
	)

	return result
}

// alternativesFor lists the operations that are valid for the column's
// semantic type, excluding the blocked operation itself, in stable order.
func alternativesFor(st model.SemanticType, blocked model.Operation) []model.Operation {
	ordered := []model.Operation{model.OpAvg, model.OpSum, model.OpCount, model.OpGroupBy, model.OpTimeBucket}

	var alts []model.Operation
	for _, op := range ordered {
		if op == blocked {
			continue
		}
		if guardRules[op][st] {
			alts = append(alts, op)
		}
	}
	return alts
}
