package analyst

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// AskResult is the outcome of one question pipeline run: exactly one of
// Artifact, GuardBlock, or Err is set. A guard block is not an error; it is
// a validated refusal with an explanation the caller surfaces to the user.
type AskResult struct {
	Question       string                     `json:"question"`
	Classification model.IntentClassification `json:"classification"`
	Artifact       *model.Artifact            `json:"artifact,omitempty"`
	GuardBlock     *model.GuardResult         `json:"guard_block,omitempty"`
	Err            *model.AnalysisError       `json:"error,omitempty"`
}

// Ask runs the full pipeline for one question: classify, resolve, guard,
// execute. Each stage owns its own error class; a failure short-circuits all
// later stages. The run is a synchronous computation over the immutable
// dataset version, so concurrent questions against the same version need no
// coordination.
func Ask(ctx context.Context, question string, profile *model.DatasetProfile, filePath string) *AskResult {
	result := &AskResult{Question: question}

	result.Classification = ClassifyIntent(question)
	if result.Classification.Intent == model.IntentUnsupported {
		result.Err = model.NewAnalysisError(model.CodeUnsupportedQuery,
			"the question could not be understood; rephrase using averages, totals, counts, comparisons, or trends")
		return result
	}

	resolution, rerr := ResolveAll(question, profile, result.Classification.Intent)
	if rerr != nil {
		result.Err = rerr
		return result
	}

	if block := ValidateSemanticOperations(resolution, result.Classification.Intent, profile.DatasetVersionID); block != nil {
		result.GuardBlock = block
		return result
	}

	artifact, xerr := Execute(ctx, filePath, result.Classification.Intent, resolution, profile.DatasetVersionID)
	if xerr != nil {
		result.Err = xerr
		return result
	}
	result.Artifact = artifact

	zap.L().Info("pipeline: question answered",
		zap.String("intent", string(result.Classification.Intent)),
		zap.String("metric", resolution.Metric.ColumnName),
		zap.String("artifact_type", string(artifact.Type)),
	)

	return result
}
