package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/analyst"
)

var (
	askFile     string
	askQuestion string
	askExplain  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a natural-language question about a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profile, err := profiledDataset(ctx, st, askFile)
		if err != nil {
			return err
		}

		result := analyst.Ask(ctx, askQuestion, profile, askFile)

		if askExplain {
			if e := initExplainer(); e != nil {
				switch {
				case result.Artifact != nil:
					prose, err := e.ExplainArtifact(ctx, askQuestion, result.Artifact)
					if err != nil {
						zap.L().Warn("explanation failed", zap.Error(err))
					} else {
						result.Artifact.Explanation = prose
					}
				case result.GuardBlock != nil:
					prose, err := e.ExplainGuardBlock(ctx, askQuestion, result.GuardBlock)
					if err != nil {
						zap.L().Warn("explanation failed", zap.Error(err))
					} else {
						result.GuardBlock.Explanation = prose
					}
				}
			}
		}
		if result.Artifact != nil {
			if err := st.SaveArtifact(ctx, result.Artifact); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	askCmd.Flags().StringVar(&askFile, "file", "", "dataset file (required)")
	askCmd.Flags().StringVar(&askQuestion, "question", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askExplain, "explain", false, "attach a prose explanation (requires API key)")
	_ = askCmd.MarkFlagRequired("file")
	_ = askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}
