package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/baseline"
)

var (
	baselineFile    string
	baselineRefresh bool
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Compute the three-phase baseline analysis for a dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profile, err := profiledDataset(ctx, st, baselineFile)
		if err != nil {
			return err
		}

		analysis, err := st.GetBaseline(ctx, profile.DatasetVersionID)
		if err != nil {
			return err
		}
		if analysis == nil || baselineRefresh {
			analysis, err = baseline.Run(ctx, profile, baselineFile)
			if err != nil {
				return err
			}
			if err := st.SaveBaseline(ctx, analysis); err != nil {
				return err
			}
			zap.L().Info("baseline computed",
				zap.String("dataset_version_id", profile.DatasetVersionID),
				zap.Int("rows", analysis.Metadata.RowCount),
			)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	},
}

func init() {
	baselineCmd.Flags().StringVar(&baselineFile, "file", "", "dataset file (required)")
	baselineCmd.Flags().BoolVar(&baselineRefresh, "refresh", false, "recompute even if a stored baseline exists")
	_ = baselineCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(baselineCmd)
}
