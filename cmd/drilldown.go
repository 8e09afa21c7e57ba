package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/insight-cli/internal/baseline"
)

var (
	drillFile      string
	drillMetric    string
	drillDimension string
)

var drilldownCmd = &cobra.Command{
	Use:   "drilldown",
	Short: "Split a metric by outcome group, optionally by a secondary dimension",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profile, err := profiledDataset(ctx, st, drillFile)
		if err != nil {
			return err
		}

		result, aerr := baseline.DrillDown(ctx, drillFile, profile, drillMetric, drillDimension)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if aerr != nil {
			return enc.Encode(aerr)
		}
		return enc.Encode(result)
	},
}

func init() {
	drilldownCmd.Flags().StringVar(&drillFile, "file", "", "dataset file (required)")
	drilldownCmd.Flags().StringVar(&drillMetric, "metric", "", "numeric metric column (required)")
	drilldownCmd.Flags().StringVar(&drillDimension, "dimension", "", "optional secondary dimension column")
	_ = drilldownCmd.MarkFlagRequired("file")
	_ = drilldownCmd.MarkFlagRequired("metric")
	rootCmd.AddCommand(drilldownCmd)
}
