package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var profileFile string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile a dataset file and print its column profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		profile, err := profiledDataset(ctx, st, profileFile)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileFile, "file", "", "dataset file (.csv, .tsv, .xlsx) (required)")
	_ = profileCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(profileCmd)
}
