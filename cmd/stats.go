package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/examforge/internal/dataset"
	"github.com/abhisek/examforge/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dataset-file>",
	Short: "Summarize a generated dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := dataset.ReadAll(args[0])
		if err != nil {
			return err
		}

		fmt.Println(report.DatasetSummary(args[0], dataset.Summarize(samples)))
		return nil
	},
}
