package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examforge/internal/ledger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past generation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve ledger path: %w", err)
		}

		led, err := ledger.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer led.Close()

		runs, err := led.QueryRuns(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("%-19s  %-16s  %5s  %5s  %5s  %5s  %-11s  %s\n",
			"Started", "Topic", "Req", "Done", "Kept", "Drop", "Status", "Output")
		fmt.Println(strings.Repeat("─", 110))

		for _, r := range runs {
			topic := r.Topic
			if len([]rune(topic)) > 16 {
				topic = string([]rune(topic)[:16])
			}
			fmt.Printf("%-19s  %-16s  %5d  %5d  %5d  %5d  %-11s  %s\n",
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				topic, r.Requested, r.Completed, r.Accepted, r.Rejected,
				r.Status, r.OutputPath)
			if r.Error != "" {
				fmt.Printf("%21s%s\n", "", r.Error)
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
}
