package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examforge/internal/dataset"
)

var splitCmd = &cobra.Command{
	Use:   "split <dataset-file>",
	Short: "Split a dataset into train and eval files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		evalRatio, _ := cmd.Flags().GetFloat64("eval-ratio")
		outDir, _ := cmd.Flags().GetString("output-dir")

		if evalRatio <= 0 || evalRatio >= 1 {
			return fmt.Errorf("eval ratio %.2f out of range (0, 1)", evalRatio)
		}

		path := args[0]
		samples, err := dataset.ReadAll(path)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return fmt.Errorf("dataset %s is empty", path)
		}

		train, eval := dataset.Split(samples, evalRatio)
		format := dataset.FormatForPath(path)

		trainPath := derivedPath(path, outDir, "train")
		evalPath := derivedPath(path, outDir, "eval")

		if err := writeSplit(trainPath, format, train); err != nil {
			return err
		}
		if err := writeSplit(evalPath, format, eval); err != nil {
			return err
		}

		fmt.Printf("Wrote %d samples to %s\n", len(train), trainPath)
		fmt.Printf("Wrote %d samples to %s\n", len(eval), evalPath)
		return nil
	},
}

func init() {
	splitCmd.Flags().Float64("eval-ratio", 0.1, "Fraction of trailing records held out for eval")
	splitCmd.Flags().String("output-dir", "", "Directory for the derived files (default: alongside the input)")
}

func derivedPath(path, dir, suffix string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext) + "_" + suffix + ext
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, base)
}

func writeSplit(path string, format dataset.Format, samples []dataset.Sample) error {
	w, err := dataset.NewWriter(path, dataset.Options{Format: format, Overwrite: true})
	if err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Append(s); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
