package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinterm/onco-map/internal/dataset"
	"github.com/clinterm/onco-map/internal/eval"
	"github.com/clinterm/onco-map/internal/fingerprint"
	"github.com/clinterm/onco-map/internal/mapping"
)

var (
	baselineOut   string
	baselineNotes string
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Record and compare evaluation baselines",
}

var baselineRecordCmd = &cobra.Command{
	Use:   "record <dataset>",
	Short: "Run an evaluation and write its summary as a baseline snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg := loadConfig(cmd)

		outcome, err := dataset.Load(cfg.DataRoot, name, cfg.Strict, func(msg string) {
			fmt.Fprintf(os.Stderr, "onco-map: %s\n", msg)
		})
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}

		engine := mapping.NewEngine(cfg.Thresholds)
		summary := eval.Run(outcome.Cases, engine.Map)

		out := baselineOut
		if out == "" {
			out = cfg.DataRoot
		}

		snapshot := fingerprint.BaselineSnapshot{
			Dataset:    name,
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
			Summary:    summary,
			Notes:      baselineNotes,
		}

		path, err := fingerprint.SaveBaseline(out, snapshot)
		if err != nil {
			return fmt.Errorf("save baseline: %w", err)
		}

		fmt.Printf("Baseline saved: %s\n", path)
		return nil
	},
}

func init() {
	baselineRecordCmd.Flags().StringVar(&baselineOut, "out", "", "Directory to write the baseline snapshot to (defaults to config data_root)")
	baselineRecordCmd.Flags().StringVar(&baselineNotes, "notes", "", "Optional free-text note to attach to the snapshot")
	baselineCmd.AddCommand(baselineRecordCmd)
	rootCmd.AddCommand(baselineCmd)
}
