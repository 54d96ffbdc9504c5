package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinterm/onco-map/internal/dataset"
	"github.com/clinterm/onco-map/internal/eval"
	"github.com/clinterm/onco-map/internal/fingerprint"
	"github.com/clinterm/onco-map/internal/formatter"
	"github.com/clinterm/onco-map/internal/gate"
	"github.com/clinterm/onco-map/internal/mapping"
	"github.com/clinterm/onco-map/internal/storage"
)

var (
	evalThresholdsPath string
	evalBaselinePath   string
	evalDumpResults    bool
	evalChunkSize      int
)

var evalCmd = &cobra.Command{
	Use:   "eval <dataset-name>",
	Short: "Run an evaluation against a gold-standard dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cfg := loadConfig(cmd)
		root := cfg.DataRoot

		verbosePrintf("loading dataset %q from %s\n", name, root)
		outcome, err := dataset.Load(root, name, cfg.Strict, func(msg string) {
			fmt.Fprintf(os.Stderr, "onco-map: %s\n", msg)
		})
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}

		engine := mapping.NewEngine(cfg.Thresholds)

		var summary eval.EvalSummary
		if evalChunkSize > 0 {
			f, err := os.Open(outcome.DataPath)
			if err != nil {
				return fmt.Errorf("open dataset: %w", err)
			}
			defer f.Close()
			reader := dataset.NewCaseReader(f)
			summary, err = eval.RunStreaming(reader, engine.Map, evalChunkSize)
			if err != nil {
				return fmt.Errorf("stream evaluation: %w", err)
			}
		} else {
			summary = eval.Run(outcome.Cases, engine.Map)
		}
		summary = maybeBootstrap(summary)

		if evalDumpResults {
			store := storage.NewFileResultStore(storage.WithBaseDir(".onco-map"))
			if err := store.Init(); err != nil {
				return fmt.Errorf("init result store: %w", err)
			}
			path, err := store.WriteResults(name, summary.Results)
			if err != nil {
				return fmt.Errorf("dump results: %w", err)
			}
			verbosePrintf("wrote per-case results to %s\n", path)
		}

		baseline, mismatch, err := reconcileBaseline(name, evalBaselinePath, summary)
		if err != nil {
			return err
		}

		if err := renderEvalSummary(summary, baseline, cfg.Output); err != nil {
			return err
		}

		if mismatch != nil {
			fmt.Fprintln(os.Stderr, mismatch)
			return mismatch
		}

		thresholds, err := loadGateThresholds(evalThresholdsPath, cfg.Gate)
		if err != nil {
			return err
		}
		if violations := gate.Check(summary, thresholds); len(violations) > 0 {
			for _, v := range violations {
				fmt.Fprintln(os.Stderr, v.Error())
			}
			return fmt.Errorf("gate: %d threshold violation(s)", len(violations))
		}

		return nil
	},
}

// reconcileBaseline implements the eval command's --baseline contract:
// create the snapshot if it doesn't exist yet, otherwise compare the
// current summary's fingerprint against the stored one and report a
// FingerprintMismatchError rather than silently passing. baselinePath ==
// "" means the flag wasn't given, and both return values are nil.
func reconcileBaseline(name, baselinePath string, summary eval.EvalSummary) (*eval.EvalSummary, *fingerprint.FingerprintMismatchError, error) {
	if baselinePath == "" {
		return nil, nil, nil
	}

	snapshot, err := fingerprint.LoadBaseline(baselinePath, name)
	if errors.Is(err, fs.ErrNotExist) {
		verbosePrintf("no baseline found for %q at %s, recording the current summary\n", name, baselinePath)
		newSnapshot := fingerprint.BaselineSnapshot{
			Dataset:    name,
			RecordedAt: time.Now().UTC().Format(time.RFC3339),
			Summary:    summary,
		}
		if _, err := fingerprint.SaveBaseline(baselinePath, newSnapshot); err != nil {
			return nil, nil, fmt.Errorf("record baseline: %w", err)
		}
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load baseline: %w", err)
	}

	currentDigest, err := fingerprint.Digest(summary)
	if err != nil {
		return nil, nil, fmt.Errorf("compute fingerprint: %w", err)
	}
	baselineDigest, err := fingerprint.Digest(snapshot.Summary)
	if err != nil {
		return nil, nil, fmt.Errorf("compute baseline fingerprint: %w", err)
	}

	baseline := &snapshot.Summary
	if currentDigest != baselineDigest {
		return baseline, &fingerprint.FingerprintMismatchError{Dataset: name, Baseline: baselineDigest, Current: currentDigest}, nil
	}
	return baseline, nil, nil
}

func init() {
	evalCmd.Flags().StringVar(&evalThresholdsPath, "thresholds", "", "Path to a gate thresholds JSON file")
	evalCmd.Flags().StringVar(&evalBaselinePath, "baseline", "", "Directory holding a baseline snapshot; created if missing, otherwise compared and failed on mismatch")
	evalCmd.Flags().BoolVar(&evalDumpResults, "dump-results", false, "Write per-case results to .onco-map/results/<name>.ndjson")
	evalCmd.Flags().IntVar(&evalChunkSize, "chunk-size", 0, "Stream the dataset in chunks of this size instead of loading it whole")
	rootCmd.AddCommand(evalCmd)
}

func loadGateThresholds(path string, fallback gate.Thresholds) (gate.Thresholds, error) {
	if path == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds file: %w", err)
	}
	var thresholds gate.Thresholds
	if err := json.Unmarshal(raw, &thresholds); err != nil {
		return nil, fmt.Errorf("parse thresholds file: %w", err)
	}
	return thresholds, nil
}

func renderEvalSummary(summary eval.EvalSummary, baseline *eval.EvalSummary, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "jsonl":
		return formatter.NewJSONLFormatter().FormatAll(os.Stdout, summary)
	case "markdown":
		mf := &formatter.MarkdownFormatter{Baseline: baseline}
		return mf.Format(os.Stdout, summary)
	default:
		fmt.Printf("Total cases: %d  Correct: %d  Precision: %.4f  Recall: %.4f  F1: %.4f  Coverage: %.4f\n",
			summary.TotalCases, summary.Correct, summary.Precision, summary.Recall, summary.F1, summary.Coverage)
		return formatter.RenderSummaryTable(os.Stdout, summary)
	}
}
