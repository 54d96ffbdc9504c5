// Package fingerprint implements content fingerprinting and baseline
// persistence for evaluation summaries (C9): a canonical digest a caller can
// compare run-to-run, an atomically-written snapshot file, and the
// changelog comparison used by the reporting layer.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clinterm/onco-map/internal/eval"
)

// Digest returns the hex-encoded SHA-256 of summary's canonical JSON
// encoding. encoding/json already sorts map keys and preserves struct field
// declaration order, so no separate canonicalization step is needed for the
// digest to be stable across repeated runs over the same input.
func Digest(summary eval.EvalSummary) (string, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// FingerprintMismatchError reports that a current summary's digest differs
// from a recorded baseline's. Fatal at the CLI layer, recoverable as a value
// everywhere else.
type FingerprintMismatchError struct {
	Dataset  string
	Baseline string
	Current  string
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("fingerprint mismatch for dataset %q: baseline=%s current=%s", e.Dataset, e.Baseline, e.Current)
}

// BaselineSnapshot pairs a recorded summary with the dataset it was
// computed against, for later comparison.
type BaselineSnapshot struct {
	Dataset    string          `json:"dataset"`
	RecordedAt string          `json:"recorded_at"`
	Summary    eval.EvalSummary `json:"summary"`
	Notes      string          `json:"notes,omitempty"`
}

// BaselinePath returns the snapshot file path for dataset under root.
func BaselinePath(root, dataset string) string {
	return filepath.Join(root, dataset+".baseline.json")
}

// SaveBaseline writes snapshot to its baseline path atomically: the content
// is written to a temp file in the same directory and then renamed into
// place, so a reader never observes a partially-written snapshot.
func SaveBaseline(root string, snapshot BaselineSnapshot) (string, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return "", fmt.Errorf("create baseline directory: %w", err)
	}
	path := BaselinePath(root, snapshot.Dataset)

	if err := atomicWriteJSON(path, snapshot); err != nil {
		return "", err
	}
	return path, nil
}

// LoadBaseline reads back a previously saved snapshot for dataset.
func LoadBaseline(root, dataset string) (BaselineSnapshot, error) {
	path := BaselinePath(root, dataset)
	raw, err := os.ReadFile(path)
	if err != nil {
		return BaselineSnapshot{}, fmt.Errorf("read baseline %s: %w", path, err)
	}
	var snapshot BaselineSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return BaselineSnapshot{}, fmt.Errorf("parse baseline %s: %w", path, err)
	}
	return snapshot, nil
}

func atomicWriteJSON(path string, v any) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}
	success = true
	return nil
}

// ComparisonRow is one metric compared between a current and a baseline
// summary.
type ComparisonRow struct {
	Label    string
	Current  float64
	Baseline float64
}

func comparisonRows(current, baseline eval.EvalSummary) []ComparisonRow {
	return []ComparisonRow{
		{"Precision", current.Precision, baseline.Precision},
		{"Recall", current.Recall, baseline.Recall},
		{"Accuracy", current.Accuracy, baseline.Accuracy},
		{"AutoMapped precision", current.AutoMappedPrecision, baseline.AutoMappedPrecision},
	}
}

// ComparisonRows exposes the same four headline metrics the changelog
// evaluates, for callers (e.g. a report renderer) that want the raw deltas
// without the changelog's significance filtering.
func ComparisonRows(current, baseline eval.EvalSummary) []ComparisonRow {
	return comparisonRows(current, baseline)
}

// changelogThreshold is the noise floor for the changelog: only an absolute
// delta above it is reported.
const changelogThreshold = 0.0005

// Changelog compares current against baseline across the headline metrics
// and returns one human-readable line per metric whose delta exceeds
// changelogThreshold, tagged "improved" or "slipped".
func Changelog(current, baseline eval.EvalSummary) []string {
	var lines []string
	for _, row := range comparisonRows(current, baseline) {
		delta := row.Current - row.Baseline
		if delta < 0 {
			delta = -delta
		}
		if delta <= changelogThreshold {
			continue
		}
		signed := row.Current - row.Baseline
		if signed > 0 {
			lines = append(lines, fmt.Sprintf("%s improved by %+.3f (baseline %.3f)", row.Label, signed, row.Baseline))
		} else {
			lines = append(lines, fmt.Sprintf("%s slipped by %+.3f (baseline %.3f)", row.Label, signed, row.Baseline))
		}
	}
	return lines
}
