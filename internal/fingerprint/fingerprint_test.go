package fingerprint

import (
	"strings"
	"testing"

	"github.com/clinterm/onco-map/internal/eval"
)

func sampleSummary(precision float64) eval.EvalSummary {
	return eval.EvalSummary{
		TotalCases:          10,
		Correct:             8,
		Precision:           precision,
		Recall:              0.8,
		Accuracy:            0.8,
		AutoMappedPrecision: 0.9,
		StateCounts:         map[string]int{"auto_mapped": 8, "no_match": 2},
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	summary := sampleSummary(0.9)

	first, err := Digest(summary)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := Digest(summary)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second {
		t.Errorf("digest differs across calls on identical input: %s vs %s", first, second)
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a, _ := Digest(sampleSummary(0.9))
	b, _ := Digest(sampleSummary(0.5))
	if a == b {
		t.Error("expected digests to differ for different summaries")
	}
}

func TestSaveAndLoadBaselineRoundTrips(t *testing.T) {
	dir := t.TempDir()
	snapshot := BaselineSnapshot{
		Dataset:    "pet_ct_small",
		RecordedAt: "2026-07-29T00:00:00Z",
		Summary:    sampleSummary(0.9),
	}

	path, err := SaveBaseline(dir, snapshot)
	if err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}
	if !strings.HasSuffix(path, "pet_ct_small.baseline.json") {
		t.Errorf("unexpected baseline path: %s", path)
	}

	loaded, err := LoadBaseline(dir, "pet_ct_small")
	if err != nil {
		t.Fatalf("LoadBaseline: %v", err)
	}
	if loaded.Dataset != snapshot.Dataset || loaded.Summary.Precision != snapshot.Summary.Precision {
		t.Errorf("loaded snapshot mismatch: %+v", loaded)
	}
}

func TestChangelogReportsImprovedAndSlipped(t *testing.T) {
	current := sampleSummary(0.95)
	baseline := sampleSummary(0.80)

	lines := Changelog(current, baseline)
	if len(lines) == 0 {
		t.Fatal("expected at least one changelog line")
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line, "Precision improved") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a precision-improved line, got %v", lines)
	}
}

func TestChangelogSuppressesNoiseBelowThreshold(t *testing.T) {
	current := sampleSummary(0.9001)
	baseline := sampleSummary(0.9000)

	lines := Changelog(current, baseline)
	for _, line := range lines {
		if strings.Contains(line, "Precision") {
			t.Errorf("expected precision delta below threshold to be suppressed, got %v", lines)
		}
	}
}

func TestFingerprintMismatchErrorMessage(t *testing.T) {
	err := &FingerprintMismatchError{Dataset: "pet_ct_small", Baseline: "aaaa", Current: "bbbb"}
	msg := err.Error()
	if !strings.Contains(msg, "pet_ct_small") || !strings.Contains(msg, "aaaa") || !strings.Contains(msg, "bbbb") {
		t.Errorf("unexpected error message: %s", msg)
	}
}
