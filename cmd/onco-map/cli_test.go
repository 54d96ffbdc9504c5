package main

import (
	"testing"

	"github.com/clinterm/onco-map/internal/eval"
)

// testDataRoot points at the shared fixture dataset from this package's
// test working directory (cmd/onco-map).
const testDataRoot = "../../testdata/eval"

func TestMapCommandFlags(t *testing.T) {
	for _, name := range []string{"system", "code", "display", "order-id"} {
		if mapCmd.Flags().Lookup(name) == nil {
			t.Errorf("map command missing --%s flag", name)
		}
	}
}

func TestMapCommandRunE(t *testing.T) {
	origSystem, origCode, origDisplay, origOrderID := mapSystem, mapCode, mapDisplay, mapOrderID
	defer func() { mapSystem, mapCode, mapDisplay, mapOrderID = origSystem, origCode, origDisplay, origOrderID }()

	mapSystem = "http://www.ama-assn.org/go/cpt"
	mapCode = "78815"
	mapDisplay = "PET with concurrently acquired CT for tumor imaging"
	mapOrderID = "test-0001"

	if err := mapCmd.RunE(mapCmd, nil); err != nil {
		t.Fatalf("map RunE: %v", err)
	}
}

func TestManifestListAndShowRunE(t *testing.T) {
	origRoot := manifestRoot
	defer func() { manifestRoot = origRoot }()
	manifestRoot = testDataRoot

	if err := manifestListCmd.RunE(manifestListCmd, nil); err != nil {
		t.Fatalf("manifest list RunE: %v", err)
	}
	if err := manifestShowCmd.RunE(manifestShowCmd, []string{"pet_ct_small"}); err != nil {
		t.Fatalf("manifest show RunE: %v", err)
	}
}

func TestEvalCommandRunE(t *testing.T) {
	t.Setenv("EVAL_DATA_ROOT", testDataRoot)

	origThresholds, origBaseline, origDump, origChunk := evalThresholdsPath, evalBaselinePath, evalDumpResults, evalChunkSize
	defer func() {
		evalThresholdsPath, evalBaselinePath, evalDumpResults, evalChunkSize = origThresholds, origBaseline, origDump, origChunk
	}()
	evalThresholdsPath = ""
	evalBaselinePath = ""
	evalDumpResults = false
	evalChunkSize = 0

	if err := evalCmd.RunE(evalCmd, []string{"pet_ct_small"}); err != nil {
		t.Fatalf("eval RunE: %v", err)
	}
}

func TestLoadConfigExplicitOutputFlagBeatsEnv(t *testing.T) {
	t.Setenv("ONCO_MAP_OUTPUT", "json")

	origOutput := output
	defer func() { output = origOutput }()

	if err := mapCmd.Flags().Set("output", "table"); err != nil {
		t.Fatalf("set --output: %v", err)
	}
	defer func() { mapCmd.Flags().Lookup("output").Changed = false }()

	cfg := loadConfig(mapCmd)
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table: an explicit --output table must beat a non-default env value", cfg.Output)
	}
}

func TestReconcileBaselineCreatesThenDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	original := eval.EvalSummary{TotalCases: 5, Correct: 5, Precision: 1.0}

	baseline, mismatch, err := reconcileBaseline("pet_ct_small", dir, original)
	if err != nil {
		t.Fatalf("reconcileBaseline (create): %v", err)
	}
	if baseline != nil || mismatch != nil {
		t.Fatalf("expected no baseline/mismatch on first (creating) call, got baseline=%v mismatch=%v", baseline, mismatch)
	}

	same, mismatch, err := reconcileBaseline("pet_ct_small", dir, original)
	if err != nil {
		t.Fatalf("reconcileBaseline (compare, matching): %v", err)
	}
	if mismatch != nil {
		t.Errorf("expected no mismatch comparing identical summaries, got %v", mismatch)
	}
	if same == nil || same.TotalCases != original.TotalCases {
		t.Errorf("expected loaded baseline to match original, got %+v", same)
	}

	changed := eval.EvalSummary{TotalCases: 5, Correct: 4, Precision: 0.8}
	_, mismatch, err = reconcileBaseline("pet_ct_small", dir, changed)
	if err != nil {
		t.Fatalf("reconcileBaseline (compare, mismatching): %v", err)
	}
	if mismatch == nil {
		t.Fatal("expected a FingerprintMismatchError for a changed summary")
	}
	if mismatch.Dataset != "pet_ct_small" || mismatch.Baseline == mismatch.Current {
		t.Errorf("unexpected mismatch error: %+v", mismatch)
	}
}
