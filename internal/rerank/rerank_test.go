package rerank

import (
	"testing"

	"github.com/clinterm/onco-map/internal/rank"
)

func TestAdjustBoostsAndClamps(t *testing.T) {
	in := []rank.Candidate{
		{TargetSystem: "NCIT", Score: 0.97},
		{TargetSystem: "SNOMED CT", Score: 0.90},
		{TargetSystem: "CPT", Score: 0.50},
		{TargetSystem: "LOINC", Score: 0.60},
	}

	out := Adjust(in)

	if out[0].Score != 1.0 {
		t.Errorf("NCIT candidate should clamp to 1.0, got %v", out[0].Score)
	}
	if out[1].Score != 0.92 {
		t.Errorf("SNOMED candidate = %v, want 0.92", out[1].Score)
	}
	if out[2].Score != 0.52 {
		t.Errorf("CPT candidate = %v, want 0.52", out[2].Score)
	}
	if out[3].Score != 0.60 {
		t.Errorf("LOINC candidate should be unadjusted, got %v", out[3].Score)
	}
}

func TestAdjustMonotonic(t *testing.T) {
	in := []rank.Candidate{{TargetSystem: "NCIT", Score: 0.5}}
	out := Adjust(in)
	if out[0].Score < in[0].Score {
		t.Errorf("rerank must never lower an NCIT candidate's score: %v < %v", out[0].Score, in[0].Score)
	}
}

func TestAdjustDoesNotMutateInput(t *testing.T) {
	in := []rank.Candidate{{TargetSystem: "NCIT", Score: 0.5}}
	_ = Adjust(in)
	if in[0].Score != 0.5 {
		t.Error("Adjust must not mutate its input slice")
	}
}
