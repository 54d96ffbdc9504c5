package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/clinterm/onco-map/internal/eval"
)

func sampleSummaryForMarkdown(precision float64) eval.EvalSummary {
	lower, upper := 0.9, 1.0
	return eval.EvalSummary{
		TotalCases:          10,
		Precision:           precision,
		Recall:              0.80,
		F1:                  0.84,
		Accuracy:            0.82,
		AutoMappedPrecision: 0.95,
		AutoMappedCorrect:   19,
		AutoMappedTotal:     20,
		ScoreBuckets: []eval.ScoreBucket{
			{Bucket: "0.9-1.0", LowerBound: &lower, UpperBound: &upper, Total: 10, Correct: 9, Accuracy: 0.9},
		},
		ReasonCounts: map[string]int{"exact_code_match": 6, "none": 4},
	}
}

func TestNewMarkdownFormatter(t *testing.T) {
	mf := NewMarkdownFormatter()
	if mf == nil {
		t.Fatal("NewMarkdownFormatter returned nil")
	}
	if mf.Baseline != nil {
		t.Error("Baseline should be nil by default")
	}
}

func TestMarkdownFormatter_Extension(t *testing.T) {
	mf := NewMarkdownFormatter()
	if ext := mf.Extension(); ext != ".md" {
		t.Errorf("Extension() = %q, want .md", ext)
	}
}

func TestMarkdownFormatter_Format_NoBaseline(t *testing.T) {
	mf := NewMarkdownFormatter()
	summary := sampleSummaryForMarkdown(0.91)

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "# Mapping Evaluation Report") {
		t.Error("expected report heading")
	}
	if !strings.Contains(output, "*Total cases:* 10") {
		t.Error("expected total cases line")
	}
	if strings.Contains(output, "Baseline comparison") {
		t.Error("should not render baseline section without a baseline")
	}
	if !strings.Contains(output, "## Calibration buckets") {
		t.Error("expected calibration buckets section")
	}
	if !strings.Contains(output, "0.9-1.0") {
		t.Errorf("expected bucket row, got:\n%s", output)
	}
	if !strings.Contains(output, "## Reason counts") {
		t.Error("expected reason counts section")
	}
	if !strings.Contains(output, "exact_code_match") {
		t.Error("expected a reason row")
	}
}

func TestMarkdownFormatter_Format_WithBaseline(t *testing.T) {
	baseline := sampleSummaryForMarkdown(0.80)
	mf := &MarkdownFormatter{Baseline: &baseline}
	summary := sampleSummaryForMarkdown(0.91)

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "## Baseline comparison") {
		t.Error("expected baseline comparison section")
	}
	if !strings.Contains(output, "### Metric deltas") {
		t.Errorf("expected metric deltas, got:\n%s", output)
	}
	if !strings.Contains(output, "Precision improved by +0.110") {
		t.Errorf("expected improved precision line, got:\n%s", output)
	}
}

func TestMarkdownFormatter_Format_BaselineNoChanges(t *testing.T) {
	baseline := sampleSummaryForMarkdown(0.91)
	mf := &MarkdownFormatter{Baseline: &baseline}
	summary := sampleSummaryForMarkdown(0.91)

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "_No metric changes vs. baseline._") {
		t.Errorf("expected no-changes notice, got:\n%s", output)
	}
}

func TestMarkdownFormatter_Format_AdvancedStats(t *testing.T) {
	mf := NewMarkdownFormatter()
	summary := sampleSummaryForMarkdown(0.91)
	summary.Advanced = &eval.AdvancedStats{
		PrecisionCI:         [2]float64{0.85, 0.95},
		RecallCI:            [2]float64{0.75, 0.85},
		F1CI:                [2]float64{0.80, 0.88},
		BootstrapIterations: 100,
	}

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "## Confidence intervals (90%)") {
		t.Error("expected confidence interval section")
	}
	if !strings.Contains(output, "Iterations: 100") {
		t.Error("expected iteration count")
	}
}

func TestMarkdownFormatter_Format_NoAdvancedStats(t *testing.T) {
	mf := NewMarkdownFormatter()
	summary := sampleSummaryForMarkdown(0.91)

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "Confidence intervals") {
		t.Error("should not render confidence intervals section without Advanced stats")
	}
}

func TestMarkdownFormatter_ReasonsAreSortedForDeterminism(t *testing.T) {
	mf := NewMarkdownFormatter()
	summary := sampleSummaryForMarkdown(0.91)
	summary.ReasonCounts = map[string]int{"zzz_reason": 1, "aaa_reason": 2, "mid_reason": 3}

	var buf bytes.Buffer
	if err := mf.Format(&buf, summary); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := buf.String()

	aIdx := strings.Index(output, "aaa_reason")
	mIdx := strings.Index(output, "mid_reason")
	zIdx := strings.Index(output, "zzz_reason")
	if !(aIdx < mIdx && mIdx < zIdx) {
		t.Errorf("expected reasons in sorted order, got:\n%s", output)
	}
}
