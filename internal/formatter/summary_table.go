package formatter

import (
	"fmt"
	"io"
	"sort"

	"github.com/clinterm/onco-map/internal/eval"
)

// RenderSummaryTable writes a headline-metrics table for summary: one row
// per coding system, showing predicted/correct counts and precision/recall.
func RenderSummaryTable(w io.Writer, summary eval.EvalSummary) error {
	tbl := NewTable(w, "SYSTEM", "CASES", "PREDICTED", "CORRECT", "PRECISION", "RECALL")
	tbl.SetMaxWidth(0, 40)

	for _, system := range sortedKeys(summary.BySystem) {
		m := summary.BySystem[system]
		tbl.AddRow(
			system,
			fmt.Sprintf("%d", m.TotalCases),
			fmt.Sprintf("%d", m.PredictedCases),
			fmt.Sprintf("%d", m.Correct),
			fmt.Sprintf("%.3f", m.Precision),
			fmt.Sprintf("%.3f", m.Recall),
		)
	}

	return tbl.Render()
}

// RenderBucketTable writes a calibration-bucket table for summary.
func RenderBucketTable(w io.Writer, summary eval.EvalSummary) error {
	tbl := NewTable(w, "BUCKET", "TOTAL", "CORRECT", "ACCURACY")
	for _, b := range summary.ScoreBuckets {
		tbl.AddRow(
			b.Bucket,
			fmt.Sprintf("%d", b.Total),
			fmt.Sprintf("%d", b.Correct),
			fmt.Sprintf("%.3f", b.Accuracy),
		)
	}
	return tbl.Render()
}

func sortedKeys(m map[string]*eval.StratifiedMetrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
