// Package gate implements the threshold gate (C10): checking an evaluation
// summary against a declarative minimum-value configuration and failing
// with a descriptive error naming the offending metric.
package gate

import (
	"fmt"

	"github.com/clinterm/onco-map/internal/eval"
)

// Thresholds is a metric-name-to-minimum-value mapping. Recognized keys are
// min_precision, min_recall, min_f1, min_accuracy, min_coverage, and
// min_auto_precision; any other key is ignored silently.
type Thresholds map[string]float64

// ViolationError reports a single metric that fell below its configured
// minimum.
type ViolationError struct {
	Metric  string
	Actual  float64
	Minimum float64
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("gate: %s = %.4f is below minimum %.4f", e.Metric, e.Actual, e.Minimum)
}

// metricValues extracts the recognized metric values from summary.
func metricValues(summary eval.EvalSummary) map[string]float64 {
	return map[string]float64{
		"min_precision":      summary.Precision,
		"min_recall":         summary.Recall,
		"min_f1":             summary.F1,
		"min_accuracy":       summary.Accuracy,
		"min_coverage":       summary.Coverage,
		"min_auto_precision": summary.AutoMappedPrecision,
	}
}

// Check evaluates thresholds against summary and returns every violation,
// in the fixed metric order listed in Thresholds' doc comment, regardless
// of the order thresholds was populated in. An empty result means the gate
// passed.
func Check(summary eval.EvalSummary, thresholds Thresholds) []*ViolationError {
	values := metricValues(summary)

	var violations []*ViolationError
	for _, metric := range []string{
		"min_precision", "min_recall", "min_f1",
		"min_accuracy", "min_coverage", "min_auto_precision",
	} {
		minimum, configured := thresholds[metric]
		if !configured {
			continue
		}
		actual, known := values[metric]
		if !known {
			continue
		}
		if actual < minimum {
			violations = append(violations, &ViolationError{Metric: metric, Actual: actual, Minimum: minimum})
		}
	}
	return violations
}

// Pass reports whether summary satisfies every configured threshold.
func Pass(summary eval.EvalSummary, thresholds Thresholds) bool {
	return len(Check(summary, thresholds)) == 0
}
