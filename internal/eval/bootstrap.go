//go:build advanced_stats

package eval

import (
	"os"
	"sort"
	"strconv"

	"github.com/clinterm/onco-map/internal/rngseed"
)

const defaultBootstrapIterations = 100

// WithBootstrap augments summary with bootstrap confidence intervals over
// its per-case results. Iteration count defaults to
// defaultBootstrapIterations, overridable via
// EVAL_ADVANCED_BOOTSTRAP_ITERATIONS; the RNG seed is pinned to
// summary.TotalCases via internal/rngseed so repeated runs over the same
// dataset reproduce the same interval.
func WithBootstrap(summary EvalSummary) EvalSummary {
	iterations := bootstrapIterations()
	if len(summary.Results) == 0 || iterations <= 0 {
		return summary
	}

	rng := rngseed.New(summary.TotalCases)
	n := len(summary.Results)

	precisions := make([]float64, 0, iterations)
	recalls := make([]float64, 0, iterations)
	f1s := make([]float64, 0, iterations)

	sample := make([]EvalResult, n)
	for i := 0; i < iterations; i++ {
		for j := range sample {
			sample[j] = summary.Results[rng.IntN(n)]
		}
		precision, recall, f1 := resampleMetrics(sample)
		precisions = append(precisions, precision)
		recalls = append(recalls, recall)
		f1s = append(f1s, f1)
	}

	summary.Advanced = &AdvancedStats{
		PrecisionCI:         percentileInterval(precisions),
		RecallCI:            percentileInterval(recalls),
		F1CI:                percentileInterval(f1s),
		BootstrapIterations: iterations,
	}
	return summary
}

func resampleMetrics(sample []EvalResult) (precision, recall, f1 float64) {
	var correct, predicted, total int
	for _, r := range sample {
		total++
		if r.Mapping.TargetConceptID != "" {
			predicted++
		}
		if r.Correct {
			correct++
		}
	}
	return computeMetrics(correct, predicted, total)
}

// percentileInterval returns the [5th, 95th] percentile bounds of values,
// sorted in place.
func percentileInterval(values []float64) [2]float64 {
	sort.Float64s(values)
	lo := percentile(values, 0.05)
	hi := percentile(values, 0.95)
	return [2]float64{lo, hi}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func bootstrapIterations() int {
	raw := os.Getenv("EVAL_ADVANCED_BOOTSTRAP_ITERATIONS")
	if raw == "" {
		return defaultBootstrapIterations
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultBootstrapIterations
	}
	return n
}
