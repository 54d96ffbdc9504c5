// Package eval implements the evaluator (C8): it runs a gold-standard
// dataset through a caller-supplied mapper function and accumulates a
// stratified, fingerprintable EvalSummary.
package eval

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/clinterm/onco-map/internal/dataset"
	"github.com/clinterm/onco-map/internal/mapping"
	"github.com/clinterm/onco-map/internal/worker"
)

// EvalResult pairs one gold case with the mapping it produced.
type EvalResult struct {
	Case    dataset.EvalCase     `json:"case"`
	Mapping mapping.MappingResult `json:"mapping"`
	Correct bool                  `json:"correct"`
}

// StratifiedMetrics accumulates and derives precision/recall/f1 for one
// stratum (a system or a license tier).
type StratifiedMetrics struct {
	TotalCases     int     `json:"total_cases"`
	PredictedCases int     `json:"predicted_cases"`
	Correct        int     `json:"correct"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

func (m *StratifiedMetrics) record(predicted, correct bool) {
	m.TotalCases++
	if predicted {
		m.PredictedCases++
	}
	if correct {
		m.Correct++
	}
}

func (m *StratifiedMetrics) finalize() {
	m.Precision, m.Recall, m.F1 = computeMetrics(m.Correct, m.PredictedCases, m.TotalCases)
}

// SystemConfusion tallies per-system state counts and derived coverage and
// accuracy.
type SystemConfusion struct {
	TotalCases     int     `json:"total_cases"`
	PredictedCases int     `json:"predicted_cases"`
	Correct        int     `json:"correct"`
	AutoMapped     int     `json:"auto_mapped"`
	NeedsReview    int     `json:"needs_review"`
	NoMatch        int     `json:"no_match"`
	Coverage       float64 `json:"coverage"`
	Accuracy       float64 `json:"accuracy"`
}

func (c *SystemConfusion) finalize() {
	if c.TotalCases > 0 {
		c.Coverage = float64(c.PredictedCases) / float64(c.TotalCases)
		c.Accuracy = float64(c.Correct) / float64(c.TotalCases)
	} else {
		c.Coverage = 0
		c.Accuracy = 0
	}
}

// ScoreBucket is one calibration bin: predicted cases whose score fell in
// [lower, upper), or the "nan" bin for non-finite scores.
type ScoreBucket struct {
	Bucket     string   `json:"bucket"`
	LowerBound *float64 `json:"lower_bound"`
	UpperBound *float64 `json:"upper_bound"`
	Total      int      `json:"total"`
	Correct    int      `json:"correct"`
	Accuracy   float64  `json:"accuracy"`
}

// AdvancedStats holds bootstrap confidence intervals, populated only when
// the advanced_stats build tag is active.
type AdvancedStats struct {
	PrecisionCI         [2]float64 `json:"precision_ci"`
	RecallCI            [2]float64 `json:"recall_ci"`
	F1CI                [2]float64 `json:"f1_ci"`
	BootstrapIterations int        `json:"bootstrap_iterations"`
}

// EvalSummary is the evaluator's sole output type: a deterministic,
// stratified accounting of how a mapper performed over a set of cases.
type EvalSummary struct {
	TotalCases          int                        `json:"total_cases"`
	PredictedCases       int                        `json:"predicted_cases"`
	Correct             int                        `json:"correct"`
	Incorrect           int                        `json:"incorrect"`
	Precision           float64                    `json:"precision"`
	Recall              float64                    `json:"recall"`
	F1                  float64                    `json:"f1"`
	Accuracy            float64                    `json:"accuracy"`
	Coverage            float64                    `json:"coverage"`
	Top1Accuracy        float64                    `json:"top1_accuracy"`
	Top3Accuracy        float64                    `json:"top3_accuracy"`
	AutoMappedTotal     int                        `json:"auto_mapped_total"`
	AutoMappedCorrect   int                        `json:"auto_mapped_correct"`
	AutoMappedPrecision float64                    `json:"auto_mapped_precision"`
	StateCounts         map[string]int             `json:"state_counts"`
	BySystem            map[string]*StratifiedMetrics `json:"by_system"`
	ByLicenseTier       map[string]*StratifiedMetrics `json:"by_license_tier"`
	ScoreBuckets        []ScoreBucket              `json:"score_buckets"`
	ReasonCounts        map[string]int             `json:"reason_counts"`
	SystemConfusion     map[string]*SystemConfusion `json:"system_confusion"`
	Advanced            *AdvancedStats             `json:"advanced"`
	Results             []EvalResult               `json:"results"`
}

func newSummary() EvalSummary {
	return EvalSummary{
		StateCounts:     map[string]int{},
		BySystem:        map[string]*StratifiedMetrics{},
		ByLicenseTier:   map[string]*StratifiedMetrics{},
		ScoreBuckets:    []ScoreBucket{},
		ReasonCounts:    map[string]int{},
		SystemConfusion: map[string]*SystemConfusion{},
		Results:         []EvalResult{},
	}
}

// Mapper maps a single coded element. run/run_streaming adapt the
// evaluator's per-case loop onto this, so callers may supply any
// mapping.Engine-compatible function. runFrom itself spreads the calls over
// a worker pool when EVAL_PARALLEL_MAP is set.
type Mapper func(mapping.CodedElement) mapping.MappingResult

// Run executes every case through mapperFn and returns the accumulated
// summary. Synthetic order ids follow "eval-XXXX" with a 4-digit
// zero-padded index.
func Run(cases []dataset.EvalCase, mapperFn Mapper) EvalSummary {
	return runFrom(cases, mapperFn, 0)
}

// runFrom is Run with an explicit starting index, so a caller folding a
// dataset through multiple batches (RunStreaming) can keep synthetic order
// ids a pure function of each case's position in the whole dataset rather
// than its position within its own batch. CodedElement.ID() embeds OrderID,
// and the composite ranker's PseudoVector hashes that id directly, so a
// batch-local index would make a case's ranked score (and therefore its
// MappingState and the summary's fingerprint) depend on chunk boundaries.
func runFrom(cases []dataset.EvalCase, mapperFn Mapper, startIndex int) EvalSummary {
	if len(cases) == 0 {
		return newSummary()
	}

	elements := make([]mapping.CodedElement, len(cases))
	for i, c := range cases {
		elements[i] = mapping.CodedElement{
			OrderID: syntheticOrderID(startIndex + i),
			System:  c.System,
			Code:    c.Code,
			Display: c.Display,
		}
	}

	mappings := make([]mapping.MappingResult, len(elements))
	if parallelMapEnabled() {
		pool := worker.NewPool[mapping.CodedElement, mapping.MappingResult](0)
		for _, r := range pool.Process(elements, func(el mapping.CodedElement) (mapping.MappingResult, error) {
			return mapperFn(el), nil
		}) {
			mappings[r.Index] = r.Value
		}
	} else {
		for i, el := range elements {
			mappings[i] = mapperFn(el)
		}
	}

	return assemble(cases, mappings)
}

// parallelMapEnabled reports whether per-case mapping within a batch should
// run concurrently. Off by default: mapperFn is pure and cheap, so serial
// execution is the safe default and parallelism is an explicit opt-in.
func parallelMapEnabled() bool {
	v := os.Getenv("EVAL_PARALLEL_MAP")
	return v == "1" || v == "true"
}

// RunStreaming drains reader in chunks of chunkSize, running each chunk
// through the same per-case logic as Run (with order ids offset by the
// dataset-wide position already consumed) and folding the partial summary
// into the aggregate. Memory footprint is O(chunkSize) plus the tally
// maps; the per-case Results slice still grows O(total cases) unless the
// caller discards it after fingerprinting.
func RunStreaming(reader *dataset.CaseReader, mapperFn Mapper, chunkSize int) (EvalSummary, error) {
	if chunkSize <= 0 {
		chunkSize = 1
	}

	aggregate := newSummary()
	index := 0
	for {
		chunk, err := reader.Drain(chunkSize)
		if err != nil {
			return EvalSummary{}, err
		}
		if len(chunk) == 0 {
			break
		}
		partial := runFrom(chunk, mapperFn, index)
		index += len(chunk)
		Aggregate(&aggregate, partial)
	}
	return aggregate, nil
}

func syntheticOrderID(idx int) string {
	return fmt.Sprintf("eval-%04d", idx)
}

func assemble(cases []dataset.EvalCase, mappings []mapping.MappingResult) EvalSummary {
	summary := newSummary()
	summary.TotalCases = len(cases)

	buckets := map[string]*bucketTally{}

	for i, c := range cases {
		m := mappings[i]
		predicted := m.TargetConceptID != ""
		if predicted {
			summary.PredictedCases++
		}
		correct := predicted && m.TargetConceptID == c.ExpectedNCITID
		if correct {
			summary.Correct++
		}

		summary.StateCounts[string(m.State)]++
		if m.State == mapping.AutoMapped && predicted {
			summary.AutoMappedTotal++
			if correct {
				summary.AutoMappedCorrect++
			}
		}

		recordStratified(summary.BySystem, c.System, predicted, correct)
		recordConfusion(summary.SystemConfusion, c.System, m.State, predicted, correct)

		licenseTier := m.LicenseTier
		if licenseTier == "" {
			licenseTier = "unknown"
		}
		recordStratified(summary.ByLicenseTier, licenseTier, predicted, correct)

		if predicted {
			key := bucketKey(m.Score)
			tally, ok := buckets[key]
			if !ok {
				tally = &bucketTally{}
				buckets[key] = tally
			}
			tally.total++
			if correct {
				tally.correct++
			}
		}

		reason := m.Reason
		if reason == "" {
			reason = "none"
		}
		summary.ReasonCounts[reason]++

		summary.Results = append(summary.Results, EvalResult{Case: c, Mapping: m, Correct: correct})
	}

	summary.Incorrect = summary.TotalCases - summary.Correct
	summary.Precision, summary.Recall, summary.F1 = computeMetrics(summary.Correct, summary.PredictedCases, summary.TotalCases)
	summary.Accuracy = ratio(summary.Correct, summary.TotalCases)
	summary.Coverage = ratio(summary.PredictedCases, summary.TotalCases)
	summary.Top1Accuracy = summary.Precision
	summary.Top3Accuracy = summary.Precision // placeholder: true top-k needs ranked candidates the mapper doesn't expose
	summary.AutoMappedPrecision = ratio(summary.AutoMappedCorrect, summary.AutoMappedTotal)

	finalizeStratified(summary.BySystem)
	finalizeStratified(summary.ByLicenseTier)
	finalizeConfusion(summary.SystemConfusion)
	summary.ScoreBuckets = finalizeBuckets(buckets)

	return summary
}

type bucketTally struct {
	total   int
	correct int
}

// bucketKey names the calibration bin a score falls in: "nan" for
// non-finite scores, otherwise "<idx>" for one of ten [0.0,1.0) bins. The
// numeric-range label is computed lazily in finalizeBuckets so that the
// keying step stays cheap during accumulation.
func bucketKey(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return "nan"
	}
	normalized := score
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 0.999 {
		normalized = 0.999
	}
	idx := int(normalized * 10)
	return bucketIndexLabel(idx)
}

func bucketIndexLabel(idx int) string {
	return strconv.Itoa(idx)
}

func finalizeBuckets(buckets map[string]*bucketTally) []ScoreBucket {
	out := make([]ScoreBucket, 0, len(buckets))
	// Numeric bins first in index order, then "nan" last, matching the
	// deterministic iteration contract (index order, then the nan bin).
	for idx := 0; idx < 10; idx++ {
		key := bucketIndexLabel(idx)
		tally, ok := buckets[key]
		if !ok {
			continue
		}
		lower := float64(idx) / 10.0
		upper := float64(idx+1) / 10.0
		if upper > 1.0 {
			upper = 1.0
		}
		out = append(out, ScoreBucket{
			Bucket:     formatBucketLabel(lower, upper),
			LowerBound: &lower,
			UpperBound: &upper,
			Total:      tally.total,
			Correct:    tally.correct,
			Accuracy:   ratio(tally.correct, tally.total),
		})
	}
	if tally, ok := buckets["nan"]; ok {
		out = append(out, ScoreBucket{
			Bucket:   "nan",
			Total:    tally.total,
			Correct:  tally.correct,
			Accuracy: ratio(tally.correct, tally.total),
		})
	}
	return out
}

// formatBucketLabel renders a bucket range with an ASCII hyphen for wire
// stability, rather than the non-ASCII dash some implementations use.
func formatBucketLabel(lower, upper float64) string {
	return fmt.Sprintf("%.1f-%.1f", lower, upper)
}

func recordStratified(m map[string]*StratifiedMetrics, key string, predicted, correct bool) {
	entry, ok := m[key]
	if !ok {
		entry = &StratifiedMetrics{}
		m[key] = entry
	}
	entry.record(predicted, correct)
}

func finalizeStratified(m map[string]*StratifiedMetrics) {
	for _, entry := range m {
		entry.finalize()
	}
}

func recordConfusion(m map[string]*SystemConfusion, system string, state mapping.MappingState, predicted, correct bool) {
	entry, ok := m[system]
	if !ok {
		entry = &SystemConfusion{}
		m[system] = entry
	}
	entry.TotalCases++
	if predicted {
		entry.PredictedCases++
	}
	if correct {
		entry.Correct++
	}
	switch state {
	case mapping.AutoMapped:
		entry.AutoMapped++
	case mapping.NeedsReview:
		entry.NeedsReview++
	case mapping.NoMatch:
		entry.NoMatch++
	}
}

func finalizeConfusion(m map[string]*SystemConfusion) {
	for _, entry := range m {
		entry.finalize()
	}
}

func computeMetrics(correct, predicted, total int) (precision, recall, f1 float64) {
	if predicted > 0 {
		precision = float64(correct) / float64(predicted)
	}
	if total > 0 {
		recall = float64(correct) / float64(total)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

func ratio(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator)
}

// Aggregate folds chunk into base in place, recomputing every derived
// metric. The fold is associative and commutative over the scalar
// accumulators, so the result is invariant to how the input was chunked.
func Aggregate(base *EvalSummary, chunk EvalSummary) {
	base.TotalCases += chunk.TotalCases
	base.PredictedCases += chunk.PredictedCases
	base.Correct += chunk.Correct
	base.Incorrect += chunk.Incorrect
	base.AutoMappedTotal += chunk.AutoMappedTotal
	base.AutoMappedCorrect += chunk.AutoMappedCorrect

	for state, count := range chunk.StateCounts {
		base.StateCounts[state] += count
	}
	for reason, count := range chunk.ReasonCounts {
		base.ReasonCounts[reason] += count
	}
	mergeStratified(base.BySystem, chunk.BySystem)
	mergeStratified(base.ByLicenseTier, chunk.ByLicenseTier)

	bucketMap := map[string]*ScoreBucket{}
	for i := range base.ScoreBuckets {
		b := base.ScoreBuckets[i]
		bucketMap[b.Bucket] = &b
	}
	for _, cb := range chunk.ScoreBuckets {
		entry, ok := bucketMap[cb.Bucket]
		if !ok {
			entry = &ScoreBucket{Bucket: cb.Bucket, LowerBound: cb.LowerBound, UpperBound: cb.UpperBound}
			bucketMap[cb.Bucket] = entry
		}
		entry.Total += cb.Total
		entry.Correct += cb.Correct
	}
	// Rebuild in canonical order (numeric bins by index, then "nan") so the
	// aggregate is invariant to chunk boundary placement.
	merged := make([]ScoreBucket, 0, len(bucketMap))
	for idx := 0; idx < 10; idx++ {
		lower := float64(idx) / 10.0
		upper := float64(idx+1) / 10.0
		if upper > 1.0 {
			upper = 1.0
		}
		label := formatBucketLabel(lower, upper)
		entry, ok := bucketMap[label]
		if !ok {
			continue
		}
		entry.Accuracy = ratio(entry.Correct, entry.Total)
		merged = append(merged, *entry)
	}
	if entry, ok := bucketMap["nan"]; ok {
		entry.Accuracy = ratio(entry.Correct, entry.Total)
		merged = append(merged, *entry)
	}
	base.ScoreBuckets = merged

	for system, cc := range chunk.SystemConfusion {
		entry, ok := base.SystemConfusion[system]
		if !ok {
			entry = &SystemConfusion{}
			base.SystemConfusion[system] = entry
		}
		entry.TotalCases += cc.TotalCases
		entry.PredictedCases += cc.PredictedCases
		entry.Correct += cc.Correct
		entry.AutoMapped += cc.AutoMapped
		entry.NeedsReview += cc.NeedsReview
		entry.NoMatch += cc.NoMatch
	}
	finalizeConfusion(base.SystemConfusion)

	base.Results = append(base.Results, chunk.Results...)

	base.Precision, base.Recall, base.F1 = computeMetrics(base.Correct, base.PredictedCases, base.TotalCases)
	base.Accuracy = ratio(base.Correct, base.TotalCases)
	base.Coverage = ratio(base.PredictedCases, base.TotalCases)
	base.Top1Accuracy = base.Precision
	base.Top3Accuracy = base.Precision
	base.AutoMappedPrecision = ratio(base.AutoMappedCorrect, base.AutoMappedTotal)

	finalizeStratified(base.BySystem)
	finalizeStratified(base.ByLicenseTier)
	base.Advanced = nil
}

func mergeStratified(base, chunk map[string]*StratifiedMetrics) {
	for key, m := range chunk {
		entry, ok := base[key]
		if !ok {
			entry = &StratifiedMetrics{}
			base[key] = entry
		}
		entry.TotalCases += m.TotalCases
		entry.PredictedCases += m.PredictedCases
		entry.Correct += m.Correct
	}
}
