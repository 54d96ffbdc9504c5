package formatter

import (
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/clinterm/onco-map/internal/eval"
	"github.com/clinterm/onco-map/internal/fingerprint"
)

// MarkdownFormatter renders an EvalSummary as a Markdown evaluation report,
// optionally compared against a recorded baseline.
type MarkdownFormatter struct {
	// Baseline, if non-nil, adds a comparison table and changelog section.
	Baseline *eval.EvalSummary
}

// NewMarkdownFormatter creates a markdown formatter with no baseline.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Extension returns the file extension for markdown.
func (mf *MarkdownFormatter) Extension() string {
	return ".md"
}

// Format writes summary as a Markdown report.
func (mf *MarkdownFormatter) Format(w io.Writer, summary eval.EvalSummary) error {
	data := mf.buildTemplateData(summary)

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	return tmpl.Execute(w, data)
}

type bucketRow struct {
	Bucket   string
	Range    string
	Total    int
	Correct  int
	Accuracy float64
}

type reasonRow struct {
	Reason string
	Count  int
}

type comparisonRow struct {
	Label    string
	Current  float64
	Baseline float64
	Delta    string
}

type templateData struct {
	TotalCases          int
	Precision           float64
	Recall              float64
	Accuracy            float64
	F1                  float64
	AutoMappedPrecision float64
	AutoMappedCorrect   int
	AutoMappedTotal     int

	HasBaseline bool
	Comparison  []comparisonRow
	Changelog   []string

	Buckets []bucketRow
	Reasons []reasonRow

	Advanced *eval.AdvancedStats
}

func (mf *MarkdownFormatter) buildTemplateData(summary eval.EvalSummary) *templateData {
	data := &templateData{
		TotalCases:          summary.TotalCases,
		Precision:           summary.Precision,
		Recall:              summary.Recall,
		Accuracy:            summary.Accuracy,
		F1:                  summary.F1,
		AutoMappedPrecision: summary.AutoMappedPrecision,
		AutoMappedCorrect:   summary.AutoMappedCorrect,
		AutoMappedTotal:     summary.AutoMappedTotal,
		Advanced:            summary.Advanced,
	}

	for _, b := range summary.ScoreBuckets {
		rng := "n/a"
		if b.LowerBound != nil && b.UpperBound != nil {
			rng = fmt.Sprintf("%.1f–%.1f", *b.LowerBound, *b.UpperBound)
		}
		data.Buckets = append(data.Buckets, bucketRow{
			Bucket:   b.Bucket,
			Range:    rng,
			Total:    b.Total,
			Correct:  b.Correct,
			Accuracy: b.Accuracy,
		})
	}

	reasons := make([]string, 0, len(summary.ReasonCounts))
	for reason := range summary.ReasonCounts {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		data.Reasons = append(data.Reasons, reasonRow{Reason: reason, Count: summary.ReasonCounts[reason]})
	}

	if mf.Baseline != nil {
		data.HasBaseline = true
		for _, row := range fingerprint.ComparisonRows(summary, *mf.Baseline) {
			data.Comparison = append(data.Comparison, comparisonRow{
				Label:    row.Label,
				Current:  row.Current,
				Baseline: row.Baseline,
				Delta:    deltaString(row.Current, row.Baseline),
			})
		}
		data.Changelog = fingerprint.Changelog(summary, *mf.Baseline)
	}

	return data
}

// deltaString renders a signed three-decimal delta, or a flat "0.000" for
// changes too small to be meaningful.
func deltaString(current, baseline float64) string {
	delta := current - baseline
	if delta < 0 {
		delta = -delta
	}
	if delta < 0.0005 {
		return "0.000"
	}
	return fmt.Sprintf("%+.3f", current-baseline)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"hasContent": func(s []string) bool { return len(s) > 0 },
	}
}

const markdownTemplate = `# Mapping Evaluation Report

*Total cases:* {{ .TotalCases }}

*Precision:* {{ printf "%.4f" .Precision }}

*Recall:* {{ printf "%.4f" .Recall }}

*Accuracy:* {{ printf "%.4f" .Accuracy }}

*F1:* {{ printf "%.4f" .F1 }}

*AutoMapped precision:* {{ printf "%.4f" .AutoMappedPrecision }} ({{ .AutoMappedCorrect }} of {{ .AutoMappedTotal }})
{{ if .HasBaseline }}
## Baseline comparison

| Metric | Current | Baseline | Delta |
| --- | ---: | ---: | ---: |
{{- range .Comparison }}
| {{ .Label }} | {{ printf "%.3f" .Current }} | {{ printf "%.3f" .Baseline }} | {{ .Delta }} |
{{- end }}

{{ if hasContent .Changelog }}### Metric deltas

{{- range .Changelog }}
- {{ . }}
{{- end }}
{{ else }}
_No metric changes vs. baseline._
{{ end }}{{ end }}
## Calibration buckets

_Only mapping results with a target concept contribute to calibration buckets._

_Composite scores include the rule reranker's additive boost (clamped to 1.0), which can lift a candidate across the auto-map threshold._

| Bucket | Range | Predictions | Correct | Accuracy |
| --- | --- | ---: | ---: | ---: |
{{- range .Buckets }}
| {{ .Bucket }} | {{ .Range }} | {{ .Total }} | {{ .Correct }} | {{ printf "%.3f" .Accuracy }} |
{{- end }}

## Reason counts

| Reason | Count |
| --- | ---: |
{{- range .Reasons }}
| {{ .Reason }} | {{ .Count }} |
{{- end }}
{{ if .Advanced }}
## Confidence intervals (90%)

Precision: {{ printf "%.3f" (index .Advanced.PrecisionCI 0) }}–{{ printf "%.3f" (index .Advanced.PrecisionCI 1) }}

Recall: {{ printf "%.3f" (index .Advanced.RecallCI 0) }}–{{ printf "%.3f" (index .Advanced.RecallCI 1) }}

F1: {{ printf "%.3f" (index .Advanced.F1CI 0) }}–{{ printf "%.3f" (index .Advanced.F1CI 1) }}

Iterations: {{ .Advanced.BootstrapIterations }}
{{ end }}`
