package formatter

import (
	"encoding/json"
	"io"

	"github.com/clinterm/onco-map/internal/eval"
)

// JSONLFormatter writes evaluation results one JSON object per line.
type JSONLFormatter struct {
	// Pretty enables indented JSON (not recommended for JSONL).
	Pretty bool
}

// NewJSONLFormatter creates a new JSONL formatter.
func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{Pretty: false}
}

// Format writes result as a single JSON line.
func (jf *JSONLFormatter) Format(w io.Writer, result *eval.EvalResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if jf.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(result)
}

// Extension returns the file extension for JSONL.
func (jf *JSONLFormatter) Extension() string {
	return ".jsonl"
}

// FormatAll writes one line per result in summary.Results, in order.
func (jf *JSONLFormatter) FormatAll(w io.Writer, summary eval.EvalSummary) error {
	for i := range summary.Results {
		if err := jf.Format(w, &summary.Results[i]); err != nil {
			return err
		}
	}
	return nil
}
