package dataset

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// CaseReader is a lazy, line-delimited iterator over EvalCase rows. It
// reads one line at a time from a buffered source, skips blank lines, and
// is finite and non-restartable: once a source is exhausted (or errors),
// it yields no further cases.
type CaseReader struct {
	scanner *bufio.Scanner
	line    int
	done    bool
}

// NewCaseReader wraps r for line-by-line case iteration.
func NewCaseReader(r io.Reader) *CaseReader {
	return &CaseReader{scanner: bufio.NewScanner(r)}
}

// Next returns the next case. ok is false once the source is exhausted; a
// non-nil err carries the 1-based line number of a malformed row and halts
// further iteration — the caller must stop calling Next after an error.
func (r *CaseReader) Next() (c EvalCase, ok bool, err error) {
	if r.done {
		return EvalCase{}, false, nil
	}

	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}
		if decodeErr := json.Unmarshal([]byte(text), &c); decodeErr != nil {
			r.done = true
			return EvalCase{}, false, &ParseError{Line: r.line, Err: decodeErr}
		}
		return c, true, nil
	}

	r.done = true
	if scanErr := r.scanner.Err(); scanErr != nil {
		return EvalCase{}, false, &IOError{Err: scanErr}
	}
	return EvalCase{}, false, nil
}

// Drain reads up to n cases (n <= 0 means unbounded) and stops early on the
// first error or end of input.
func (r *CaseReader) Drain(n int) ([]EvalCase, error) {
	var out []EvalCase
	for n <= 0 || len(out) < n {
		c, ok, err := r.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out, nil
}
