// Package rank implements the pluggable candidate rankers: pure functions
// that map a coded element to an ordered list of scored target-concept
// candidates. Rankers never perform I/O and never see the reference data
// store directly — they work purely off the input element.
package rank

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// Input is the minimal view of a coded element a ranker needs. It mirrors
// the fields of mapping.CodedElement without importing that package, so
// that mapping (which composes rankers) is the only side with a dependency.
type Input struct {
	ID      string
	System  string
	Code    string
	Display string
}

// Candidate is one scored target-concept guess produced by a ranker.
type Candidate struct {
	TargetSystem string
	TargetCode   string
	CUI          string
	Score        float64
}

// Ranker scores an Input against the target vocabulary.
type Ranker interface {
	Rank(in Input) []Candidate
}

// Lexical applies case-insensitive substring heuristics against the
// element's display string.
type Lexical struct{}

// Rank implements Ranker.
func (Lexical) Rank(in Input) []Candidate {
	display := strings.ToLower(in.Display)
	switch {
	case strings.Contains(display, "pet") || strings.Contains(display, "ct"):
		return []Candidate{{TargetSystem: "NCIT", TargetCode: "C19951", Score: 0.92}}
	case strings.Contains(display, "loinc"):
		return []Candidate{{TargetSystem: "LOINC", TargetCode: in.Code, Score: 0.60}}
	default:
		return []Candidate{{TargetSystem: in.System, TargetCode: in.Code, Score: 0.40}}
	}
}

// PseudoVector deterministically hashes (id, system, code) into a
// reproducible candidate. The hash is pinned to FNV-1a 64-bit: the
// standard library's own named, documented, cross-platform-stable hash,
// chosen specifically because Go's built-in map/string hashing is salted
// per-process and must never be used here.
type PseudoVector struct{}

// Rank implements Ranker.
func (PseudoVector) Rank(in Input) []Candidate {
	h := fnv.New64a()
	h.Write([]byte(in.ID))
	h.Write([]byte{0})
	h.Write([]byte(in.System))
	h.Write([]byte{0})
	h.Write([]byte(in.Code))
	sum := h.Sum64()

	score := 0.5 + float64(sum%100)/200.0
	targetCode := "C" + strconv.FormatUint(sum%100000, 10)
	return []Candidate{{TargetSystem: "NCIT", TargetCode: targetCode, Score: score}}
}
