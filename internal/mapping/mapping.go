// Package mapping implements the mapping engine (C5): it composes the
// terminology registry, reference data store, candidate rankers, and rule
// reranker into a single pure operation, CodedElement -> MappingResult.
//
// The mapper never fails. Every input yields a MappingResult — in the
// worst case a NoMatch with a reason tag explaining why.
package mapping

import (
	"sort"
	"strings"

	"github.com/clinterm/onco-map/internal/rank"
	"github.com/clinterm/onco-map/internal/refdata"
	"github.com/clinterm/onco-map/internal/registry"
	"github.com/clinterm/onco-map/internal/rerank"
)

// CodedElement identifies a single procedure code occurrence awaiting
// mapping.
type CodedElement struct {
	OrderID string
	System  string
	Code    string
	Display string
}

// ID derives the element's stable identifier, a pure function of its other
// fields.
func (e CodedElement) ID() string {
	system := e.System
	if system == "" {
		system = "unknown-system"
	}
	code := e.Code
	if code == "" {
		code = e.Display
	}
	if code == "" {
		code = "unknown-code"
	}
	return e.OrderID + "::" + system + "::" + code
}

// MappingState is the terminal classification of a MappingResult.
type MappingState string

const (
	AutoMapped  MappingState = "auto_mapped"
	NeedsReview MappingState = "needs_review"
	NoMatch     MappingState = "no_match"
)

// MappingStrategy names which path produced a MappingResult.
type MappingStrategy string

const (
	StrategyLexical   MappingStrategy = "lexical"
	StrategyVector    MappingStrategy = "vector"
	StrategyRule      MappingStrategy = "rule"
	StrategyComposite MappingStrategy = "composite"
	StrategyManual    MappingStrategy = "manual"
	StrategyUnmapped  MappingStrategy = "unmapped"
)

// MappingThresholds gates the score -> MappingState classification.
type MappingThresholds struct {
	AutoMapMin     float64 `json:"auto_map_min"`
	NeedsReviewMin float64 `json:"needs_review_min"`
}

// DefaultThresholds returns the standard gate: auto-map at 0.95, flag for
// review at 0.60.
func DefaultThresholds() MappingThresholds {
	return MappingThresholds{AutoMapMin: 0.95, NeedsReviewMin: 0.60}
}

// SourceVersion is the pair of vocabulary snapshot versions a MappingResult
// was produced against.
type SourceVersion struct {
	Concepts string `json:"concepts"`
	Xrefs    string `json:"xrefs"`
}

// MappingResult is the mapping engine's sole output type. CUI,
// TargetConceptID, Reason, LicenseTier, and SourceKind are conceptually
// optional; an empty string marshals as an absent key via omitempty since
// none of them is ever legitimately the empty string.
type MappingResult struct {
	CodeElementID   string          `json:"code_element_id"`
	CUI             string          `json:"cui,omitempty"`
	TargetConceptID string          `json:"target_concept_id,omitempty"`
	Score           float64         `json:"score"`
	Strategy        MappingStrategy `json:"strategy"`
	State           MappingState    `json:"state"`
	Thresholds      MappingThresholds `json:"thresholds"`
	SourceVersion   SourceVersion   `json:"source_version"`
	Reason          string          `json:"reason,omitempty"`
	LicenseTier     string          `json:"license_tier,omitempty"`
	SourceKind      string          `json:"source_kind,omitempty"`
}

// Engine composes the registry, reference data, rankers, and reranker into
// the mapping operation.
type Engine struct {
	Rankers    []rank.Ranker
	Thresholds MappingThresholds
}

// NewEngine builds an Engine with the standard ranker set (Lexical then
// PseudoVector) and the given thresholds.
func NewEngine(thresholds MappingThresholds) Engine {
	return Engine{
		Rankers:    []rank.Ranker{rank.Lexical{}, rank.PseudoVector{}},
		Thresholds: thresholds,
	}
}

// Map resolves a single coded element to a MappingResult. It never returns
// an error: every input produces a result, possibly NoMatch.
func (e Engine) Map(element CodedElement) MappingResult {
	id := element.ID()
	sourceVersion := SourceVersion{Concepts: refdata.ConceptsVersion, Xrefs: refdata.XrefsVersion}

	kind, canonicalSystem, meta, found := registry.ClassifyCode(element.System, element.Code)

	switch kind {
	case registry.KindMissingSystemOrCode:
		return MappingResult{
			CodeElementID: id,
			Strategy:      StrategyUnmapped,
			Score:         0.0,
			State:         NoMatch,
			Thresholds:    e.Thresholds,
			SourceVersion: sourceVersion,
			Reason:        "missing_system_or_code",
		}
	case registry.KindUnknownSystem:
		return MappingResult{
			CodeElementID: id,
			Strategy:      StrategyUnmapped,
			Score:         0.0,
			State:         NoMatch,
			Thresholds:    e.Thresholds,
			SourceVersion: sourceVersion,
			Reason:        "unknown_code_system",
		}
	}

	var (
		strategy   MappingStrategy
		score      float64
		cui        string
		targetCode string
		reason     string
	)

	if xref, ok := refdata.LookupXref(canonicalSystem, element.Code); ok {
		strategy = StrategyRule
		score = 0.99
		cui = xref.CUI
		targetCode = xref.TargetConceptID
		reason = "umls_direct_xref"
	} else {
		candidates := e.rankAll(element)
		candidates = rerank.Adjust(candidates)
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
		if len(candidates) == 0 {
			strategy = StrategyUnmapped
			score = 0.0
			reason = "no_candidates"
		} else {
			top := candidates[0]
			strategy = StrategyComposite
			score = top.Score
			cui = top.CUI
			targetCode = normalizeTargetCode(top.TargetCode)
		}
	}

	state := classify(score, e.Thresholds)

	result := MappingResult{
		CodeElementID:   id,
		CUI:             cui,
		TargetConceptID: targetCode,
		Score:           score,
		Strategy:        strategy,
		State:           state,
		Thresholds:      e.Thresholds,
		SourceVersion:   sourceVersion,
		Reason:          reason,
	}

	if state == NoMatch {
		result.TargetConceptID = ""
		if result.Reason == "" {
			result.Reason = "score_below_threshold"
		}
	}

	if found {
		result.LicenseTier = string(meta.LicenseTier)
		result.SourceKind = string(meta.SourceKind)
	}

	return result
}

func (e Engine) rankAll(element CodedElement) []rank.Candidate {
	in := rank.Input{
		ID:      element.ID(),
		System:  element.System,
		Code:    element.Code,
		Display: element.Display,
	}
	var out []rank.Candidate
	for _, ranker := range e.Rankers {
		out = append(out, ranker.Rank(in)...)
	}
	return out
}

// normalizeTargetCode applies the target-code normalization rule: keep an
// existing "NCIT:" prefix, add it to a bare "Cxxxxx" code, and otherwise
// assume a numeric/opaque code needs both the system and concept-letter
// prefix.
func normalizeTargetCode(code string) string {
	if strings.HasPrefix(code, "NCIT:") {
		return code
	}
	if strings.HasPrefix(code, "C") {
		return "NCIT:" + code
	}
	return "NCIT:C" + code
}

func classify(score float64, th MappingThresholds) MappingState {
	if score >= th.AutoMapMin {
		return AutoMapped
	}
	if score >= th.NeedsReviewMin {
		return NeedsReview
	}
	return NoMatch
}
