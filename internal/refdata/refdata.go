// Package refdata loads the embedded target-vocabulary reference tables —
// the concept list and the cross-reference table — once, and exposes them
// as an immutable snapshot for the mapping engine.
package refdata

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/clinterm/onco-map/embedded"
	"github.com/clinterm/onco-map/internal/registry"
)

// ConceptsVersion and XrefsVersion are the vocabulary snapshot versions
// reported as a MappingResult's source_version. They are bumped whenever
// embedded/concepts.json or embedded/xrefs.json change shape or content.
const (
	ConceptsVersion = "ncit-lite-2024.1"
	XrefsVersion    = "umls-xref-2024.1"
)

// ReferenceConcept is a single target-vocabulary node.
type ReferenceConcept struct {
	ConceptID     string   `json:"concept_id"`
	PreferredName string   `json:"preferred_name"`
	Synonyms      []string `json:"synonyms"`
	SemanticGroup string   `json:"semantic_group"`
}

// CrossReference is a direct (source_system, source_code) -> target concept
// hit traceable to an external authority.
type CrossReference struct {
	System          string `json:"system"`
	Code            string `json:"code"`
	CUI             string `json:"cui"`
	TargetConceptID string `json:"target_concept_id"`
}

// XrefKey identifies a cross-reference by its canonicalized system and
// source code.
type XrefKey struct {
	System string
	Code   string
}

type rawConcept struct {
	ConceptID     string   `json:"concept_id"`
	PreferredName string   `json:"preferred_name"`
	Synonyms      []string `json:"synonyms"`
	SemanticGroup string   `json:"semantic_group"`
}

type store struct {
	concepts []ReferenceConcept
	xrefs    map[XrefKey]CrossReference
}

var (
	once  sync.Once
	cache *store
	err   error
)

func load() (*store, error) {
	var rawConcepts []rawConcept
	if decodeErr := json.Unmarshal(embedded.ConceptsJSON, &rawConcepts); decodeErr != nil {
		return nil, fmt.Errorf("refdata: decode concepts.json: %w", decodeErr)
	}

	seen := make(map[string]bool, len(rawConcepts))
	concepts := make([]ReferenceConcept, 0, len(rawConcepts))
	for _, rc := range rawConcepts {
		if seen[rc.ConceptID] {
			continue
		}
		seen[rc.ConceptID] = true
		synonyms := rc.Synonyms
		if synonyms == nil {
			synonyms = []string{}
		}
		concepts = append(concepts, ReferenceConcept{
			ConceptID:     rc.ConceptID,
			PreferredName: rc.PreferredName,
			Synonyms:      synonyms,
			SemanticGroup: rc.SemanticGroup,
		})
	}

	var rawXrefs []CrossReference
	if decodeErr := json.Unmarshal(embedded.XrefsJSON, &rawXrefs); decodeErr != nil {
		return nil, fmt.Errorf("refdata: decode xrefs.json: %w", decodeErr)
	}

	xrefs := make(map[XrefKey]CrossReference, len(rawXrefs))
	for _, xref := range rawXrefs {
		key := XrefKey{System: registry.Canonicalize(xref.System), Code: xref.Code}
		xrefs[key] = xref
	}

	return &store{concepts: concepts, xrefs: xrefs}, nil
}

func get() (*store, error) {
	once.Do(func() {
		cache, err = load()
	})
	return cache, err
}

// Concepts returns the deduplicated, first-seen-order list of reference
// concepts. Panics if the embedded tables fail to decode, which indicates a
// build-time defect rather than a runtime condition callers should handle.
func Concepts() []ReferenceConcept {
	s, loadErr := get()
	if loadErr != nil {
		panic(loadErr)
	}
	out := make([]ReferenceConcept, len(s.concepts))
	copy(out, s.concepts)
	return out
}

// LookupXref returns the cross-reference registered for a canonical system
// URI and source code, if any.
func LookupXref(canonicalSystem, code string) (CrossReference, bool) {
	s, loadErr := get()
	if loadErr != nil {
		panic(loadErr)
	}
	xref, ok := s.xrefs[XrefKey{System: canonicalSystem, Code: code}]
	return xref, ok
}
