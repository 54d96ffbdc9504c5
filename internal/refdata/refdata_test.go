package refdata

import "testing"

func TestConceptsDeduplicatedAndOrdered(t *testing.T) {
	concepts := Concepts()
	if len(concepts) == 0 {
		t.Fatal("expected at least one concept")
	}
	seen := make(map[string]bool)
	for _, c := range concepts {
		if seen[c.ConceptID] {
			t.Errorf("concept %s appears more than once", c.ConceptID)
		}
		seen[c.ConceptID] = true
		if c.Synonyms == nil {
			t.Errorf("concept %s: synonyms should default to empty slice, not nil", c.ConceptID)
		}
	}
}

func TestLookupXrefDirectHit(t *testing.T) {
	xref, ok := LookupXref("http://www.ama-assn.org/go/cpt", "78815")
	if !ok {
		t.Fatal("expected xref hit for CPT 78815")
	}
	if xref.TargetConceptID != "NCIT:C19951" {
		t.Errorf("target_concept_id = %q, want NCIT:C19951", xref.TargetConceptID)
	}
}

func TestLookupXrefMiss(t *testing.T) {
	if _, ok := LookupXref("http://snomed.info/sct", "no-such-code"); ok {
		t.Error("expected no xref hit for unregistered code")
	}
}
