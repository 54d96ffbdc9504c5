// Package rerank applies post-hoc, target-system-driven score adjustments
// to ranker candidates. It never reorders candidates — sorting is the
// mapping engine's job.
package rerank

import (
	"strings"

	"github.com/clinterm/onco-map/internal/rank"
)

// Adjust returns a copy of candidates with target-system boosts applied,
// each clamped to 1.0. NCIT candidates gain +0.05; SNOMED or CPT candidates
// gain +0.02.
func Adjust(candidates []rank.Candidate) []rank.Candidate {
	out := make([]rank.Candidate, len(candidates))
	for i, c := range candidates {
		boost := 0.0
		system := strings.ToUpper(c.TargetSystem)
		switch {
		case system == "NCIT":
			boost = 0.05
		case strings.Contains(system, "SNOMED"), strings.Contains(system, "CPT"):
			boost = 0.02
		}
		c.Score += boost
		if c.Score > 1.0 {
			c.Score = 1.0
		}
		out[i] = c
	}
	return out
}
