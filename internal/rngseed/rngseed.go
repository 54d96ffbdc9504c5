// Package rngseed derives a deterministic seed for the evaluator's
// bootstrap resampling, so repeated runs over the same dataset produce
// identical confidence intervals.
package rngseed

import "math/rand/v2"

// baseSeed is an arbitrary fixed offset; only its stability across runs
// matters, not its value.
const baseSeed = 42

// Seed derives the PCG seed for a bootstrap run over nSamples cases.
func Seed(nSamples int) uint64 {
	return uint64(baseSeed + nSamples)
}

// New returns a PCG-seeded random source for a bootstrap run over
// nSamples cases.
func New(nSamples int) *rand.Rand {
	seed := Seed(nSamples)
	return rand.New(rand.NewPCG(seed, seed))
}
