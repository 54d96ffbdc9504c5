//go:build advanced_stats

package main

import (
	"github.com/clinterm/onco-map/internal/eval"
)

func maybeBootstrap(summary eval.EvalSummary) eval.EvalSummary {
	return eval.WithBootstrap(summary)
}
