//go:build !advanced_stats

package main

import "github.com/clinterm/onco-map/internal/eval"

// maybeBootstrap is a no-op in the default build; advanced-stats bootstrap
// confidence intervals are only computed when built with -tags advanced_stats.
func maybeBootstrap(summary eval.EvalSummary) eval.EvalSummary {
	return summary
}
