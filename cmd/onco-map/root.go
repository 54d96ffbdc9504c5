// Command onco-map maps oncology procedure codes to NCIt concepts and
// evaluates a mapper against a gold-standard dataset.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinterm/onco-map/internal/config"
)

var (
	verbose bool
	output  string
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "onco-map",
	Short: "Clinical order coded-element mapping and evaluation",
	Long: `onco-map maps clinical order coded elements (LOINC, CPT, SNOMED CT) to
NCIt concepts and evaluates a mapper's accuracy against a gold-standard
dataset.

Commands:
  map       Map a single coded element
  eval      Run an evaluation against a dataset
  manifest  List and inspect dataset manifests
  baseline  Record a baseline snapshot for later comparison
  version   Show version information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, yaml, markdown)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .onco-map/config.yaml)")
}

func syncConfigFlagToEnv() {
	if cfgFile == "" {
		return
	}
	_ = os.Setenv("ONCO_MAP_CONFIG", cfgFile)
}

// loadConfig resolves configuration with the global flags layered on top.
// cmd.Flags().Changed distinguishes an explicitly-passed --output from its
// default, so `--output table` can still win over a non-default config/env
// value instead of being mistaken for "flag not given".
func loadConfig(cmd *cobra.Command) *config.Config {
	overrides := &config.Config{}
	if cmd.Flags().Changed("output") {
		overrides.Output = output
	}
	if verbose {
		overrides.Verbose = true
	}
	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "onco-map: load config: %v\n", err)
		return config.Default()
	}
	return cfg
}

func verbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
