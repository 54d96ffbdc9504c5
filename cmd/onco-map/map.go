package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clinterm/onco-map/internal/formatter"
	"github.com/clinterm/onco-map/internal/mapping"
)

var (
	mapSystem  string
	mapCode    string
	mapDisplay string
	mapOrderID string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map a single coded element to an NCIt concept",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		engine := mapping.NewEngine(cfg.Thresholds)

		element := mapping.CodedElement{
			OrderID: mapOrderID,
			System:  mapSystem,
			Code:    mapCode,
			Display: mapDisplay,
		}
		result := engine.Map(element)

		return renderMappingResult(result, cfg.Output)
	},
}

func init() {
	mapCmd.Flags().StringVar(&mapSystem, "system", "", "Coding system URI (e.g. http://loinc.org)")
	mapCmd.Flags().StringVar(&mapCode, "code", "", "Procedure code")
	mapCmd.Flags().StringVar(&mapDisplay, "display", "", "Free-text display name")
	mapCmd.Flags().StringVar(&mapOrderID, "order-id", "adhoc-0001", "Synthetic order identifier")
	rootCmd.AddCommand(mapCmd)
}

func renderMappingResult(result mapping.MappingResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(result)
	default:
		tbl := formatter.NewTable(os.Stdout, "FIELD", "VALUE")
		tbl.AddRow("code_element_id", result.CodeElementID)
		tbl.AddRow("target_concept_id", result.TargetConceptID)
		tbl.AddRow("score", fmt.Sprintf("%.4f", result.Score))
		tbl.AddRow("strategy", string(result.Strategy))
		tbl.AddRow("state", string(result.State))
		if result.Reason != "" {
			tbl.AddRow("reason", result.Reason)
		}
		return tbl.Render()
	}
}
