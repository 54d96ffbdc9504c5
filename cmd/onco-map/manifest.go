package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinterm/onco-map/internal/dataset"
	"github.com/clinterm/onco-map/internal/formatter"
)

var manifestRoot string

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "List and inspect dataset manifests",
}

var manifestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every dataset manifest under the data root",
	RunE: func(cmd *cobra.Command, args []string) error {
		root := manifestRoot
		if root == "" {
			root = loadConfig(cmd).DataRoot
		}

		manifests, err := dataset.ListManifests(root)
		if err != nil {
			return fmt.Errorf("list manifests: %w", err)
		}

		tbl := formatter.NewTable(os.Stdout, "NAME", "VERSION", "N_CASES", "LICENSE")
		for _, m := range manifests {
			license := m.License
			if license == "" {
				license = "unknown"
			}
			tbl.AddRow(m.Name, m.Version, fmt.Sprintf("%d", m.NCases), license)
		}
		return tbl.Render()
	},
}

var manifestShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one manifest plus its checksum status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root := manifestRoot
		if root == "" {
			root = loadConfig(cmd).DataRoot
		}

		outcome, err := dataset.Load(root, name, false, func(msg string) {
			fmt.Fprintf(os.Stderr, "onco-map: %s\n", msg)
		})
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}

		tbl := formatter.NewTable(os.Stdout, "FIELD", "VALUE")
		tbl.AddRow("name", outcome.Manifest.Name)
		tbl.AddRow("version", outcome.Manifest.Version)
		tbl.AddRow("n_cases", fmt.Sprintf("%d", outcome.Manifest.NCases))
		tbl.AddRow("license", outcome.Manifest.License)
		tbl.AddRow("manifest_sha256", outcome.Manifest.SHA256)
		tbl.AddRow("computed_sha256", outcome.ComputedSHA256)
		tbl.AddRow("checksum_ok", fmt.Sprintf("%t", outcome.ChecksumOK))
		return tbl.Render()
	},
}

func init() {
	manifestCmd.PersistentFlags().StringVar(&manifestRoot, "root", "", "Dataset root directory (defaults to config data_root)")
	manifestCmd.AddCommand(manifestListCmd, manifestShowCmd)
	rootCmd.AddCommand(manifestCmd)
}
