package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/report"
)

// addOutputFlag registers --output on cmd.
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().String("output", "", "output format: table, json or yaml (default from config)")
}

// renderOptions resolves the output format: --output when given, otherwise
// the configured default.
func renderOptions(cmd *cobra.Command) (report.Options, error) {
	cfg := config.GetGlobalConfig()
	format := cfg.Output.DefaultFormat
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		format = v
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{Format: f, Precision: cfg.Output.Precision}, nil
}
