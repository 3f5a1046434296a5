package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/report"
	"github.com/rshade/carbonledger/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			if ver != "" {
				info.Version = ver
			}
			out, _ := cmd.Flags().GetString("output")
			if out == "" || out == string(report.FormatTable) {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
				return err
			}
			f, err := report.ParseFormat(out)
			if err != nil {
				return err
			}
			return report.Encode(cmd.OutOrStdout(), f, info)
		},
	}
	addOutputFlag(cmd)
	return cmd
}
