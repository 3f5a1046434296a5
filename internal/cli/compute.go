package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/emissions"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/report"
)

// NewComputeCmd creates the command that prices electricity usage.
func NewComputeCmd() *cobra.Command {
	var (
		utility      string
		divisionID   string
		divisionType string
		usage        float64
		uom          string
		year         int
		target       string
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the CO2e emission of electricity usage",
		Long: `Prices electricity usage against the emissions factor of a division. The
division is given directly or resolved from a utility.`,
		Example: `  # By utility
  carbonledger compute --utility "USA_2019_Pacific_Gas_&_Electric_Co." --usage 128 --uom kwh --year 2019

  # By division, in metric tons
  carbonledger compute --division-id CA --division-type STATE --usage 5 --uom mwh --target tons`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if utility == "" && (divisionID == "" || divisionType == "") {
				return errors.New("either --utility or --division-id with --division-type is required")
			}
			if usage < 0 {
				return errors.New("usage must be >= 0")
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				div := factors.Division{ID: divisionID, Type: divisionType}
				if utility != "" {
					resolved, _, lookupErr := factors.LookupDivision(ctx, a.store, utility)
					if lookupErr != nil {
						return lookupErr
					}
					div = resolved
				}

				f, findErr := a.resolver.FactorByDivision(ctx, div.ID, div.Type, year)
				if findErr != nil {
					return findErr
				}
				e, computeErr := emissions.ComputeEmission(f, usage, uom, emissions.WithTargetUOM(target))
				if computeErr != nil {
					return computeErr
				}
				logger.Debug().Ctx(ctx).
					Str("division", div.Type+"/"+div.ID).
					Int("factor_year", f.Year).
					Float64("emission", e.Emission.Value).
					Msg("emission computed")
				return report.RenderEmission(cmd.OutOrStdout(), e, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&utility, "utility", "", "utility UUID")
	f.StringVar(&divisionID, "division-id", "", "division identifier")
	f.StringVar(&divisionType, "division-type", "", "division type")
	f.Float64Var(&usage, "usage", 0, "energy used")
	f.StringVar(&uom, "uom", "kwh", "unit of the usage")
	f.IntVar(&year, "year", 0, "factor year (0 = latest)")
	f.StringVar(&target, "target", emissions.DefaultTargetUOM, "mass unit of the result")
	_ = cmd.MarkFlagRequired("usage")
	cmd.MarkFlagsMutuallyExclusive("utility", "division-id")
	addOutputFlag(cmd)
	return cmd
}
