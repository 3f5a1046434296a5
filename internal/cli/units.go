package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/report"
	"github.com/rshade/carbonledger/internal/units"
)

// NewUnitsListCmd creates the unit listing command.
func NewUnitsListCmd() *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known units of measure",
		Long:  "Lists known units with their family and conversion factor to the family's base unit.",
		Example: `  carbonledger units list
  carbonledger units list --family energy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}

			families := []units.Family{units.Energy, units.Mass, units.Volume, units.Distance}
			if family != "" {
				fam, parseErr := units.ParseFamily(family)
				if parseErr != nil {
					return parseErr
				}
				families = []units.Family{fam}
			}

			var rows []report.UnitRow
			for _, fam := range families {
				for _, uom := range units.Units(fam) {
					factor, factorErr := units.FactorFor(fam, uom)
					if factorErr != nil {
						return factorErr
					}
					rows = append(rows, report.UnitRow{UOM: uom, Family: fam.String(), Factor: factor})
				}
			}
			return report.RenderUnits(cmd.OutOrStdout(), rows, opts)
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "only list units of this family (energy, mass, volume, distance)")
	addOutputFlag(cmd)
	return cmd
}
