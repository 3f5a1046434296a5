package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/report"
)

// NewResolveDivisionCmd creates the command that maps a utility to its division.
func NewResolveDivisionCmd() *cobra.Command {
	var utility string

	cmd := &cobra.Command{
		Use:   "division",
		Short: "Resolve the division a utility reports under",
		Long: `Looks up a registered utility and reports the division used to price its
electricity: its state when known, then its NERC region or country, then USA.`,
		Example: `  carbonledger resolve division --utility "USA_2019_Pacific_Gas_&_Electric_Co."`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				div, item, lookupErr := factors.LookupDivision(cmd.Context(), a.store, utility)
				if lookupErr != nil {
					return lookupErr
				}
				return report.RenderDivision(cmd.OutOrStdout(), report.DivisionResult{Utility: item, Division: div}, opts)
			})
		},
	}

	cmd.Flags().StringVar(&utility, "utility", "", "utility UUID")
	_ = cmd.MarkFlagRequired("utility")
	addOutputFlag(cmd)
	return cmd
}

// NewResolveFactorsCmd creates the scope query command.
func NewResolveFactorsCmd() *cobra.Command {
	var (
		q     factors.ScopeQuery
		first bool
	)

	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Find emissions factors by scope and level",
		Long: `Finds emissions factors by their scope/level classification. When nothing
matches the requested year, up to five earlier years are tried.`,
		Example: `  # Natural gas factors for 2020
  carbonledger resolve factors --level1 "FUELS" --level2 "GASEOUS FUELS" --level3 "NATURAL GAS" --year 2020

  # Only the best match across a range of years
  carbonledger resolve factors --level1 "FREIGHTING GOODS" --from-year 2018 --thru-year 2021 --first`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := q.Validate(); err != nil {
				return err
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				if first {
					f, findErr := a.resolver.Factor(cmd.Context(), q)
					if findErr != nil {
						return findErr
					}
					return report.RenderFactors(cmd.OutOrStdout(), []factors.EmissionsFactor{f}, opts)
				}
				fs, findErr := a.resolver.Factors(cmd.Context(), q)
				if findErr != nil {
					return findErr
				}
				return report.RenderFactors(cmd.OutOrStdout(), fs, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Scope, "scope", "", "scope, e.g. \"Scope 1\"")
	f.StringVar(&q.Level1, "level1", "", "level 1 classification")
	f.StringVar(&q.Level2, "level2", "", "level 2 classification")
	f.StringVar(&q.Level3, "level3", "", "level 3 classification")
	f.StringVar(&q.Level4, "level4", "", "level 4 classification")
	f.StringVar(&q.Text, "text", "", "free text classification")
	f.StringVar(&q.ActivityUOM, "activity-uom", "", "activity unit of measure")
	f.IntVar(&q.Year, "year", 0, "factor year")
	f.IntVar(&q.FromYear, "from-year", 0, "first year of a range")
	f.IntVar(&q.ThruYear, "thru-year", 0, "last year of a range")
	f.BoolVar(&first, "first", false, "return only the best match")
	cmd.MarkFlagsMutuallyExclusive("year", "from-year")
	cmd.MarkFlagsMutuallyExclusive("year", "thru-year")
	addOutputFlag(cmd)
	return cmd
}

// NewResolveUtilityFactorCmd creates the division factor command.
func NewResolveUtilityFactorCmd() *cobra.Command {
	var (
		divisionID   string
		divisionType string
		year         int
		all          bool
	)

	cmd := &cobra.Command{
		Use:   "utility-factor",
		Short: "Find the electricity factor for a division",
		Example: `  carbonledger resolve utility-factor --division-id CA --division-type STATE --year 2019
  carbonledger resolve utility-factor --division-id WECC --division-type NERC_REGION --all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if divisionID == "" || divisionType == "" {
				return errors.New("--division-id and --division-type are required")
			}
			if year < 0 {
				return fmt.Errorf("year must be >= 0, got %d", year)
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				if all {
					fs, findErr := a.resolver.FactorsByDivision(cmd.Context(), divisionID, divisionType, year)
					if findErr != nil {
						return findErr
					}
					return report.RenderFactors(cmd.OutOrStdout(), fs, opts)
				}
				f, findErr := a.resolver.FactorByDivision(cmd.Context(), divisionID, divisionType, year)
				if findErr != nil {
					return findErr
				}
				return report.RenderFactors(cmd.OutOrStdout(), []factors.EmissionsFactor{f}, opts)
			})
		},
	}

	cmd.Flags().StringVar(&divisionID, "division-id", "", "division identifier, e.g. CA")
	cmd.Flags().StringVar(&divisionType, "division-type", "", "division type, e.g. STATE")
	cmd.Flags().IntVar(&year, "year", 0, "factor year (0 = latest)")
	cmd.Flags().BoolVar(&all, "all", false, "list every matching factor")
	addOutputFlag(cmd)
	return cmd
}
