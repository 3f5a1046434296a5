package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/activity"
	"github.com/rshade/carbonledger/internal/report"
)

// NewProcessCmd creates the batch pricing command.
func NewProcessCmd() *cobra.Command {
	var (
		input      string
		issuedFrom string
		issuedTo   string
		issue      bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Price a batch of activities and group them for issuance",
		Long: `Reads activities from a JSON or YAML file, prices each one in kgCO2e and
groups the results by issuer, activity type, mode and reporting period.
Activities that cannot be priced are listed separately and do not stop the
batch. With --issue, one token is requested per group.`,
		Example: `  carbonledger process --input activities.json --issued-from acme
  carbonledger process --input activities.yaml --issue --issued-to registry --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if issue && issuedTo == "" {
				return errors.New("--issued-to is required with --issue")
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			activities, err := activity.LoadActivities(input)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			return withApp(ctx, func(a *app) error {
				p, procErr := a.processor()
				if procErr != nil {
					return procErr
				}
				processed, procErr := p.Process(ctx, activities)
				if procErr != nil {
					return fmt.Errorf("processing activities: %w", procErr)
				}
				grouped := activity.Group(processed, issuedFrom)
				logger.Info().Ctx(ctx).
					Int("activities", len(activities)).
					Int("groups", len(grouped.Groups())).
					Int("failed", len(grouped.Errors)).
					Msg("activities processed")

				if !issue {
					return report.RenderGroups(cmd.OutOrStdout(), grouped, opts)
				}

				issuer, issErr := a.issuer()
				if issErr != nil {
					return issErr
				}
				out, issErr := activity.IssueGroups(ctx, grouped, issuer, activity.IssueOptions{
					IssuedTo:   issuedTo,
					IssuerName: a.cfg.Issuance.Issuer,
					Metrics:    a.metrics,
				})
				if issErr != nil {
					return fmt.Errorf("issuing tokens: %w", issErr)
				}
				return report.RenderIssued(cmd.OutOrStdout(), out, opts)
			})
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "activities file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&issuedFrom, "issued-from", "", "issuer for activities that do not name one")
	cmd.Flags().BoolVar(&issue, "issue", false, "request one token per group")
	cmd.Flags().StringVar(&issuedTo, "issued-to", "", "token recipient")
	_ = cmd.MarkFlagRequired("input")
	addOutputFlag(cmd)
	return cmd
}
