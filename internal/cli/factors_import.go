package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine/batch"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/internal/report"
	"github.com/rshade/carbonledger/internal/store/memory"
	"github.com/rshade/carbonledger/internal/store/postgres"
)

// importSummary is the result of factors import.
type importSummary struct {
	Store                 string `json:"store" yaml:"store"`
	Records               int    `json:"records" yaml:"records"`
	EmissionsFactors      int    `json:"emissions_factors" yaml:"emissions_factors"`
	Utilities             int    `json:"utilities" yaml:"utilities"`
	ActivityFactorLookups int    `json:"activity_factor_lookups" yaml:"activity_factor_lookups"`
	Chunks                int    `json:"chunks,omitempty" yaml:"chunks,omitempty"`
}

// NewFactorsImportCmd creates the seed import command.
func NewFactorsImportCmd() *cobra.Command {
	var (
		input     string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a reference dataset",
		Long: `Imports emissions factors, utilities and activity lookups from a seed file.

With the postgres store the schema is created if needed and records are
upserted in transactions of --batch-size records. With the memory store the
file is validated and its contents summarized.`,
		Example: `  carbonledger factors import --input factors.yaml
  carbonledger --store postgres --dsn "$DATABASE_URL" factors import --input factors.yaml --batch-size 1000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batchSize < 0 {
				return fmt.Errorf("batch-size must be >= 0, got %d", batchSize)
			}
			opts, err := renderOptions(cmd)
			if err != nil {
				return err
			}
			seed, err := factors.LoadSeedFile(input)
			if err != nil {
				return err
			}
			records := seed.Records()

			cfg := config.GetGlobalConfig()
			if batchSize == 0 {
				batchSize = cfg.Processing.ImportBatchSize
			}

			var summary importSummary
			if cfg.Store.Driver == config.DriverPostgres {
				summary, err = importPostgres(cmd, cfg, records, batchSize)
			} else {
				summary, err = importMemory(records)
			}
			if err != nil {
				return err
			}
			return renderImportSummary(cmd.OutOrStdout(), summary, opts)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "seed file (.json, .yaml or .yml)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per transaction (default from config)")
	_ = cmd.MarkFlagRequired("input")
	addOutputFlag(cmd)
	return cmd
}

func importMemory(records []factors.Record) (importSummary, error) {
	store, err := memory.New(records...)
	if err != nil {
		return importSummary{}, err
	}
	st := store.Stats()
	return importSummary{
		Store:                 config.DriverMemory,
		Records:               len(records),
		EmissionsFactors:      st.EmissionsFactors,
		Utilities:             st.Utilities,
		ActivityFactorLookups: st.ActivityFactorLookups,
	}, nil
}

func importPostgres(cmd *cobra.Command, cfg *config.Config, records []factors.Record, batchSize int) (importSummary, error) {
	ctx := cmd.Context()
	var summary importSummary
	err := withApp(ctx, func(a *app) error {
		if err := a.postgres.Migrate(ctx); err != nil {
			return err
		}

		opts := postgres.ImportOptions{ChunkSize: batchSize}
		if f, ok := cmd.ErrOrStderr().(*os.File); ok && isTerminal(f) {
			opts.OnProgress = func(s batch.ProgressSnapshot) {
				_, _ = fmt.Fprintf(f, "\rimported %d/%d records (%.0f%%)", s.DoneItems, s.TotalItems, s.Percent())
				if s.Complete() {
					_, _ = fmt.Fprintln(f)
				}
			}
		}
		snap, err := a.postgres.Import(ctx, records, opts)
		if err != nil {
			return err
		}
		a.metrics.ObserveBatch(snap.TotalItems, snap.Elapsed)

		st, err := a.postgres.Stats(ctx)
		if err != nil {
			return err
		}
		summary = importSummary{
			Store:                 cfg.Store.Driver,
			Records:               len(records),
			EmissionsFactors:      st.EmissionsFactors,
			Utilities:             st.Utilities,
			ActivityFactorLookups: st.ActivityFactorLookups,
			Chunks:                snap.DoneChunks,
		}
		return nil
	})
	return summary, err
}

func renderImportSummary(w io.Writer, s importSummary, opts report.Options) error {
	if opts.Format != report.FormatTable {
		return report.Encode(w, opts.Format, s)
	}
	_, err := fmt.Fprintf(w, "Imported %d records into the %s store: %d emissions factors, %d utilities, %d activity lookups\n",
		s.Records, s.Store, s.EmissionsFactors, s.Utilities, s.ActivityFactorLookups)
	return err
}
