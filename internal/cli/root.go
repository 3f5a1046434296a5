package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command of the carbonledger CLI.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "carbonledger",
		Short:         "Emissions factor resolution and activity accounting",
		Long:          "carbonledger resolves emissions factors, prices activities in kgCO2e and groups them for token issuance.",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logResult != nil {
				return logResult.Close()
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "config file (default $CARBONLEDGER_HOME/config.yaml)")
	pf.Bool("debug", false, "enable debug logging")
	pf.String("store", "", "reference data store: memory or postgres")
	pf.String("dsn", "", "postgres connection string")
	pf.String("seed", "", "seed file loaded into the memory store")
	pf.Int("cache-ttl", 0, "factor cache TTL in seconds; enables the cache (0 = use config)")
	pf.Bool("no-cache", false, "disable the factor cache")

	cmd.AddCommand(
		newResolveCmd(),
		NewComputeCmd(),
		NewProcessCmd(),
		newFactorsCmd(),
		newUnitsCmd(),
		newConfigCmd(),
		NewServeMetricsCmd(),
		NewVersionCmd(ver),
	)
	return cmd
}

const rootCmdExample = `  # Resolve the division a utility reports under
  carbonledger resolve division --utility "USA_2019_Pacific_Gas_&_Electric_Co."

  # Price 128 kWh for that utility
  carbonledger compute --utility "USA_2019_Pacific_Gas_&_Electric_Co." --usage 128 --uom kwh --year 2019

  # Price a batch of activities and group them by issuer
  carbonledger process --input activities.json --issued-from acme

  # Load a dataset into postgres
  carbonledger --store postgres --dsn postgres://localhost/carbon factors import --input factors.yaml`

// loadConfig builds the effective configuration for a run: the --config
// file or the global/project settings, then persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg = config.Defaults()
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
		cfg.ApplyEnv()
	} else {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		projectDir := config.ResolveProjectDir(os.Getenv("CARBONLEDGER_PROJECT_DIR"), wd)
		cfg = config.NewWithProjectDir(cmd.Context(), projectDir)
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("store"); v != "" {
		cfg.Store.Driver = v
	}
	if v, _ := flags.GetString("dsn"); v != "" {
		cfg.Store.DSN = v
	}
	if v, _ := flags.GetString("seed"); v != "" {
		cfg.Store.Seed = v
	}
	if v, _ := flags.GetInt("cache-ttl"); v > 0 {
		cfg.Cache.TTLSeconds = v
		cfg.Cache.Enabled = true
	}
	if v, _ := flags.GetBool("no-cache"); v {
		cfg.Cache.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "resolve", Short: "Look up divisions and emissions factors"}
	cmd.AddCommand(NewResolveDivisionCmd(), NewResolveFactorsCmd(), NewResolveUtilityFactorCmd())
	return cmd
}

func newFactorsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "factors", Short: "Manage reference data"}
	cmd.AddCommand(NewFactorsImportCmd())
	return cmd
}

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "units", Short: "Unit of measure commands"}
	cmd.AddCommand(NewUnitsListCmd())
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd())
	return cmd
}
