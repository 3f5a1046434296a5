package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
)

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long:  "Writes the default settings to config.yaml in the config home ($CARBONLEDGER_HOME or ~/.carbonledger).",
		Example: `  carbonledger config init
  carbonledger config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.GetConfigDir()
			if err != nil {
				return err
			}
			path := config.ConfigFilePath(dir)
			if _, statErr := os.Stat(path); statErr == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return err
			}
			if err := config.Defaults().Save(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

// NewConfigValidateCmd creates the config validate command.
func NewConfigValidateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validates a config file, or the effective configuration when --file is not
given. Every problem found is reported.`,
		Example: `  carbonledger config validate
  carbonledger config validate --file ./carbonledger.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if file != "" {
				loaded, err := config.Load(file)
				if err != nil {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Configuration is invalid:")
					for _, e := range flatten(err) {
						_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
					}
					return errors.New("config validation failed")
				}
				cfg = loaded
			} else if err := cfg.Validate(); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  store: %s\n", cfg.Store.Driver)
			cache := "disabled"
			if cfg.Cache.Enabled {
				cache = fmt.Sprintf("%s (ttl %ds)", cfg.Cache.Backend, cfg.Cache.TTLSeconds)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  cache: %s\n", cache)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  issuer: %s\n", cfg.Issuance.Issuer)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "config file to validate")
	return cmd
}

// flatten splits an errors.Join result into its parts.
func flatten(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
