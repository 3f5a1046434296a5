package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/cli"
	"github.com/rshade/carbonledger/internal/config"
)

const pge = "USA_2019_Pacific_Gas_&_Electric_Co."

// isolate points the config home at a temp dir and silences logging.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Setenv(config.EnvLogLevel, "error")
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd("test")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const testSeed = `version: "1.0"
utilities:
  - uuid: test-utility
    year: 2022
    utility_name: Test Power
    country: USA
    state_province: NV
emissions_factors:
  - uuid: nv-2022
    type: EMISSIONS_ELECTRICITY
    scope: SCOPE 2
    level_1: eGRID EMISSIONS FACTORS
    level_2: USA
    level_3: "STATE: NV"
    year: 2022
    country: USA
    division_type: STATE
    division_id: NV
    activity_uom: MWH
    net_generation: 1000
    net_generation_uom: MWH
    co2_equivalent_emissions: 500
    co2_equivalent_emissions_uom: tons
`
