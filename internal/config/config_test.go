package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/logging"
)

// isolate points the config home at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	ResetGlobalConfigForTest()
	t.Cleanup(ResetGlobalConfigForTest)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, FormatTable, cfg.Output.DefaultFormat)
	assert.Equal(t, IssuerQueue, cfg.Issuance.Issuer)
}

func TestNewReadsConfigHome(t *testing.T) {
	home := isolate(t)
	writeFile(t, ConfigFilePath(home), `
version: "1.2"
processing:
  concurrency: 3
  timeout_seconds: 5
  electricity_strategy: division
`)

	cfg := New()
	assert.Equal(t, 3, cfg.Processing.Concurrency)
	assert.Equal(t, "division", cfg.Processing.ElectricityStrategy)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestNewIgnoresBrokenFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, ConfigFilePath(home), "version: \"9.0\"\n")

	cfg := New()
	assert.Equal(t, CurrentVersion, cfg.Version)
}

func TestLoad(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "carbon.yaml")
	writeFile(t, path, `
store:
  driver: postgres
  dsn: postgres://localhost/carbon
cache:
  enabled: true
  backend: redis
  ttl_seconds: 60
  redis_url: redis://localhost:6379
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 60, cfg.Cache.TTLSeconds)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("invalid result", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		writeFile(t, bad, "store:\n  driver: postgres\n")
		_, err := Load(bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store.dsn is required")
	})
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "logging",
			env:  map[string]string{EnvLogLevel: "debug", EnvLogFormat: "json"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
		{
			name: "store",
			env:  map[string]string{EnvStoreDriver: "postgres", EnvStoreDSN: "postgres://db/carbon"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverPostgres, cfg.Store.Driver)
				assert.Equal(t, "postgres://db/carbon", cfg.Store.DSN)
			},
		},
		{
			name: "cache",
			env: map[string]string{
				EnvCacheEnabled:    "true",
				EnvCacheTTLSeconds: "120",
				EnvCacheDir:        "/tmp/carbon-cache",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Cache.Enabled)
				assert.Equal(t, 120, cfg.Cache.TTLSeconds)
				assert.Equal(t, "/tmp/carbon-cache", cfg.Cache.Directory)
			},
		},
		{
			name: "processing",
			env:  map[string]string{EnvConcurrency: "16", EnvTimeoutSeconds: "30"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 16, cfg.Processing.Concurrency)
				assert.Equal(t, 30, cfg.Processing.TimeoutSeconds)
			},
		},
		{
			name: "issuance",
			env:  map[string]string{EnvIssuer: "nats", EnvNATSURL: "nats://localhost:4222"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, IssuerNATS, cfg.Issuance.Issuer)
				assert.Equal(t, "nats://localhost:4222", cfg.Issuance.NATSURL)
			},
		},
		{
			name: "unparseable values are ignored",
			env:  map[string]string{EnvCacheEnabled: "sometimes", EnvConcurrency: "many"},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Cache.Enabled)
				assert.Equal(t, 8, cfg.Processing.Concurrency)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := Defaults()
			cfg.ApplyEnv()
			tt.check(t, cfg)
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"", false},
		{"1.0", false},
		{"1.9.3", false},
		{"0.9", true},
		{"2.0", true},
		{"latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := CheckVersion(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"postgres dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "store.dsn"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis url", func(c *Config) {
			c.Cache.Enabled = true
			c.Cache.Backend = CacheRedis
		}, "cache.redis_url"},
		{"ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }, "cache.ttl_seconds"},
		{"concurrency", func(c *Config) { c.Processing.Concurrency = 0 }, "processing.concurrency"},
		{"strategy", func(c *Config) { c.Processing.ElectricityStrategy = "nearest" }, "electricity_strategy"},
		{"issuer", func(c *Config) { c.Issuance.Issuer = "kafka" }, "issuance.issuer"},
		{"nats url", func(c *Config) { c.Issuance.Issuer = IssuerNATS }, "issuance.nats_url"},
		{"format", func(c *Config) { c.Output.DefaultFormat = "csv" }, "output.default_format"},
		{"precision", func(c *Config) { c.Output.Precision = -1 }, "output.precision"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestShallowMergeYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	writeFile(t, path, `
output:
  default_format: json
geocoding:
  places:
    depot:
      lat: 1.5
      lng: 2.5
unknown_section:
  anything: true
`)

	cfg := Defaults()
	cfg.Output.Precision = 4
	cfg.Geocoding.Places = map[string]Place{"old": {Lat: 9, Lng: 9}}

	require.NoError(t, ShallowMergeYAML(cfg, path))
	assert.Equal(t, FormatJSON, cfg.Output.DefaultFormat)
	// The whole section is replaced, including fields the overlay omits.
	assert.Equal(t, 0, cfg.Output.Precision)
	assert.Equal(t, map[string]Place{"depot": {Lat: 1.5, Lng: 2.5}}, cfg.Geocoding.Places)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)

	t.Run("nil target", func(t *testing.T) {
		require.Error(t, ShallowMergeYAML(nil, path))
	})

	t.Run("empty file", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.yaml")
		writeFile(t, empty, "# nothing here\n")
		before := Defaults()
		after := Defaults()
		require.NoError(t, ShallowMergeYAML(after, empty))
		assert.Equal(t, before, after)
	})

	t.Run("unsupported version", func(t *testing.T) {
		v := filepath.Join(t.TempDir(), "v.yaml")
		writeFile(t, v, "version: \"3.0\"\n")
		require.Error(t, ShallowMergeYAML(Defaults(), v))
	})
}

func TestProjectDir(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	project := filepath.Join(root, projectDirName)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	writeFile(t, ConfigFilePath(project), "processing:\n  concurrency: 2\n  timeout_seconds: 9\n  electricity_strategy: scope\n")

	dir := ResolveProjectDir("", nested)
	assert.Equal(t, project, dir)
	assert.Equal(t, project, ResolveProjectDir(root, "/"))
	assert.Equal(t, project, ResolveProjectDir(project, "/"))

	cfg := NewWithProjectDir(context.Background(), dir)
	assert.Equal(t, 2, cfg.Processing.Concurrency)
	assert.Equal(t, 9, cfg.Processing.TimeoutSeconds)

	t.Run("env beats overlay", func(t *testing.T) {
		t.Setenv(EnvConcurrency, "5")
		cfg := NewWithProjectDir(context.Background(), dir)
		assert.Equal(t, 5, cfg.Processing.Concurrency)
	})

	t.Run("no project", func(t *testing.T) {
		cfg := NewWithProjectDir(context.Background(), "")
		assert.Equal(t, Defaults().Processing, cfg.Processing)
	})
}

func TestGlobalConfig(t *testing.T) {
	isolate(t)
	t.Setenv(EnvOutputFormat, "yaml")

	cfg := GetGlobalConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, FormatYAML, cfg.Output.DefaultFormat)
	assert.Same(t, cfg, GetGlobalConfig())

	custom := Defaults()
	SetGlobalConfig(custom)
	assert.Same(t, custom, GetGlobalConfig())
}

func TestCacheDir(t *testing.T) {
	home := isolate(t)
	cfg := Defaults()

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	cfg.Cache.Directory = "/var/cache/carbon"
	dir, err = cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/carbon", dir)
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "warn", Format: "json"}
	assert.Equal(t, logging.Config{Level: "warn", Format: "json", Output: logging.OutputStderr}, lc.ToLoggingConfig())

	lc.File = "/tmp/carbon.log"
	got := lc.ToLoggingConfig()
	assert.Equal(t, logging.OutputFile, got.Output)
	assert.Equal(t, "/tmp/carbon.log", got.File)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Defaults()
	cfg.Issuance.NodeID = "node-7"
	require.NoError(t, cfg.Save(path))

	loaded := Defaults()
	require.NoError(t, loaded.LoadFile(path))
	assert.Equal(t, cfg, loaded)
}
