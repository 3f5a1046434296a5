// Package config loads carbonledger's settings.
//
// Settings come from defaults (New), an optional config file in the config
// home, an optional project overlay merged section by section, and finally
// CARBONLEDGER_* environment variables. Command-line flags are applied by
// the CLI on top of the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = "1.0"

// supportedVersions constrains the version field of config files.
const supportedVersions = ">= 1.0, < 2.0"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// Issuers.
const (
	IssuerQueue = "queue"
	IssuerNATS  = "nats"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Config is the full settings tree.
type Config struct {
	Version    string           `yaml:"version"    json:"version"`
	Store      StoreConfig      `yaml:"store"      json:"store"`
	Cache      CacheConfig      `yaml:"cache"      json:"cache"`
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
	Issuance   IssuanceConfig   `yaml:"issuance"   json:"issuance"`
	Geocoding  GeocodingConfig  `yaml:"geocoding"  json:"geocoding"`
	Metrics    MetricsConfig    `yaml:"metrics"    json:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"    json:"logging"`
	Output     OutputConfig     `yaml:"output"     json:"output"`
}

// StoreConfig selects and configures the reference data store.
type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `yaml:"driver" json:"driver"`

	// Seed is a seed file loaded into the memory store instead of the
	// built-in dataset.
	Seed string `yaml:"seed,omitempty" json:"seed,omitempty"`

	DSN                    string `yaml:"dsn,omitempty"                       json:"dsn,omitempty"`
	MaxOpenConns           int    `yaml:"max_open_conns,omitempty"            json:"max_open_conns,omitempty"`
	MaxIdleConns           int    `yaml:"max_idle_conns,omitempty"            json:"max_idle_conns,omitempty"`
	ConnMaxLifetimeSeconds int    `yaml:"conn_max_lifetime_seconds,omitempty" json:"conn_max_lifetime_seconds,omitempty"`
}

// CacheConfig configures the factor cache placed in front of the store.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"               json:"enabled"`
	Backend    string `yaml:"backend"               json:"backend"`
	TTLSeconds int    `yaml:"ttl_seconds"           json:"ttl_seconds"`
	Directory  string `yaml:"directory,omitempty"   json:"directory,omitempty"`
	RedisURL   string `yaml:"redis_url,omitempty"   json:"redis_url,omitempty"`
	MaxEntries int    `yaml:"max_entries,omitempty" json:"max_entries,omitempty"`
}

// ProcessingConfig tunes the activity pipeline.
type ProcessingConfig struct {
	Concurrency    int `yaml:"concurrency"     json:"concurrency"`
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`

	// ElectricityStrategy is "scope" or "division".
	ElectricityStrategy string `yaml:"electricity_strategy" json:"electricity_strategy"`

	// ImportBatchSize is the number of records per import transaction.
	ImportBatchSize int `yaml:"import_batch_size" json:"import_batch_size"`
}

// IssuanceConfig selects the token issuer.
type IssuanceConfig struct {
	Issuer         string `yaml:"issuer"                   json:"issuer"`
	NodeID         string `yaml:"node_id,omitempty"        json:"node_id,omitempty"`
	NATSURL        string `yaml:"nats_url,omitempty"       json:"nats_url,omitempty"`
	Subject        string `yaml:"subject,omitempty"        json:"subject,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

// Place is a named location known to the static geocoder.
type Place struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

// GeocodingConfig lists places resolvable without coordinates.
type GeocodingConfig struct {
	Places map[string]Place `yaml:"places,omitempty" json:"places,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"   json:"enabled"`
	Addr      string `yaml:"addr"      json:"addr"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level"          json:"level"`
	Format string `yaml:"format"         json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"`
	Precision     int    `yaml:"precision"      json:"precision"`
}

// Defaults returns the built-in settings without reading files or the
// environment.
func Defaults() *Config {
	return &Config{
		Version: CurrentVersion,
		Store: StoreConfig{
			Driver:                 DriverMemory,
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeSeconds: 1800,
		},
		Cache: CacheConfig{
			Enabled:    false,
			Backend:    CacheMemory,
			TTLSeconds: 3600,
			MaxEntries: 10000,
		},
		Processing: ProcessingConfig{
			Concurrency:         8,
			TimeoutSeconds:      60,
			ElectricityStrategy: "scope",
			ImportBatchSize:     500,
		},
		Issuance: IssuanceConfig{
			Issuer:         IssuerQueue,
			Subject:        "carbonledger.tokens.issue",
			TimeoutSeconds: 10,
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "carbonledger",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			DefaultFormat: FormatTable,
			Precision:     2,
		},
	}
}

// New returns the effective global settings: defaults, then config.yaml in
// the config home if present, then environment overrides. A config file
// that cannot be read is reported on stderr and skipped.
func New() *Config {
	cfg := Defaults()
	if dir, err := GetConfigDir(); err == nil {
		path := ConfigFilePath(dir)
		if _, statErr := os.Stat(path); statErr == nil {
			if loadErr := cfg.LoadFile(path); loadErr != nil {
				fmt.Fprintf(os.Stderr, "warning: ignoring %s: %v\n", path, loadErr)
				cfg = Defaults()
			}
		}
	}
	cfg.ApplyEnv()
	return cfg
}

// Load reads path on top of the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if err := cfg.LoadFile(path); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes path onto c. Sections absent from the file keep their
// current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return CheckVersion(c.Version)
}

// Save writes c as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// CheckVersion accepts an empty version or one within the supported range.
func CheckVersion(v string) error {
	if v == "" {
		return nil
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid config version %q: %w", v, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing version constraint: %w", err)
	}
	if !constraint.Check(ver) {
		return fmt.Errorf("unsupported config version %s (want %s)", v, supportedVersions)
	}
	return nil
}

// Validate checks enumerated fields and numeric bounds.
func (c *Config) Validate() error {
	var errs []error
	if err := CheckVersion(c.Version); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q must be %s or %s", c.Store.Driver, DriverMemory, DriverPostgres))
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheFile:
	case CacheRedis:
		if c.Cache.Enabled && c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("cache.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q must be memory, file or redis", c.Cache.Backend))
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds))
	}

	if c.Processing.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("processing.concurrency must be at least 1, got %d", c.Processing.Concurrency))
	}
	if c.Processing.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("processing.timeout_seconds must not be negative, got %d", c.Processing.TimeoutSeconds))
	}
	switch strings.ToLower(c.Processing.ElectricityStrategy) {
	case "scope", "division":
	default:
		errs = append(errs, fmt.Errorf("processing.electricity_strategy %q must be scope or division",
			c.Processing.ElectricityStrategy))
	}

	switch c.Issuance.Issuer {
	case IssuerQueue:
	case IssuerNATS:
		if c.Issuance.NATSURL == "" {
			errs = append(errs, errors.New("issuance.nats_url is required for the nats issuer"))
		}
	default:
		errs = append(errs, fmt.Errorf("issuance.issuer %q must be %s or %s", c.Issuance.Issuer, IssuerQueue, IssuerNATS))
	}

	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("output.default_format %q must be table, json or yaml", c.Output.DefaultFormat))
	}
	if c.Output.Precision < 0 {
		errs = append(errs, fmt.Errorf("output.precision must not be negative, got %d", c.Output.Precision))
	}

	return errors.Join(errs...)
}
