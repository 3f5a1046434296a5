package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables read by ApplyEnv.
const (
	EnvHome                = "CARBONLEDGER_HOME"
	EnvLogLevel            = "CARBONLEDGER_LOG_LEVEL"
	EnvLogFormat           = "CARBONLEDGER_LOG_FORMAT"
	EnvLogFile             = "CARBONLEDGER_LOG_FILE"
	EnvStoreDriver         = "CARBONLEDGER_STORE_DRIVER"
	EnvStoreDSN            = "CARBONLEDGER_STORE_DSN"
	EnvSeed                = "CARBONLEDGER_SEED"
	EnvCacheEnabled        = "CARBONLEDGER_CACHE_ENABLED"
	EnvCacheBackend        = "CARBONLEDGER_CACHE_BACKEND"
	EnvCacheTTLSeconds     = "CARBONLEDGER_CACHE_TTL_SECONDS"
	EnvCacheDir            = "CARBONLEDGER_CACHE_DIR"
	EnvRedisURL            = "CARBONLEDGER_REDIS_URL"
	EnvConcurrency         = "CARBONLEDGER_CONCURRENCY"
	EnvTimeoutSeconds      = "CARBONLEDGER_TIMEOUT_SECONDS"
	EnvElectricityStrategy = "CARBONLEDGER_ELECTRICITY_STRATEGY"
	EnvIssuer              = "CARBONLEDGER_ISSUER"
	EnvNodeID              = "CARBONLEDGER_NODE_ID"
	EnvNATSURL             = "CARBONLEDGER_NATS_URL"
	EnvOutputFormat        = "CARBONLEDGER_OUTPUT_FORMAT"
)

// ApplyEnv overrides settings from CARBONLEDGER_* variables. Unset or empty
// variables leave the setting alone, as do numeric and boolean values that
// do not parse.
func (c *Config) ApplyEnv() {
	setString(&c.Logging.Level, EnvLogLevel)
	setString(&c.Logging.Format, EnvLogFormat)
	setString(&c.Logging.File, EnvLogFile)

	setString(&c.Store.Driver, EnvStoreDriver)
	setString(&c.Store.DSN, EnvStoreDSN)
	setString(&c.Store.Seed, EnvSeed)

	setBool(&c.Cache.Enabled, EnvCacheEnabled)
	setString(&c.Cache.Backend, EnvCacheBackend)
	setInt(&c.Cache.TTLSeconds, EnvCacheTTLSeconds)
	setString(&c.Cache.Directory, EnvCacheDir)
	setString(&c.Cache.RedisURL, EnvRedisURL)

	setInt(&c.Processing.Concurrency, EnvConcurrency)
	setInt(&c.Processing.TimeoutSeconds, EnvTimeoutSeconds)
	setString(&c.Processing.ElectricityStrategy, EnvElectricityStrategy)

	setString(&c.Issuance.Issuer, EnvIssuer)
	setString(&c.Issuance.NodeID, EnvNodeID)
	setString(&c.Issuance.NATSURL, EnvNATSURL)

	setString(&c.Output.DefaultFormat, EnvOutputFormat)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setBool(dst *bool, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}
