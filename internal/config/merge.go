package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyVersion    = "version"
	keyStore      = "store"
	keyCache      = "cache"
	keyProcessing = "processing"
	keyIssuance   = "issuance"
	keyGeocoding  = "geocoding"
	keyMetrics    = "metrics"
	keyLogging    = "logging"
	keyOutput     = "output"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// target. A key present in the overlay replaces the whole section; keys
// absent from the overlay are left unchanged. Unknown keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return CheckVersion(target.Version)
}

// mergeSection decodes node into a zero value of the section's type, so
// maps in the section are replaced rather than merged.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyVersion:
		return node.Decode(&target.Version)
	case keyStore:
		return replace(&target.Store, node)
	case keyCache:
		return replace(&target.Cache, node)
	case keyProcessing:
		return replace(&target.Processing, node)
	case keyIssuance:
		return replace(&target.Issuance, node)
	case keyGeocoding:
		return replace(&target.Geocoding, node)
	case keyMetrics:
		return replace(&target.Metrics, node)
	case keyLogging:
		return replace(&target.Logging, node)
	case keyOutput:
		return replace(&target.Output, node)
	default:
		return nil
	}
}

func replace[T any](dst *T, node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
