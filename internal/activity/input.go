package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// activityFile is the object form of an activity input.
type activityFile struct {
	Activities []Activity `json:"activities" yaml:"activities"`
}

// DecodeActivities reads activities as either a bare list or an object with
// an "activities" list. format is "json" or "yaml".
func DecodeActivities(r io.Reader, format string) ([]Activity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading activities: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch strings.ToLower(format) {
	case "json":
		if trimmed[0] == '[' {
			var list []Activity
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("decoding json activities: %w", err)
			}
			return list, nil
		}
		var f activityFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("decoding json activities: %w", err)
		}
		return f.Activities, nil
	case "yaml", "yml", "":
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("decoding yaml activities: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			var list []Activity
			if err := root.Decode(&list); err != nil {
				return nil, fmt.Errorf("decoding yaml activities: %w", err)
			}
			return list, nil
		}
		var f activityFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("decoding yaml activities: %w", err)
		}
		return f.Activities, nil
	default:
		return nil, fmt.Errorf("unsupported activity format %q", format)
	}
}

// LoadActivities reads an activity file, choosing the format by extension.
// Files without a .json extension are read as YAML, which also accepts JSON.
func LoadActivities(path string) ([]Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening activities: %w", err)
	}
	defer f.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "json" {
		format = "yaml"
	}
	list, err := DecodeActivities(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}
