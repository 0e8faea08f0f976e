package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/tribal/schema"
	"gopkg.in/yaml.v3"
)

// Topology is the nested project -> repository -> language -> bytes form of a fixture.
type Topology = map[string]map[string]map[string]int64

// ReadTopology reads a static topology fixture and returns its usage rows.
// JSON and YAML files may hold either the nested form or a list of usage rows;
// csv and parquet files hold usage rows.
func ReadTopology(path string) ([]schema.LanguageUsage, error) {
	var (
		usage []schema.LanguageUsage
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		usage, err = readTopologyYAML(path)
	case ".json":
		usage, err = readTopologyJSON(path)
	default:
		usage, err = ReadUsage(path)
	}
	if err != nil {
		return nil, err
	}
	if len(usage) == 0 {
		return nil, fmt.Errorf("topology fixture %s has no rows", path)
	}
	if err := schema.ValidateTopology(usage); err != nil {
		return nil, fmt.Errorf("invalid topology fixture %s: %w", path, err)
	}
	return usage, nil
}

func readTopologyJSON(path string) ([]schema.LanguageUsage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var usage []schema.LanguageUsage
		if err := json.Unmarshal(trimmed, &usage); err != nil {
			return nil, fmt.Errorf("failed to decode topology rows from %s: %w", path, err)
		}
		return usage, nil
	}
	var topo Topology
	if err := json.Unmarshal(trimmed, &topo); err != nil {
		return nil, fmt.Errorf("failed to decode nested topology from %s: %w", path, err)
	}
	return schema.UsageFromTopology(topo), nil
}

func readTopologyYAML(path string) ([]schema.LanguageUsage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML from %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.SequenceNode {
		var usage []schema.LanguageUsage
		if err := root.Decode(&usage); err != nil {
			return nil, fmt.Errorf("failed to decode topology rows from %s: %w", path, err)
		}
		return usage, nil
	}
	var topo Topology
	if err := root.Decode(&topo); err != nil {
		return nil, fmt.Errorf("failed to decode nested topology from %s: %w", path, err)
	}
	return schema.UsageFromTopology(topo), nil
}

// WriteTopologyYAML writes usage rows in the nested YAML form.
func WriteTopologyYAML(path string, usage []schema.LanguageUsage) error {
	data, err := yaml.Marshal(schema.TopologyFromUsage(usage))
	if err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
