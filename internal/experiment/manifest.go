package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ogulcanaydogan/mlexp/pkg/types"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is what a training routine writes after a run: its settings, the
// logged metric history and, optionally, the learned weights of a linear model.
type Manifest struct {
	Name     string                   `yaml:"name" toml:"name"`
	Settings types.ExperimentSettings `yaml:"settings" toml:"settings"`
	Epochs   []int                    `yaml:"epochs,omitempty" toml:"epochs,omitempty"`
	Metrics  []types.Series           `yaml:"metrics" toml:"metrics"`
	Model    *ModelSpec               `yaml:"model,omitempty" toml:"model,omitempty"`
}

type ModelSpec struct {
	Bias    float64            `yaml:"bias" toml:"bias"`
	Weights map[string]float64 `yaml:"weights" toml:"weights"`
}

// checkFeatures requires exactly one weight per input feature.
func (s *ModelSpec) checkFeatures(features []string) error {
	for _, name := range features {
		if _, ok := s.Weights[name]; !ok {
			return fmt.Errorf("input feature %q has no weight: %w", name, ErrModelFeatures)
		}
	}
	if len(s.Weights) != len(features) {
		for name := range s.Weights {
			if !slices.Contains(features, name) {
				return fmt.Errorf("weight %q is not an input feature: %w", name, ErrModelFeatures)
			}
		}
	}
	return nil
}

// LoadConfig decodes a YAML or TOML file into out, chosen by extension.
func LoadConfig(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, out)
	case ".toml":
		err = toml.Unmarshal(raw, out)
	default:
		return fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if err := LoadConfig(path, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadDocument decodes a manifest without a schema, for validation.
func LoadDocument(path string) (map[string]any, error) {
	doc := map[string]any{}
	if err := LoadConfig(path, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Build assembles the Experiment. Epochs default to 0..n-1 when the manifest
// does not list them.
func (m Manifest) Build(model Model) (*Experiment, error) {
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("manifest name is required")
	}
	if err := m.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("experiment %s settings: %w", m.Name, err)
	}
	if m.Model != nil {
		if err := m.Model.checkFeatures(m.Settings.InputFeatures); err != nil {
			return nil, fmt.Errorf("experiment %s model: %w", m.Name, err)
		}
	}
	history, err := types.NewMetricsHistory(m.Metrics...)
	if err != nil {
		return nil, fmt.Errorf("experiment %s metrics: %w", m.Name, err)
	}
	epochs := m.Epochs
	if epochs == nil {
		epochs = make([]int, history.Len())
		for i := range epochs {
			epochs[i] = i
		}
	}
	return New(m.Name, m.Settings, model, epochs, history)
}
