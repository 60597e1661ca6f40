package types

import (
	"fmt"
	"slices"
	"strings"
)

// ExperimentSettings lists the hyperparameters and input features used to
// train a model. It is treated as a value: copy it, compare it with Equal,
// never mutate it after construction.
type ExperimentSettings struct {
	LearningRate            float64  `json:"learning_rate" yaml:"learning_rate" toml:"learning_rate"`
	NumberEpochs            int      `json:"number_epochs" yaml:"number_epochs" toml:"number_epochs"`
	BatchSize               int      `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	ClassificationThreshold float64  `json:"classification_threshold" yaml:"classification_threshold" toml:"classification_threshold"`
	InputFeatures           []string `json:"input_features" yaml:"input_features" toml:"input_features"`
}

func (s ExperimentSettings) Equal(other ExperimentSettings) bool {
	return s.LearningRate == other.LearningRate &&
		s.NumberEpochs == other.NumberEpochs &&
		s.BatchSize == other.BatchSize &&
		s.ClassificationThreshold == other.ClassificationThreshold &&
		slices.Equal(s.InputFeatures, other.InputFeatures)
}

func (s ExperimentSettings) String() string {
	return fmt.Sprintf(
		"ExperimentSettings(learning_rate=%g, number_epochs=%d, batch_size=%d, classification_threshold=%g, input_features=[%s])",
		s.LearningRate, s.NumberEpochs, s.BatchSize, s.ClassificationThreshold, strings.Join(s.InputFeatures, ", "),
	)
}

// Validate reports the first out-of-range hyperparameter. Struct literals are
// not validated; loaders call this explicitly.
func (s ExperimentSettings) Validate() error {
	if !(s.LearningRate > 0) {
		return fmt.Errorf("learning_rate must be positive, got %g", s.LearningRate)
	}
	if s.NumberEpochs <= 0 {
		return fmt.Errorf("number_epochs must be positive, got %d", s.NumberEpochs)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", s.BatchSize)
	}
	if !(s.ClassificationThreshold >= 0 && s.ClassificationThreshold <= 1) {
		return fmt.Errorf("classification_threshold must be within [0, 1], got %g", s.ClassificationThreshold)
	}
	if len(s.InputFeatures) == 0 {
		return fmt.Errorf("input_features must not be empty")
	}
	seen := make(map[string]struct{}, len(s.InputFeatures))
	for _, name := range s.InputFeatures {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("input_features contains a blank name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("input_features contains duplicate %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
