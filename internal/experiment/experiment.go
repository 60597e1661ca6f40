package experiment

import (
	"errors"
	"fmt"

	"github.com/ogulcanaydogan/mlexp/pkg/types"
)

var (
	ErrNoModel = errors.New("experiment has no model")
	// ErrModelFeatures means a model's weights do not line up with the
	// experiment's input features.
	ErrModelFeatures = errors.New("model weights do not match input features")
)

// EvaluateOptions are passed through to Model.Evaluate.
type EvaluateOptions struct {
	BatchSize int
	// Verbose asks the model to report progress while it evaluates.
	Verbose bool
}

// Model is a trained predictive model. Features are keyed by feature name,
// one value per example.
type Model interface {
	Evaluate(features map[string][]float64, labels []float64, opts EvaluateOptions) (map[string]float64, error)
	Predict(features map[string][]float64, batchSize int) ([]float64, error)
}

// Experiment stores the settings, metric history and resulting model of one
// training run. The model is shared; the experiment never closes or mutates it.
type Experiment struct {
	Name     string
	Settings types.ExperimentSettings
	Model    Model
	Epochs   []int
	History  types.MetricsHistory
}

func New(name string, settings types.ExperimentSettings, model Model, epochs []int, history types.MetricsHistory) (*Experiment, error) {
	if len(epochs) != history.Len() {
		return nil, fmt.Errorf("experiment %s: %d epochs but %d history rows: %w", name, len(epochs), history.Len(), types.ErrShapeMismatch)
	}
	settings.InputFeatures = append([]string(nil), settings.InputFeatures...)
	return &Experiment{
		Name:     name,
		Settings: settings,
		Model:    model,
		Epochs:   append([]int(nil), epochs...),
		History:  history,
	}, nil
}

// FinalMetricValue returns the value of the metric at the last recorded epoch.
func (e *Experiment) FinalMetricValue(metricName string) (float64, error) {
	return e.History.Last(metricName)
}

// Evaluate runs the model against a held-out dataset and returns the model's
// metrics by name.
func (e *Experiment) Evaluate(testDataset types.Dataset, testLabels []float64) (map[string]float64, error) {
	if e.Model == nil {
		return nil, fmt.Errorf("evaluate %s: %w", e.Name, ErrNoModel)
	}
	features := make(map[string][]float64, len(e.Settings.InputFeatures))
	for _, name := range e.Settings.InputFeatures {
		col, err := testDataset.Column(name)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", e.Name, err)
		}
		features[name] = col
	}
	return e.Model.Evaluate(features, testLabels, EvaluateOptions{
		BatchSize: e.Settings.BatchSize,
		Verbose:   true,
	})
}
