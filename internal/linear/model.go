// Package linear implements a fixed-weight logistic model that can stand in
// for a trained binary classifier when evaluating a recorded experiment.
package linear

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ogulcanaydogan/mlexp/internal/experiment"
	"github.com/ogulcanaydogan/mlexp/pkg/types"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// ErrUnweightedFeature is returned for an input feature the model has no
// weight for.
var ErrUnweightedFeature = errors.New("feature has no weight")

// ErrNoExamples is returned by Evaluate when there is nothing to score.
var ErrNoExamples = errors.New("no examples to evaluate")

// epsilon clips probabilities before taking logarithms in the loss.
const epsilon = 1e-7

type Model struct {
	Bias    float64
	Weights map[string]float64
	// Threshold binarizes predicted probabilities; p > Threshold is positive.
	Threshold float64

	log *zap.SugaredLogger
}

var _ experiment.Model = (*Model)(nil)

func New(bias float64, weights map[string]float64, threshold float64, lggr *zap.SugaredLogger) *Model {
	if lggr == nil {
		lggr = zap.NewNop().Sugar()
	}
	w := make(map[string]float64, len(weights))
	for k, v := range weights {
		w[k] = v
	}
	return &Model{Bias: bias, Weights: w, Threshold: threshold, log: lggr.Named("linear")}
}

func (m *Model) Predict(features map[string][]float64, batchSize int) ([]float64, error) {
	names, rows, err := m.checkFeatures(features)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	out := make([]float64, 0, rows)
	for start := 0; start < rows; start += batchSize {
		end := min(start+batchSize, rows)
		out = append(out, m.probabilities(names, features, start, end)...)
	}
	return out, nil
}

// Evaluate reports loss (binary cross-entropy), accuracy, precision and recall
// over the labelled examples, processing them batch by batch.
func (m *Model) Evaluate(features map[string][]float64, labels []float64, opts experiment.EvaluateOptions) (map[string]float64, error) {
	names, rows, err := m.checkFeatures(features)
	if err != nil {
		return nil, err
	}
	if len(labels) != rows {
		return nil, fmt.Errorf("got %d labels for %d examples: %w", len(labels), rows, types.ErrShapeMismatch)
	}
	if rows == 0 {
		return nil, ErrNoExamples
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}

	var c confusion
	batches := (rows + opts.BatchSize - 1) / opts.BatchSize
	for b, start := 0, 0; start < rows; b, start = b+1, start+opts.BatchSize {
		end := min(start+opts.BatchSize, rows)
		probs := m.probabilities(names, features, start, end)
		for i, p := range probs {
			c.add(p, labels[start+i], m.Threshold)
		}
		if opts.Verbose {
			m.logger().Infow("evaluated batch", "batch", b+1, "batches", batches, "examples", end, "loss", c.loss())
		}
	}
	result := c.metrics()
	if opts.Verbose {
		m.logger().Infow("evaluation complete", "examples", rows, "accuracy", result["accuracy"], "loss", result["loss"])
	}
	return result, nil
}

func (m *Model) logger() *zap.SugaredLogger {
	if m.log == nil {
		return zap.NewNop().Sugar()
	}
	return m.log
}

// checkFeatures returns the weighted feature names in sorted order and the
// shared row count of their columns.
func (m *Model) checkFeatures(features map[string][]float64) ([]string, int, error) {
	for name := range features {
		if _, ok := m.Weights[name]; !ok {
			return nil, 0, fmt.Errorf("feature %q: %w", name, ErrUnweightedFeature)
		}
	}
	names := make([]string, 0, len(m.Weights))
	for name := range m.Weights {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := -1
	for _, name := range names {
		col, ok := features[name]
		if !ok {
			return nil, 0, fmt.Errorf("feature %q: %w", name, types.ErrMissingFeature)
		}
		if rows == -1 {
			rows = len(col)
		} else if len(col) != rows {
			return nil, 0, fmt.Errorf("feature %q has %d rows, want %d: %w", name, len(col), rows, types.ErrShapeMismatch)
		}
	}
	if rows == -1 {
		return nil, 0, fmt.Errorf("model has no weights")
	}
	return names, rows, nil
}

// probabilities sums the logit terms in the order of names so repeated calls
// are bit-identical.
func (m *Model) probabilities(names []string, features map[string][]float64, start, end int) []float64 {
	logits := make([]float64, end-start)
	for i := range logits {
		logits[i] = m.Bias
	}
	for _, name := range names {
		floats.AddScaled(logits, m.Weights[name], features[name][start:end])
	}
	for i, z := range logits {
		logits[i] = sigmoid(z)
	}
	return logits
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

type confusion struct {
	n, tp, tn, fp, fn int
	bce               float64
}

func (c *confusion) add(p, label, threshold float64) {
	c.n++
	pc := math.Min(math.Max(p, epsilon), 1-epsilon)
	c.bce -= label*math.Log(pc) + (1-label)*math.Log(1-pc)

	predicted := p > threshold
	actual := label > 0.5
	switch {
	case predicted && actual:
		c.tp++
	case predicted && !actual:
		c.fp++
	case !predicted && actual:
		c.fn++
	default:
		c.tn++
	}
}

func (c *confusion) loss() float64 {
	if c.n == 0 {
		return 0
	}
	return c.bce / float64(c.n)
}

func (c *confusion) metrics() map[string]float64 {
	return map[string]float64{
		"loss":      c.loss(),
		"accuracy":  ratio(c.tp+c.tn, c.n),
		"precision": ratio(c.tp, c.tp+c.fp),
		"recall":    ratio(c.tp, c.tp+c.fn),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
