package experiment

import (
	"fmt"
)

// Comparison holds final metric values of several experiments, one row per
// experiment in the order they were given.
type Comparison struct {
	Metrics []string
	Rows    []ComparisonRow
}

type ComparisonRow struct {
	Experiment string
	Values     map[string]float64
}

func Compare(metrics []string, experiments ...*Experiment) (Comparison, error) {
	if len(metrics) == 0 {
		return Comparison{}, fmt.Errorf("compare: at least one metric is required")
	}
	c := Comparison{
		Metrics: append([]string(nil), metrics...),
		Rows:    make([]ComparisonRow, 0, len(experiments)),
	}
	for _, e := range experiments {
		row := ComparisonRow{Experiment: e.Name, Values: make(map[string]float64, len(metrics))}
		for _, m := range metrics {
			v, err := e.FinalMetricValue(m)
			if err != nil {
				return Comparison{}, fmt.Errorf("compare %s: %w", e.Name, err)
			}
			row.Values[m] = v
		}
		c.Rows = append(c.Rows, row)
	}
	return c, nil
}

// Best returns the row with the highest final value of metric, or the lowest
// when lowerIsBetter. Ties go to the earlier row.
func (c Comparison) Best(metric string, lowerIsBetter bool) (ComparisonRow, bool) {
	var best ComparisonRow
	found := false
	for _, row := range c.Rows {
		v, ok := row.Values[metric]
		if !ok {
			continue
		}
		if !found {
			best, found = row, true
			continue
		}
		cur := best.Values[metric]
		if (lowerIsBetter && v < cur) || (!lowerIsBetter && v > cur) {
			best = row
		}
	}
	return best, found
}

// LowerIsBetter reports whether smaller values of a metric are improvements.
func LowerIsBetter(metric string) bool {
	switch metric {
	case "loss", "val_loss", "mean_squared_error", "mean_absolute_error", "root_mean_squared_error", "mse", "mae", "rmse":
		return true
	}
	return false
}
