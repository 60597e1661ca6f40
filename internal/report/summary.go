package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/mlexp/internal/experiment"
	"github.com/ogulcanaydogan/mlexp/internal/hash"
	"github.com/ogulcanaydogan/mlexp/pkg/types"
)

type Summary struct {
	ReportID    string              `json:"report_id"`
	GeneratedAt string              `json:"generated_at"`
	Metrics     []string            `json:"metrics"`
	Experiments []ExperimentSummary `json:"experiments"`
	Best        []BestRun           `json:"best,omitempty"`
}

type ExperimentSummary struct {
	Name           string                   `json:"name"`
	SettingsDigest string                   `json:"settings_digest"`
	Settings       types.ExperimentSettings `json:"settings"`
	Epochs         int                      `json:"epochs"`
	FinalMetrics   map[string]float64       `json:"final_metrics"`
}

type BestRun struct {
	Metric        string  `json:"metric"`
	Experiment    string  `json:"experiment"`
	Value         float64 `json:"value"`
	LowerIsBetter bool    `json:"lower_is_better"`
}

// Build summarizes the final values of metrics across experiments. With no
// metrics given it uses every metric the experiments have in common, in the
// first experiment's order.
func Build(metrics []string, experiments ...*experiment.Experiment) (Summary, error) {
	if len(experiments) == 0 {
		return Summary{}, fmt.Errorf("report: no experiments")
	}
	if len(metrics) == 0 {
		metrics = commonMetrics(experiments)
	}
	cmp, err := experiment.Compare(metrics, experiments...)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Metrics:     cmp.Metrics,
		Experiments: make([]ExperimentSummary, 0, len(experiments)),
	}
	for i, e := range experiments {
		digest, _, err := hash.HashCanonicalJSON(e.Settings)
		if err != nil {
			return Summary{}, fmt.Errorf("digest settings of %s: %w", e.Name, err)
		}
		s.Experiments = append(s.Experiments, ExperimentSummary{
			Name:           e.Name,
			SettingsDigest: digest,
			Settings:       e.Settings,
			Epochs:         len(e.Epochs),
			FinalMetrics:   cmp.Rows[i].Values,
		})
	}
	for _, m := range cmp.Metrics {
		lower := experiment.LowerIsBetter(m)
		if row, ok := cmp.Best(m, lower); ok {
			s.Best = append(s.Best, BestRun{Metric: m, Experiment: row.Experiment, Value: row.Values[m], LowerIsBetter: lower})
		}
	}
	return s, nil
}

func commonMetrics(experiments []*experiment.Experiment) []string {
	out := []string{}
	for _, name := range experiments[0].History.Names() {
		shared := true
		for _, e := range experiments[1:] {
			if !e.History.Has(name) {
				shared = false
				break
			}
		}
		if shared {
			out = append(out, name)
		}
	}
	return out
}
