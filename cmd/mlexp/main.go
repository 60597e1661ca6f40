package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/mlexp/internal/dataset"
	"github.com/ogulcanaydogan/mlexp/internal/experiment"
	"github.com/ogulcanaydogan/mlexp/internal/hash"
	"github.com/ogulcanaydogan/mlexp/internal/linear"
	"github.com/ogulcanaydogan/mlexp/internal/logging"
	"github.com/ogulcanaydogan/mlexp/internal/report"
	"github.com/ogulcanaydogan/mlexp/pkg/schema"
	"github.com/ogulcanaydogan/mlexp/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ExitUnknownMetric   = 10
	ExitEmptyHistory    = 11
	ExitMissingFeature  = 12
	ExitShapeMismatch   = 13
	ExitSchemaViolation = 14
)

type cliError struct {
	code int
	err  error
}

func (e cliError) Error() string { return e.err.Error() }

func (e cliError) Unwrap() error { return e.err }

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ce cliError
	switch {
	case errors.As(err, &ce):
		return ce.code
	case errors.Is(err, types.ErrUnknownMetric):
		return ExitUnknownMetric
	case errors.Is(err, types.ErrEmptyHistory):
		return ExitEmptyHistory
	case errors.Is(err, types.ErrMissingFeature):
		return ExitMissingFeature
	case errors.Is(err, types.ErrShapeMismatch):
		return ExitShapeMismatch
	default:
		return 1
	}
}

type app struct {
	logLevel string
	log      *zap.SugaredLogger
}

func newRootCommand() *cobra.Command {
	a := &app{log: zap.NewNop().Sugar()}
	root := &cobra.Command{
		Use:           "mlexp",
		Short:         "Inspect and evaluate recorded training runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			lggr, err := logging.New(a.logLevel)
			if err != nil {
				return err
			}
			a.log = lggr
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	root.AddCommand(a.newFinalCommand())
	root.AddCommand(a.newEvaluateCommand())
	root.AddCommand(a.newCompareCommand())
	root.AddCommand(a.newReportCommand())
	root.AddCommand(a.newValidateCommand())
	return root
}

func (a *app) newFinalCommand() *cobra.Command {
	var runPath, metric string
	cmd := &cobra.Command{
		Use:   "final",
		Short: "Print the final recorded value of a metric",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runPath == "" || metric == "" {
				return fmt.Errorf("--run and --metric are required")
			}
			exp, _, err := a.loadExperiment(runPath)
			if err != nil {
				return err
			}
			v, err := exp.FinalMetricValue(metric)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
			return nil
		},
	}
	cmd.Flags().StringVar(&runPath, "run", "", "run manifest (yaml|toml)")
	cmd.Flags().StringVar(&metric, "metric", "", "metric name")
	return cmd
}

type evaluationOutput struct {
	Experiment    string             `json:"experiment"`
	DatasetDigest string             `json:"dataset_digest"`
	Examples      int                `json:"examples"`
	Metrics       map[string]float64 `json:"metrics"`
}

func (a *app) newEvaluateCommand() *cobra.Command {
	var runPath, datasetPath, labelColumn, outPath string
	var quiet bool
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a run's model against a labelled CSV dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runPath == "" || datasetPath == "" {
				return fmt.Errorf("--run and --dataset are required")
			}
			if labelColumn == "" {
				return fmt.Errorf("--label-column must not be empty")
			}
			exp, m, err := a.loadExperiment(runPath)
			if err != nil {
				return err
			}
			if m.Model == nil {
				return fmt.Errorf("run manifest %s has no model section: %w", runPath, experiment.ErrNoModel)
			}
			progress := a.log
			if quiet {
				progress = zap.NewNop().Sugar()
			}
			exp.Model = linear.New(m.Model.Bias, m.Model.Weights, exp.Settings.ClassificationThreshold, progress)

			ds, labels, err := dataset.LoadCSV(datasetPath, labelColumn)
			if err != nil {
				return err
			}
			digest, _, err := hash.DigestFile(datasetPath)
			if err != nil {
				return err
			}
			a.log.Debugw("loaded dataset", "path", datasetPath, "rows", ds.Rows(), "digest", digest)

			metrics, err := exp.Evaluate(ds, labels)
			if err != nil {
				return err
			}
			out := evaluationOutput{
				Experiment:    exp.Name,
				DatasetDigest: digest,
				Examples:      ds.Rows(),
				Metrics:       metrics,
			}
			if outPath == "" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := writeJSON(f, out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&runPath, "run", "", "run manifest (yaml|toml) with a model section")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "test dataset CSV")
	cmd.Flags().StringVar(&labelColumn, "label-column", "label", "CSV column holding the labels")
	cmd.Flags().StringVar(&outPath, "out", "", "write metrics JSON to this path instead of stdout")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-batch progress")
	return cmd
}

func (a *app) newCompareCommand() *cobra.Command {
	var runs, metrics string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare final metric values across runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exps, err := a.loadExperiments(runs)
			if err != nil {
				return err
			}
			names := splitCSV(metrics)
			if len(names) == 0 {
				return fmt.Errorf("--metric is required")
			}
			c, err := experiment.Compare(names, exps...)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "experiment\t%s\n", strings.Join(c.Metrics, "\t"))
			for _, row := range c.Rows {
				cells := make([]string, 0, len(c.Metrics))
				for _, m := range c.Metrics {
					cells = append(cells, strconv.FormatFloat(row.Values[m], 'g', 6, 64))
				}
				fmt.Fprintf(w, "%s\t%s\n", row.Experiment, strings.Join(cells, "\t"))
			}
			for _, m := range c.Metrics {
				if best, ok := c.Best(m, experiment.LowerIsBetter(m)); ok {
					fmt.Fprintf(w, "best %s: %s\n", m, best.Experiment)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runs, "run", "", "comma-separated run manifests")
	cmd.Flags().StringVar(&metrics, "metric", "", "comma-separated metric names")
	return cmd
}

func (a *app) newReportCommand() *cobra.Command {
	var runs, metrics, format, outPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a JSON or markdown report of one or more runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exps, err := a.loadExperiments(runs)
			if err != nil {
				return err
			}
			s, err := report.Build(splitCSV(metrics), exps...)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				if outPath == "" {
					outPath = "report.json"
				}
				if err := report.WriteJSON(outPath, s); err != nil {
					return err
				}
			case "md":
				if outPath == "" {
					outPath = "report.md"
				}
				if err := report.WriteMarkdown(outPath, s); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported format %s", format)
			}
			a.log.Infow("wrote report", "path", outPath, "experiments", len(exps), "report_id", s.ReportID)
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&runs, "run", "", "comma-separated run manifests")
	cmd.Flags().StringVar(&metrics, "metric", "", "comma-separated metric names (default: metrics common to all runs)")
	cmd.Flags().StringVar(&format, "format", "md", "output format (json|md)")
	cmd.Flags().StringVar(&outPath, "out", "", "output report path")
	return cmd
}

func (a *app) newValidateCommand() *cobra.Command {
	var runPath, schemaPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a run manifest against the manifest schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if runPath == "" {
				return fmt.Errorf("--run is required")
			}
			doc, err := experiment.LoadDocument(runPath)
			if err != nil {
				return err
			}
			var violations []string
			if schemaPath != "" {
				violations, err = schema.Validate(schemaPath, doc)
			} else {
				violations, err = schema.ValidateManifest(doc)
			}
			if err != nil {
				return err
			}
			if len(violations) > 0 {
				for _, v := range violations {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return cliError{code: ExitSchemaViolation, err: fmt.Errorf("run manifest %s failed schema validation", runPath)}
			}
			if _, _, err := a.loadExperiment(runPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", runPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&runPath, "run", "", "run manifest (yaml|toml)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "schema file (default: built-in run manifest schema)")
	return cmd
}

func (a *app) loadExperiment(path string) (*experiment.Experiment, experiment.Manifest, error) {
	m, err := experiment.LoadManifest(path)
	if err != nil {
		return nil, experiment.Manifest{}, err
	}
	exp, err := m.Build(nil)
	if err != nil {
		return nil, experiment.Manifest{}, fmt.Errorf("run manifest %s: %w", path, err)
	}
	a.log.Debugw("loaded run manifest", "path", path, "experiment", exp.Name, "epochs", len(exp.Epochs), "metrics", exp.History.Names())
	return exp, m, nil
}

func (a *app) loadExperiments(raw string) ([]*experiment.Experiment, error) {
	paths := splitCSV(raw)
	if len(paths) == 0 {
		return nil, fmt.Errorf("--run must name at least one manifest")
	}
	out := make([]*experiment.Experiment, 0, len(paths))
	for _, p := range paths {
		exp, _, err := a.loadExperiment(p)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
