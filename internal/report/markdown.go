package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func BuildMarkdown(s Summary) string {
	var b strings.Builder
	b.WriteString("# Experiment Report\n\n")
	b.WriteString(fmt.Sprintf("- Report ID: `%s`\n", s.ReportID))
	b.WriteString(fmt.Sprintf("- Generated At: `%s`\n", s.GeneratedAt))
	b.WriteString(fmt.Sprintf("- Experiments: `%d`\n\n", len(s.Experiments)))

	b.WriteString("## Settings\n\n")
	b.WriteString("| Experiment | Learning Rate | Epochs | Batch Size | Threshold | Input Features | Settings Digest |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|---|\n")
	for _, e := range s.Experiments {
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s | `%s` |\n",
			cell(e.Name),
			formatFloat(e.Settings.LearningRate),
			e.Settings.NumberEpochs,
			e.Settings.BatchSize,
			formatFloat(e.Settings.ClassificationThreshold),
			cell(strings.Join(e.Settings.InputFeatures, ", ")),
			shortDigest(e.SettingsDigest),
		))
	}

	if len(s.Metrics) > 0 {
		b.WriteString("\n## Final Metrics\n\n")
		b.WriteString("| Experiment | Recorded Epochs |")
		for _, m := range s.Metrics {
			b.WriteString(" " + cell(m) + " |")
		}
		b.WriteString("\n|---|---:|" + strings.Repeat("---:|", len(s.Metrics)) + "\n")
		for _, e := range s.Experiments {
			b.WriteString(fmt.Sprintf("| %s | %d |", cell(e.Name), e.Epochs))
			for _, m := range s.Metrics {
				v, ok := e.FinalMetrics[m]
				if !ok {
					b.WriteString(" - |")
					continue
				}
				b.WriteString(" " + formatFloat(v) + " |")
			}
			b.WriteString("\n")
		}
	}

	if len(s.Best) > 0 {
		b.WriteString("\n## Best Runs\n\n")
		for _, best := range s.Best {
			direction := "highest"
			if best.LowerIsBetter {
				direction = "lowest"
			}
			b.WriteString(fmt.Sprintf("- %s (%s): **%s** at %s\n", best.Metric, direction, best.Experiment, formatFloat(best.Value)))
		}
	}
	return b.String()
}

func WriteMarkdown(path string, s Summary) error {
	return os.WriteFile(path, []byte(BuildMarkdown(s)), 0o644)
}

func cell(s string) string { return strings.ReplaceAll(s, "|", "\\|") }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

func shortDigest(d string) string {
	d = strings.TrimPrefix(d, "sha256:")
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
