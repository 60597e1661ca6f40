package types

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func baseSettings() ExperimentSettings {
	return ExperimentSettings{
		LearningRate:            0.001,
		NumberEpochs:            20,
		BatchSize:               100,
		ClassificationThreshold: 0.35,
		InputFeatures:           []string{"eccentricity", "major_axis_length", "area"},
	}
}

func TestExperimentSettingsEqual_IdenticalValues(t *testing.T) {
	a := baseSettings()
	b := baseSettings()
	if !a.Equal(b) {
		t.Fatalf("expected %v to equal %v", a, b)
	}
	if !b.Equal(a) {
		t.Fatal("equality should be symmetric")
	}
}

func TestExperimentSettingsEqual_SingleFieldDiffers(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExperimentSettings)
	}{
		{"learning_rate", func(s *ExperimentSettings) { s.LearningRate = 0.01 }},
		{"number_epochs", func(s *ExperimentSettings) { s.NumberEpochs = 21 }},
		{"batch_size", func(s *ExperimentSettings) { s.BatchSize = 50 }},
		{"classification_threshold", func(s *ExperimentSettings) { s.ClassificationThreshold = 0.5 }},
		{"input_features order", func(s *ExperimentSettings) {
			s.InputFeatures = []string{"area", "major_axis_length", "eccentricity"}
		}},
		{"input_features length", func(s *ExperimentSettings) { s.InputFeatures = s.InputFeatures[:2] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := baseSettings()
			tt.mutate(&other)
			if baseSettings().Equal(other) {
				t.Errorf("settings differing in %s compared equal", tt.name)
			}
		})
	}
}

func TestExperimentSettingsString_ListsAllFields(t *testing.T) {
	got := baseSettings().String()
	for _, want := range []string{
		"learning_rate=0.001",
		"number_epochs=20",
		"batch_size=100",
		"classification_threshold=0.35",
		"eccentricity, major_axis_length, area",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestExperimentSettingsValidate(t *testing.T) {
	if err := baseSettings().Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}
	tests := []struct {
		name    string
		mutate  func(*ExperimentSettings)
		wantErr string
	}{
		{"zero learning rate", func(s *ExperimentSettings) { s.LearningRate = 0 }, "learning_rate"},
		{"negative epochs", func(s *ExperimentSettings) { s.NumberEpochs = -1 }, "number_epochs"},
		{"zero batch", func(s *ExperimentSettings) { s.BatchSize = 0 }, "batch_size"},
		{"threshold above one", func(s *ExperimentSettings) { s.ClassificationThreshold = 1.5 }, "classification_threshold"},
		{"threshold NaN", func(s *ExperimentSettings) { s.ClassificationThreshold = math.NaN() }, "classification_threshold"},
		{"no features", func(s *ExperimentSettings) { s.InputFeatures = nil }, "input_features"},
		{"blank feature", func(s *ExperimentSettings) { s.InputFeatures = []string{"a", " "} }, "blank"},
		{"duplicate feature", func(s *ExperimentSettings) { s.InputFeatures = []string{"a", "a"} }, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSettings()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExperimentSettingsJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(baseSettings())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"learning_rate"`, `"number_epochs"`, `"batch_size"`, `"classification_threshold"`, `"input_features"`} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("json %s missing key %s", raw, key)
		}
	}
}

func sampleHistory(t *testing.T) MetricsHistory {
	t.Helper()
	h, err := NewMetricsHistory(
		Series{Name: "loss", Values: []float64{0.9, 0.5, 0.2}},
		Series{Name: "accuracy", Values: []float64{0.5, 0.7, 0.9}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestMetricsHistoryLast(t *testing.T) {
	h := sampleHistory(t)
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}
	for name, want := range map[string]float64{"loss": 0.2, "accuracy": 0.9} {
		got, err := h.Last(name)
		if err != nil {
			t.Fatalf("Last(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("Last(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestMetricsHistoryLast_UnknownMetric(t *testing.T) {
	_, err := sampleHistory(t).Last("f1")
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	var ume *UnknownMetricError
	if !errors.As(err, &ume) {
		t.Fatalf("expected *UnknownMetricError, got %T", err)
	}
	if ume.Metric != "f1" {
		t.Errorf("Metric = %q", ume.Metric)
	}
	if got := err.Error(); got != "unknown metric f1: available metrics are [loss, accuracy]" {
		t.Errorf("message = %q", got)
	}
}

func TestMetricsHistoryLast_EmptyHistory(t *testing.T) {
	h, err := NewMetricsHistory(Series{Name: "loss"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Last("loss"); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestMetricsHistoryZeroValue(t *testing.T) {
	var h MetricsHistory
	if h.Len() != 0 || len(h.Names()) != 0 {
		t.Fatalf("zero history should be empty, got len=%d names=%v", h.Len(), h.Names())
	}
	if _, err := h.Last("loss"); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric on zero history, got %v", err)
	}
}

func TestNewMetricsHistory_RejectsRaggedColumns(t *testing.T) {
	_, err := NewMetricsHistory(
		Series{Name: "loss", Values: []float64{0.9, 0.5}},
		Series{Name: "accuracy", Values: []float64{0.5}},
	)
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestNewMetricsHistory_RejectsDuplicateAndUnnamed(t *testing.T) {
	if _, err := NewMetricsHistory(Series{Name: "loss"}, Series{Name: "loss"}); err == nil {
		t.Error("expected error for duplicate metric")
	}
	if _, err := NewMetricsHistory(Series{Values: []float64{1}}); err == nil {
		t.Error("expected error for unnamed metric")
	}
}

func TestMetricsHistoryIsolatedFromCaller(t *testing.T) {
	values := []float64{0.9, 0.5, 0.2}
	h, err := NewMetricsHistory(Series{Name: "loss", Values: values})
	if err != nil {
		t.Fatal(err)
	}
	values[2] = 42
	col, _ := h.Column("loss")
	col[0] = 42
	if got, _ := h.Last("loss"); got != 0.2 {
		t.Fatalf("history mutated through caller slice, Last = %v", got)
	}
	if again, _ := h.Column("loss"); again[0] != 0.9 {
		t.Fatalf("history mutated through returned column, first = %v", again[0])
	}
}

func TestMetricsHistorySeriesPreservesOrder(t *testing.T) {
	series := sampleHistory(t).Series()
	if len(series) != 2 || series[0].Name != "loss" || series[1].Name != "accuracy" {
		t.Fatalf("Series() = %+v", series)
	}
}

func TestDatasetColumn(t *testing.T) {
	d, err := NewDataset(
		Series{Name: "area", Values: []float64{1, 2}},
		Series{Name: "perimeter", Values: []float64{3, 4}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if d.Rows() != 2 {
		t.Fatalf("Rows() = %d", d.Rows())
	}
	col, err := d.Column("perimeter")
	if err != nil {
		t.Fatal(err)
	}
	if col[0] != 3 || col[1] != 4 {
		t.Errorf("column = %v", col)
	}
	_, err = d.Column("extent")
	if !errors.Is(err, ErrMissingFeature) {
		t.Fatalf("expected ErrMissingFeature, got %v", err)
	}
	if !strings.Contains(err.Error(), "extent") {
		t.Errorf("error = %q", err)
	}
}
