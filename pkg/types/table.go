package types

import (
	"fmt"
	"slices"
)

// Series is one named column of float64 values.
type Series struct {
	Name   string    `json:"name" yaml:"name" toml:"name"`
	Values []float64 `json:"values" yaml:"values" toml:"values"`
}

// table is an ordered set of equal-length columns. Columns are copied in and
// never handed out by reference.
type table struct {
	names   []string
	columns map[string][]float64
	rows    int
}

func newTable(kind string, series []Series) (table, error) {
	t := table{
		names:   make([]string, 0, len(series)),
		columns: make(map[string][]float64, len(series)),
	}
	for i, s := range series {
		if s.Name == "" {
			return table{}, fmt.Errorf("%s column %d has no name", kind, i)
		}
		if _, dup := t.columns[s.Name]; dup {
			return table{}, fmt.Errorf("%s column %q defined twice", kind, s.Name)
		}
		if i == 0 {
			t.rows = len(s.Values)
		} else if len(s.Values) != t.rows {
			return table{}, fmt.Errorf("%s column %q has %d rows, want %d: %w", kind, s.Name, len(s.Values), t.rows, ErrShapeMismatch)
		}
		t.names = append(t.names, s.Name)
		t.columns[s.Name] = slices.Clone(s.Values)
	}
	return t, nil
}

func (t table) Names() []string { return slices.Clone(t.names) }

func (t table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

func (t table) column(name string) ([]float64, bool) {
	values, ok := t.columns[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(values), true
}

func (t table) series() []Series {
	out := make([]Series, 0, len(t.names))
	for _, name := range t.names {
		out = append(out, Series{Name: name, Values: slices.Clone(t.columns[name])})
	}
	return out
}

// MetricsHistory records metric values per epoch: one column per metric,
// one row per epoch.
type MetricsHistory struct {
	table
}

func NewMetricsHistory(series ...Series) (MetricsHistory, error) {
	t, err := newTable("metric", series)
	if err != nil {
		return MetricsHistory{}, err
	}
	return MetricsHistory{table: t}, nil
}

// Len returns the number of recorded epochs.
func (h MetricsHistory) Len() int { return h.rows }

// Column returns a copy of the per-epoch values of a metric.
func (h MetricsHistory) Column(name string) ([]float64, bool) { return h.column(name) }

func (h MetricsHistory) Series() []Series { return h.series() }

// Last returns the value recorded for name at the final epoch.
func (h MetricsHistory) Last(name string) (float64, error) {
	values, ok := h.columns[name]
	if !ok {
		return 0, &UnknownMetricError{Metric: name, Available: h.Names()}
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("metric %s: %w", name, ErrEmptyHistory)
	}
	return values[len(values)-1], nil
}

// Dataset is a tabular set of named feature columns.
type Dataset struct {
	table
}

func NewDataset(series ...Series) (Dataset, error) {
	t, err := newTable("dataset", series)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{table: t}, nil
}

func (d Dataset) Rows() int { return d.rows }

// Column returns a copy of the named column or an error wrapping
// ErrMissingFeature.
func (d Dataset) Column(name string) ([]float64, error) {
	values, ok := d.column(name)
	if !ok {
		return nil, fmt.Errorf("column %q not in dataset %v: %w", name, d.names, ErrMissingFeature)
	}
	return values, nil
}
