package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/mlexp/pkg/types"
)

// LoadCSV reads a headed CSV file of numeric cells. When labelColumn is set
// that column is returned separately as the labels and left out of the
// dataset.
func LoadCSV(path, labelColumn string) (types.Dataset, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Dataset{}, nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()
	ds, labels, err := ReadCSV(f, labelColumn)
	if err != nil {
		return types.Dataset{}, nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return ds, labels, nil
}

func ReadCSV(r io.Reader, labelColumn string) (types.Dataset, []float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return types.Dataset{}, nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return types.Dataset{}, nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	labelIdx := -1
	if labelColumn != "" {
		for i, name := range header {
			if name == labelColumn {
				labelIdx = i
				break
			}
		}
		if labelIdx == -1 {
			return types.Dataset{}, nil, fmt.Errorf("label column %q not in header %v", labelColumn, header)
		}
	}

	columns := make([][]float64, len(header))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return types.Dataset{}, nil, fmt.Errorf("read row: %w", err)
		}
		for i, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return types.Dataset{}, nil, fmt.Errorf("line %d column %s: %w", line, header[i], err)
			}
			columns[i] = append(columns[i], v)
		}
	}

	var labels []float64
	series := make([]types.Series, 0, len(header))
	for i, name := range header {
		if i == labelIdx {
			labels = columns[i]
			if labels == nil {
				labels = []float64{}
			}
			continue
		}
		series = append(series, types.Series{Name: name, Values: columns[i]})
	}
	ds, err := types.NewDataset(series...)
	if err != nil {
		return types.Dataset{}, nil, err
	}
	return ds, labels, nil
}
