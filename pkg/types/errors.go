package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrEmptyHistory   = errors.New("metrics history has no epochs")
	ErrMissingFeature = errors.New("missing feature")
	ErrShapeMismatch  = errors.New("shape mismatch")
)

// UnknownMetricError names the metric that was asked for and the metrics the
// history actually holds.
type UnknownMetricError struct {
	Metric    string
	Available []string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %s: available metrics are [%s]", e.Metric, strings.Join(e.Available, ", "))
}

func (e *UnknownMetricError) Is(target error) bool { return target == ErrUnknownMetric }
