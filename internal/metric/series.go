// Package metric keeps a monitored metric series dense by publishing explicit zero data points.
package metric

import (
	"errors"
	"fmt"
	"time"
)

// maxDimensions is the CloudWatch limit of dimensions per metric.
const maxDimensions = 30

// Dimension is a single name/value pair of a series key.
type Dimension struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SeriesKey identifies one time series: namespace, metric name and an ordered dimension set.
type SeriesKey struct {
	Namespace  string      `json:"namespace"`
	MetricName string      `json:"metricName"`
	Dimensions []Dimension `json:"dimensions"`
}

// With returns a copy of the key where the dimension called name carries value.
// The dimension is appended when absent. An empty value leaves the key unchanged.
func (k SeriesKey) With(name, value string) SeriesKey {
	if value == "" {
		return k
	}

	dims := make([]Dimension, 0, len(k.Dimensions)+1)
	replaced := false
	for _, d := range k.Dimensions {
		if d.Name == name {
			d.Value = value
			replaced = true
		}
		dims = append(dims, d)
	}
	if !replaced {
		dims = append(dims, Dimension{Name: name, Value: value})
	}

	k.Dimensions = dims
	return k
}

// Validate checks the key against the metric store limits.
func (k SeriesKey) Validate() error {
	if k.Namespace == "" {
		return errors.New("series namespace is empty")
	}
	if k.MetricName == "" {
		return errors.New("series metric name is empty")
	}
	if len(k.Dimensions) > maxDimensions {
		return fmt.Errorf("series has %d dimensions, limit is %d", len(k.Dimensions), maxDimensions)
	}

	seen := make(map[string]struct{}, len(k.Dimensions))
	for _, d := range k.Dimensions {
		if d.Name == "" || d.Value == "" {
			return fmt.Errorf("dimension %q has an empty name or value", d.Name+"="+d.Value)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("duplicate dimension %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}

	return nil
}

// DataPoint is a single observation of a series.
type DataPoint struct {
	Series    SeriesKey `json:"series"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// alignToPeriodBoundary rounds t down to the start of its scheduling interval.
// Daily or longer periods align to midnight UTC.
func alignToPeriodBoundary(t time.Time, period time.Duration) time.Time {
	if period >= 24*time.Hour {
		u := t.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}

	periodSeconds := int64(period.Seconds())
	if periodSeconds <= 0 {
		return t.UTC().Truncate(time.Second)
	}
	alignedUnix := (t.Unix() / periodSeconds) * periodSeconds
	return time.Unix(alignedUnix, 0).UTC()
}
