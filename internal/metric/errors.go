package metric

import (
	"errors"
	"fmt"
)

// ErrTransientPublish indicates the metric store could not be reached or refused the write.
// Running the tick again is always safe.
var ErrTransientPublish = errors.New("transient publish failure")

// TransientPublishError reports a failed write of one data point.
type TransientPublishError struct {
	Series SeriesKey
	Err    error
}

func (e *TransientPublishError) Error() string {
	return fmt.Sprintf("cannot publish %s/%s: %v", e.Series.Namespace, e.Series.MetricName, e.Err)
}

func (e *TransientPublishError) Unwrap() []error {
	return []error{ErrTransientPublish, e.Err}
}
