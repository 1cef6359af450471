package finding

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedNotification indicates the notification cannot be turned into a finding.
	// Retrying unchanged input cannot succeed.
	ErrMalformedNotification = errors.New("malformed notification")
	// ErrNonRetryableSubmission indicates the repository rejected the finding itself.
	ErrNonRetryableSubmission = errors.New("finding rejected by repository")
)

// MalformedNotificationError names the notification field that failed validation.
type MalformedNotificationError struct {
	Field  string
	Reason string
}

func (e *MalformedNotificationError) Error() string {
	return fmt.Sprintf("malformed notification: %s %s", e.Field, e.Reason)
}

func (e *MalformedNotificationError) Unwrap() error {
	return ErrMalformedNotification
}

// SubmissionError reports a failed submission to the findings repository.
// Retryable failures are network or throttling problems; the rest were rejected by the repository.
type SubmissionError struct {
	Retryable bool
	Err       error
}

func (e *SubmissionError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("cannot submit finding (retryable): %v", e.Err)
	}
	return fmt.Sprintf("cannot submit finding: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Is matches ErrNonRetryableSubmission for non-retryable failures.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrNonRetryableSubmission && !e.Retryable
}

// IsRetryable reports whether err is a submission failure worth retrying.
func IsRetryable(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr) && subErr.Retryable
}
