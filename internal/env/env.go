// Package env provides type-safe environment variable parsing with validation.
package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissing indicates a required environment variable was not set.
	ErrMissing = errors.New("environment variable missing")
	// ErrParsing indicates an environment variable could not be parsed.
	ErrParsing = errors.New("environment variable parsing failed")
)

// Error represents an environment variable error with the variable name.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("environment variable %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Get retrieves an environment variable with a default value.
// The default is returned only when the variable is not set; a value that fails
// parsing is reported as an error instead of being silently replaced.
func Get[T any](key string, defaultValue T, parser func(string) (T, error)) (T, error) {
	value, err := GetRequired(key, parser)
	if errors.Is(err, ErrMissing) {
		return defaultValue, nil
	}
	return value, err
}

// GetRequired retrieves a required environment variable.
// Returns an error if the variable is not set or parsing fails.
func GetRequired[T any](key string, parser func(string) (T, error)) (T, error) {
	var zero T

	value, ok := os.LookupEnv(key)
	if !ok {
		return zero, &Error{Key: key, Err: ErrMissing}
	}

	parsed, err := parser(value)
	if err != nil {
		return zero, &Error{Key: key, Err: errors.Join(ErrParsing, err)}
	}
	return parsed, nil
}

// ParseNonEmptyString validates that the input string is not empty.
func ParseNonEmptyString(s string) (string, error) {
	if s == "" {
		return "", errors.New("empty string not allowed")
	}
	return s, nil
}

// ParseString accepts any value, including the empty string.
func ParseString(s string) (string, error) {
	return s, nil
}

// ParseFloat parses a string as a float64.
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// ParsePositiveDuration parses a duration and rejects zero or negative values.
func ParsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	return d, nil
}

// ParseKeyValues parses a comma-separated list of name=value pairs, keeping input order.
// An empty string yields an empty list.
func ParseKeyValues(s string) ([][2]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	pairs := make([][2]string, 0, len(parts))
	for _, part := range parts {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid name=value pair %q", part)
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs, nil
}
