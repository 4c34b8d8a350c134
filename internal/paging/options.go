package paging

import (
	"fmt"
	"log/slog"
	"strings"
)

// Page size limits.
const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100
)

// FailurePolicy decides what a failed fetch does to HasMore.
type FailurePolicy int

const (
	// PreserveOnError keeps HasMore as it was, so the next LoadNextPage retries.
	PreserveOnError FailurePolicy = iota
	// StopOnError clears HasMore; only Refresh resumes loading.
	StopOnError
)

func (p FailurePolicy) String() string {
	if p == StopOnError {
		return "stop"
	}
	return "preserve"
}

// ParseFailurePolicy accepts "preserve" (or empty) and "stop".
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return PreserveOnError, nil
	case "stop":
		return StopOnError, nil
	default:
		return PreserveOnError, fmt.Errorf("unknown failure policy %q (want preserve or stop)", s)
	}
}

// ValidatePageSize checks size against MinPageSize and MaxPageSize.
func ValidatePageSize(size int) error {
	if size < MinPageSize || size > MaxPageSize {
		return fmt.Errorf("page size must be between %d and %d, got %d", MinPageSize, MaxPageSize, size)
	}
	return nil
}

type options struct {
	pageSize int
	policy   FailurePolicy
	logger   *slog.Logger
	name     string
	key      func(any) string
}

// Option configures a Controller.
type Option func(*options)

// WithPageSize sets the number of items requested per page.
// Out-of-range sizes fall back to DefaultPageSize.
func WithPageSize(size int) Option {
	return func(o *options) {
		if ValidatePageSize(size) == nil {
			o.pageSize = size
		}
	}
}

// WithFailurePolicy sets how fetch failures affect HasMore.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the controller in log output.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDedupe drops fetched items whose key was already seen since the last
// refresh. key must accept the controller's item type.
func WithDedupe[T any](key func(T) string) Option {
	return func(o *options) {
		o.key = func(v any) string { return key(v.(T)) }
	}
}
