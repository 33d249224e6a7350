package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAuth marks credential failures. No search query can succeed without a
	// valid credential, so the whole run aborts.
	ErrAuth = errors.New("authorization error")
	// ErrTransient marks recoverable upstream failures (timeouts, 5xx). The
	// affected unit of work is skipped and the run continues.
	ErrTransient = errors.New("transient failure")
	// ErrMalformed marks an unparseable upstream payload covering a single
	// record. Only that record is excluded.
	ErrMalformed = errors.New("malformed response")
	// ErrUnavailable marks an optional capability that is absent or degraded.
	// It is not a failure; stages fall back to their documented degraded mode.
	ErrUnavailable = errors.New("capability unavailable")
	// ErrConfiguration marks unusable pipeline configuration (empty query
	// plan, non-positive caps). Fatal.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error must terminate the run rather than degrade
// the stage that produced it.
func Fatal(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrConfiguration)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
