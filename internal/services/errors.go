package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify stage failures. Wrap tags errors with one
// of these so callers can route on errors.Is without string matching.
var (
	// ErrValidation marks caller mistakes (unsupported file type, empty input).
	// Surfaced as 4xx at the API boundary, never persisted.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks lookups of unknown request identifiers.
	ErrNotFound = errors.New("not found")
	// ErrTransfer marks audio copy failures during dispatch.
	ErrTransfer = errors.New("transfer error")
	// ErrDispatch marks transcription job submission failures.
	ErrDispatch = errors.New("dispatch error")
	// ErrStorage marks metadata store read/write failures. Not locally
	// recovered; the hosting redelivery mechanism retries the stage.
	ErrStorage = errors.New("storage error")
	// ErrTransient marks failures with no more specific classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
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

// RecordsFailure reports whether a dispatch-stage error should be absorbed by
// marking the record failed rather than propagated for redelivery.
func RecordsFailure(err error) bool {
	return errors.Is(err, ErrTransfer) || errors.Is(err, ErrDispatch)
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
