package fault

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrScan               = errors.New("scan failed")
	ErrNotFound           = errors.New("not found")
	ErrAssignmentConflict = errors.New("assignment conflict")
	ErrRemediation        = errors.New("remediation failed")
	ErrIdempotency        = errors.New("precondition no longer holds")
	ErrConfiguration      = errors.New("configuration error")
	ErrValidation         = errors.New("validation error")
	ErrTransient          = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsNotFound reports whether err represents a missing object, file, or row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ScanError reports that a store could not be inventoried. It is fatal for
// that store's inventory only.
type ScanError struct {
	Store string
	Err   error
}

func (e *ScanError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scan %s: %s", e.Store, ErrScan)
	}
	return fmt.Sprintf("scan %s: %v", e.Store, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

func (e *ScanError) Is(target error) bool { return target == ErrScan }

// OpError records why a single remediation operation failed.
type OpError struct {
	Kind string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Path, ErrRemediation)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrRemediation }

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "unspecified failure"
	}
	return strings.Join(parts, ": ")
}
