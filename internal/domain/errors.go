package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("resource belongs to another user")
	ErrEmptyInput         = errors.New("empty input")
	ErrUnsupportedFormat  = errors.New("unsupported format")
	ErrMalformedContainer = errors.New("malformed container")
	ErrUnsafeContent      = errors.New("content failed security scan")
	ErrAlreadyProcessing  = errors.New("video is already being processed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateVariant   = errors.New("variant already exists for quality")
)

// ErrorKind classifies pipeline failures. Input and security errors are
// deterministic judgments of the content and are never retried; transcode
// and storage errors are assumed transient and retried within their unit.
type ErrorKind string

const (
	KindInput     ErrorKind = "input"
	KindSecurity  ErrorKind = "security"
	KindTranscode ErrorKind = "transcode"
	KindStorage   ErrorKind = "storage"
	KindTimeout   ErrorKind = "timeout"
)

// StageError is a pipeline failure annotated with the stage it occurred in.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func NewStageError(stage Stage, kind ErrorKind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth retrying. Only transient
// kinds qualify; validation and scan verdicts won't change on a second run.
func (e *StageError) Retryable() bool {
	return e.Kind == KindTranscode || e.Kind == KindStorage
}

// KindOf extracts the error kind from err's chain, or empty if none.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// StageOf extracts the failing stage from err's chain, or empty if none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
