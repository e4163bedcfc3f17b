// Package shared contains the error taxonomy used across the daemon.
package shared

import (
	"context"
	"errors"
	"fmt"
)

// Construction-time errors. They are fatal: the daemon must not start.
var (
	// ErrInvalidExpression indicates that a schedule expression cannot be parsed
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrDuplicateJobName indicates that two job records share a name
	ErrDuplicateJobName = errors.New("duplicate job name")

	// ErrInvalidJob indicates a job record with missing or malformed fields
	ErrInvalidJob = errors.New("invalid job")
)

// Execution-time errors. They are recovered at job granularity.
var (
	// ErrSpawnFailure indicates that an external process could not be started
	ErrSpawnFailure = errors.New("spawn failure")

	// ErrUnknownCommand indicates that an internal command name cannot be resolved
	ErrUnknownCommand = errors.New("unknown command")

	// ErrHandlerError indicates that an internal command handler failed or panicked
	ErrHandlerError = errors.New("handler error")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindInvalidExpression represents unparseable schedule expressions
	KindInvalidExpression
	// KindDuplicateJobName represents registry name collisions
	KindDuplicateJobName
	// KindInvalidJob represents malformed job records
	KindInvalidJob
	// KindSpawnFailure represents external process start failures
	KindSpawnFailure
	// KindUnknownCommand represents unresolvable internal commands
	KindUnknownCommand
	// KindHandlerError represents failures raised inside internal handlers
	KindHandlerError
	// KindTimeout represents timeout errors
	KindTimeout
	// KindCanceled represents context cancellation
	KindCanceled
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidExpression:
		return "InvalidExpression"
	case KindDuplicateJobName:
		return "DuplicateJobName"
	case KindInvalidJob:
		return "InvalidJob"
	case KindSpawnFailure:
		return "SpawnFailure"
	case KindUnknownCommand:
		return "UnknownCommand"
	case KindHandlerError:
		return "HandlerError"
	case KindTimeout:
		return "Timeout"
	case KindCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

var kindToSentinel = map[Kind]error{
	KindInvalidExpression: ErrInvalidExpression,
	KindDuplicateJobName:  ErrDuplicateJobName,
	KindInvalidJob:        ErrInvalidJob,
	KindSpawnFailure:      ErrSpawnFailure,
	KindUnknownCommand:    ErrUnknownCommand,
	KindHandlerError:      ErrHandlerError,
	KindTimeout:           ErrTimeout,
}

// kindPriorities defines the deterministic order for error classification.
// Higher priority (lower index) kinds are checked first in KindOf.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindCanceled, nil},
	{KindTimeout, ErrTimeout},
	{KindInvalidExpression, ErrInvalidExpression},
	{KindDuplicateJobName, ErrDuplicateJobName},
	{KindInvalidJob, ErrInvalidJob},
	{KindUnknownCommand, ErrUnknownCommand},
	{KindSpawnFailure, ErrSpawnFailure},
	{KindHandlerError, ErrHandlerError},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// It traverses the error chain using a deterministic priority order, so a handler error
// that wraps a timeout is classified as KindTimeout.
//
// Returns KindUnknown for nil and unrecognized errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, priority := range kindPriorities {
		switch priority.kind {
		case KindCanceled:
			if isCanceled(err) {
				return KindCanceled
			}
		case KindTimeout:
			if IsTimeout(err) {
				return KindTimeout
			}
		default:
			if errors.Is(err, priority.err) {
				return priority.kind
			}
		}
	}

	return KindUnknown
}

// HasKind reports whether the given error has the specified kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// sentinelOf returns the sentinel error for the given Kind.
// For KindUnknown and KindCanceled, it returns nil.
func sentinelOf(kind Kind) error {
	if sentinel, exists := kindToSentinel[kind]; exists {
		return sentinel
	}
	return nil
}

// MarkKind wraps an error with the sentinel for kind, preserving the original error.
// Both KindOf(MarkKind(err, kind)) == kind and errors.Is(MarkKind(err, kind), err) hold.
// If err is nil, the bare sentinel is returned. Marking is idempotent.
//
//	if errors.Is(err, exec.ErrNotFound) {
//	    return shared.MarkKind(err, shared.KindSpawnFailure)
//	}
func MarkKind(err error, kind Kind) error {
	sentinel := sentinelOf(kind)
	if err == nil {
		return sentinel
	}
	if sentinel == nil {
		return err
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsFatal reports whether err belongs to the construction-time kinds that must abort startup.
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindInvalidExpression, KindDuplicateJobName, KindInvalidJob:
		return true
	default:
		return false
	}
}

// isCanceled reports whether the error indicates a canceled context.
func isCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout reports whether the error indicates a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout)
}

// IsInvalidExpression reports whether err is a schedule parse failure.
func IsInvalidExpression(err error) bool {
	return errors.Is(err, ErrInvalidExpression)
}

// IsDuplicateJobName reports whether err is a registry name collision.
func IsDuplicateJobName(err error) bool {
	return errors.Is(err, ErrDuplicateJobName)
}

// IsSpawnFailure reports whether err is an external process start failure.
func IsSpawnFailure(err error) bool {
	return errors.Is(err, ErrSpawnFailure)
}

// IsUnknownCommand reports whether err is an unresolvable internal command.
func IsUnknownCommand(err error) bool {
	return errors.Is(err, ErrUnknownCommand)
}

// IsHandlerError reports whether err was raised inside an internal handler.
func IsHandlerError(err error) bool {
	return errors.Is(err, ErrHandlerError)
}
