package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// Class is the failure taxonomy used to decide retry and propagation.
type Class int

const (
	// ClassPermanent errors are neither retried nor expected.
	ClassPermanent Class = iota
	// ClassTransient covers network/provider errors and timeouts.
	ClassTransient
	// ClassValidation covers generated output rejected by a quality gate.
	ClassValidation
	// ClassData covers a single malformed input that is dropped.
	ClassData
	// ClassStructural covers missing required input; fatal to the run.
	ClassStructural
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassValidation:
		return "validation"
	case ClassData:
		return "data"
	case ClassStructural:
		return "structural"
	default:
		return "permanent"
	}
}

// Retryable reports whether the policy should try again.
func (c Class) Retryable() bool {
	return c == ClassTransient || c == ClassValidation
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx, network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// ValidationError reports generated output that failed a quality gate.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// NewValidationError returns a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// DataError marks a single malformed input record.
type DataError struct {
	Err error
}

func (e *DataError) Error() string { return e.Err.Error() }
func (e *DataError) Unwrap() error { return e.Err }

// NewDataError wraps err as a data error.
func NewDataError(err error) *DataError {
	return &DataError{Err: err}
}

// StructuralError marks a missing or unreadable required input.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string { return e.Err.Error() }
func (e *StructuralError) Unwrap() error { return e.Err }

// NewStructuralError wraps err as a structural error.
func NewStructuralError(err error) *StructuralError {
	return &StructuralError{Err: err}
}

// Classify maps an error chain onto the failure taxonomy.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ClassValidation
	}
	var de *DataError
	if errors.As(err, &de) {
		return ClassData
	}
	var se *StructuralError
	if errors.As(err, &se) {
		return ClassStructural
	}
	if IsTransient(err) {
		return ClassTransient
	}
	return ClassPermanent
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, a per-call timeout, or matches common transient network
// patterns (connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	// A per-call timeout counts toward the retry budget like any provider error.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"unexpected eof",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 425, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
