// Package apperr defines the error kinds surfaced by the cable atlas API and
// converts them into HTTP responses at the request boundary.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an error for the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindComputation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindComputation:
		return "computation"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error. Err, when set, carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing cable or zone dataset.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Computation wraps a failure raised while unioning, intersecting or
// projecting geometries.
func Computation(err error, format string, args ...any) error {
	return &Error{Kind: KindComputation, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

type errorBody struct {
	Error string `json:"error"`
}

// Write renders err as {"error": "..."} with the status of its kind.
// Computation and internal errors are logged with their cause and answered
// with a generic message.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := KindOf(err)

	msg := err.Error()
	switch kind {
	case KindComputation:
		log.Error("geometry computation failed", zap.Error(err))
		msg = "failed to compute intersections"
	case KindInternal:
		log.Error("request failed", zap.Error(err))
		msg = "internal server error"
	}

	WriteMessage(w, kind.Status(), msg)
}

// WriteMessage writes a JSON error body with an explicit status.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
