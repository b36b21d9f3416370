package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/store"
)

const (
	CodeValidation  = "validation"
	CodeTooLarge    = "too_large"
	CodeNotFound    = "not_found"
	CodeUnavailable = "unavailable"
	CodeInternal    = "internal"
)

type Error struct {
	Code      string
	Message   string
	Transient bool
	Status    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func statusForCode(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newError(code, message string, transient bool) *Error {
	return &Error{Code: code, Message: message, Transient: transient, Status: statusForCode(code)}
}

func validationError(format string, args ...any) error {
	return newError(CodeValidation, fmt.Sprintf(format, args...), false)
}

func invalidJSON(err error) error {
	return newError(CodeValidation, "invalid json: "+err.Error(), false)
}

// asError maps domain errors onto the coded HTTP error.
func asError(err error) *Error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, store.ErrNotFound):
		return newError(CodeNotFound, err.Error(), false)
	case errors.Is(err, generator.ErrNoModels):
		return newError(CodeUnavailable, err.Error(), false)
	default:
		return newError(CodeInternal, err.Error(), true)
	}
}
