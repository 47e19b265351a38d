package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrSourceUnavailable = errors.New("corpus source unavailable")
	ErrMalformedRecord   = errors.New("malformed record")
	ErrCorpusNotLoaded   = errors.New("corpus not loaded")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternal          = errors.New("internal error")
	ErrTimeout           = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSourceUnavailable), errors.Is(err, ErrCorpusNotLoaded), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a client for err. Client
// errors keep their own message; server-side failures are summarised so
// source paths and driver errors stay in the logs.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		return appErr.Message
	}
	switch code := HTTPStatusCode(err); {
	case code < http.StatusInternalServerError:
		return err.Error()
	case errors.Is(err, ErrCorpusNotLoaded):
		return "corpus not loaded"
	case errors.Is(err, ErrTimeout):
		return "corpus source timed out"
	case code == http.StatusServiceUnavailable:
		return "corpus unavailable"
	default:
		return "internal error"
	}
}
