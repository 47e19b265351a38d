package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("parsing limit: %w", ErrInvalidInput), http.StatusBadRequest},
		{"malformed record", fmt.Errorf("row 3: %w", ErrMalformedRecord), http.StatusUnprocessableEntity},
		{"source unavailable", fmt.Errorf("opening csv: %w", ErrSourceUnavailable), http.StatusServiceUnavailable},
		{"not loaded", ErrCorpusNotLoaded, http.StatusServiceUnavailable},
		{"app error wins", New(ErrInternal, http.StatusTeapot, "brewing"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrMalformedRecord, http.StatusUnprocessableEntity, "row %d", 7)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatal("AppError should unwrap to its sentinel")
	}
	if got, want := err.Error(), "malformed record: row 7"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"app error keeps message", Newf(ErrInvalidInput, http.StatusBadRequest, "limit is %d", 0), "limit is 0"},
		{"wrapped client error", fmt.Errorf("row 2: %w", ErrMalformedRecord), "row 2: malformed record"},
		{"not loaded", fmt.Errorf("executing query: %w", ErrCorpusNotLoaded), "corpus not loaded"},
		{"timeout", fmt.Errorf("reading corpus: %w", ErrTimeout), "corpus source timed out"},
		{"unavailable hides path", fmt.Errorf("open /data/news.csv: %w", ErrSourceUnavailable), "corpus unavailable"},
		{"unknown", errors.New("pq: connection reset"), "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PublicMessage(tt.err); got != tt.want {
				t.Errorf("PublicMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
