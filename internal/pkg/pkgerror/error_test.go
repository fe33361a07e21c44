package pkgerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusCodeMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", NewInvalidInput(errors.New("bad")), http.StatusBadRequest},
		{"invalid format", NewInvalidFormat(), http.StatusBadRequest},
		{"not found", NewBusiness("upload not found", CodeNotFound), http.StatusNotFound},
		{"conflict", NewBusiness("duplicate", CodeConflict), http.StatusConflict},
		{"server", NewServer(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		var perr *Error
		if !errors.As(tc.err, &perr) {
			t.Fatalf("%s: expected *Error, got %T", tc.name, tc.err)
		}
		if got := perr.StatusCode(); got != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestInvalidInputMessageIsCauseText(t *testing.T) {
	t.Parallel()

	err := NewInvalidInput(errors.New("filename must end with .csv"))

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if perr.Msg() != "filename must end with .csv" {
		t.Fatalf("unexpected message: %q", perr.Msg())
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := NewServer(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
}
