package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/csvdock/csvdock/internal/pkg/pkgerror"
)

type staticID struct{}

func (staticID) Generate() string { return "cid-test" }

type createdPayload struct {
	Name string `json:"name"`
}

func (createdPayload) StatusCode() int { return http.StatusCreated }

func TestRouterWritesFlatPayload(t *testing.T) {
	router := NewRouter(staticID{})
	router.GET("/things/:id", func(ctx context.Context, r *http.Request) (any, error) {
		return map[string]string{"id": GetParam(ctx, "id")}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["id"] != "42" {
		t.Fatalf("payload not flat: %v", body)
	}
}

func TestRouterHonorsStatusCodeInterface(t *testing.T) {
	router := NewRouter(staticID{})
	router.POST("/things", func(context.Context, *http.Request) (any, error) {
		return createdPayload{Name: "x"}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}

func TestRouterErrorShapes(t *testing.T) {
	router := NewRouter(staticID{})
	router.GET("/invalid", func(context.Context, *http.Request) (any, error) {
		return nil, pkgerror.NewInvalidInput(errors.New("upload ID is required"))
	})
	router.GET("/boom", func(context.Context, *http.Request) (any, error) {
		return nil, errors.New("raw failure")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid input status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "upload ID is required" {
		t.Fatalf("error body = %v", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("raw error status = %d, want 500", rec.Code)
	}
}

func TestRouterCorrelationIDHeader(t *testing.T) {
	router := NewRouter(staticID{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := rec.Header().Get(HeaderCorrelationID); got != "cid-test" {
		t.Fatalf("correlation header = %q", got)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "from-proxy")
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderCorrelationID); got != "from-proxy" {
		t.Fatalf("correlation header = %q, want from-proxy", got)
	}
}

func TestNormalizeCID(t *testing.T) {
	if got := normalizeCID("  abc  "); got != "abc" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := normalizeCID("bad\nvalue"); got != "" {
		t.Fatalf("expected empty for newline, got %q", got)
	}
	long := strings.Repeat("a", 200)
	if got := normalizeCID(long); len(got) != 128 {
		t.Fatalf("expected length 128, got %d", len(got))
	}
}
