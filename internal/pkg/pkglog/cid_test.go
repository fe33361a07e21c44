package pkglog

import (
	"context"
	"testing"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := SetCorrelationID(context.Background(), "cid-123")
	if got := GetCorrelationID(ctx); got != "cid-123" {
		t.Fatalf("expected cid-123, got %q", got)
	}
}

func TestCorrelationIDMissing(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "[invalid_chain_id]" {
		t.Fatalf("expected sentinel for missing cid, got %q", got)
	}
}
