package net

import (
	"context"
	"testing"
)

func TestRequestID_RoundTrip(t *testing.T) {
	ctx := context.Background()
	if got := RequestID(ctx); got != "" {
		t.Fatalf("RequestID(empty) = %q", got)
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatalf("empty id should not wrap ctx")
	}
	if got := RequestID(WithRequestID(ctx, "req-7")); got != "req-7" {
		t.Fatalf("RequestID = %q, want req-7", got)
	}
}
