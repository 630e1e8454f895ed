package strings

import (
	"testing"

	kit "helix/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	if got := IfEmpty([]string{"https://ward.example"}, []string{"*"}); len(got) != 1 || got[0] != "https://ward.example" {
		t.Fatalf("IfEmpty returned wrong slice: %#v", got)
	}
	var empty []string
	if got := IfEmpty(empty, []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("IfEmpty did not return default: %#v", got)
	}
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"v1":       "/v1",
		"/feed/":   "/feed",
		"  /api  ": "/api",
		"//x//":    "/x",
	}
	for in, want := range cases {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q, want %q", in, got, want)
		}
	}
	kit.MustPanic(t, func() { _ = MustPrefix(" / ") })
	kit.MustPanic(t, func() { _ = MustPrefix("") })
}
