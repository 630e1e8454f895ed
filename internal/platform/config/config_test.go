package config

import (
	"reflect"
	"testing"
	"time"

	kit "helix/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	feed := New().Prefix("FEED_")
	if got := feed.Key("PORT"); got != "FEED_PORT" {
		t.Fatalf("Key() = %q, want FEED_PORT", got)
	}
	if got := feed.Prefix("CORS_").Key("ORIGINS"); got != "FEED_CORS_ORIGINS" {
		t.Fatalf("nested Key() = %q", got)
	}
}

func TestMustString(t *testing.T) {
	c := New().Prefix("ARCHIVE_")
	t.Setenv("ARCHIVE_PG_URL", "  postgres://x ")
	if got := c.MustString("PG_URL"); got != "postgres://x" {
		t.Fatalf("MustString = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
}

func TestMayScalars(t *testing.T) {
	c := New().Prefix("INGEST_")
	t.Setenv("INGEST_PREFETCH", " 3 ")
	t.Setenv("INGEST_BAD_INT", "x")
	t.Setenv("INGEST_RATIO", "0.25")
	t.Setenv("INGEST_BAD_RATIO", "zz")
	t.Setenv("INGEST_ON", "true")
	t.Setenv("INGEST_BAD_ON", "maybe")
	t.Setenv("INGEST_RETRY_DELAY", "250ms")
	t.Setenv("INGEST_BAD_DELAY", "soon")

	if got := c.MayInt("PREFETCH", 1); got != 3 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("BAD_INT", 1); got != 1 {
		t.Fatalf("MayInt invalid = %d", got)
	}
	if got := c.MayFloat64("RATIO", 1); got != 0.25 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if got := c.MayFloat64("BAD_RATIO", 0.5); got != 0.5 {
		t.Fatalf("MayFloat64 invalid = %v", got)
	}
	if !c.MayBool("ON", false) || c.MayBool("BAD_ON", false) {
		t.Fatalf("MayBool mismatch")
	}
	if got := c.MayDuration("RETRY_DELAY", time.Second); got != 250*time.Millisecond {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayDuration("BAD_DELAY", 5*time.Second); got != 5*time.Second {
		t.Fatalf("MayDuration invalid = %v", got)
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("FEED_")
	t.Setenv("FEED_CRITICAL", " sepsis , ,stroke ")
	t.Setenv("FEED_BLANKS", " , , ")

	if got := c.MayCSV("CRITICAL", nil); !reflect.DeepEqual(got, []string{"sepsis", "stroke"}) {
		t.Fatalf("MayCSV = %#v", got)
	}
	def := []string{"a"}
	if got := c.MayCSV("BLANKS", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("MayCSV blanks = %#v", got)
	}
	if got := c.MayCSV("MISSING", def); !reflect.DeepEqual(got, def) {
		t.Fatalf("MayCSV missing = %#v", got)
	}
}

func TestMayEnum(t *testing.T) {
	c := New().Prefix("EXTRACT_")
	t.Setenv("EXTRACT_AVERAGING", "Pairwise")
	if got := c.MayEnum("AVERAGING", "mean", "mean", "pairwise", "length_weighted"); got != "pairwise" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("MISSING", "mean", "mean", "pairwise"); got != "mean" {
		t.Fatalf("MayEnum default = %q", got)
	}
	t.Setenv("EXTRACT_BAD", "median")
	kit.MustPanic(t, func() { _ = c.MayEnum("BAD", "mean", "mean", "pairwise") })
}
