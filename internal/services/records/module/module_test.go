package module

import (
	"context"
	"path/filepath"
	"testing"

	"helix/internal/modkit"
	"helix/internal/platform/config"
	"helix/internal/services/records/domain"
)

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.Path != "data/processed_notes.jsonl" || !o.Lock || o.MaxLineBytes != 4<<20 {
		t.Fatalf("defaults = %+v", o)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("RECORDS_PATH", "/tmp/x.jsonl")
	t.Setenv("RECORDS_LOCK", "false")
	t.Setenv("RECORDS_MAX_LINE_BYTES", "1024")
	o := FromConfig(config.New())
	if o.Path != "/tmp/x.jsonl" || o.Lock || o.MaxLineBytes != 1024 {
		t.Fatalf("env = %+v", o)
	}
}

func TestNew_PortsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	m, err := New(modkit.Deps{Cfg: config.New()}, Options{Path: path}, modkit.WithName("notes"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "notes" || m.Path() != path {
		t.Fatalf("name %q path %q", m.Name(), m.Path())
	}
	p := m.Ports().(Ports)
	ctx := context.Background()
	if err := p.Appender.Append(ctx, domain.Record{Timestamp: 1, Text: "t"}); err != nil {
		t.Fatal(err)
	}
	got, cur, err := p.Tailer.Tail(ctx, domain.Cursor{})
	if err != nil || len(got) != 1 || cur.Offset == 0 {
		t.Fatalf("tail = %v %v %v", got, cur, err)
	}
}
