package module

import (
	"sync"
	"testing"

	phttp "helix/internal/platform/net/http"
	"helix/internal/platform/testkit"
)

type Reader interface{ Read() string }
type Writer interface{ Write(string) }

type reader struct{}

func (reader) Read() string { return "r" }

type stubModule struct{ ports any }

func (s *stubModule) MountRoutes(phttp.Router) {}
func (s *stubModule) Ports() any               { return s.ports }
func (s *stubModule) Name() string             { return "records" }

var _ Module = (*stubModule)(nil)

func TestPortsOf_DirectAndField(t *testing.T) {
	if r, ok := PortsOf[Reader](&stubModule{ports: reader{}}); !ok || r.Read() != "r" {
		t.Fatalf("direct implement not found")
	}

	type bundle struct {
		Reader Reader
		hidden Writer
	}
	m := &stubModule{ports: bundle{Reader: reader{}}}
	if _, ok := PortsOf[Reader](m); !ok {
		t.Fatalf("field implement not found")
	}
	if _, ok := PortsOf[Writer](m); ok {
		t.Fatalf("unexported field must not match")
	}
	if _, ok := PortsOf[Reader](&stubModule{}); ok {
		t.Fatalf("nil ports must not match")
	}
}

func TestMustPortsOf_Panics(t *testing.T) {
	testkit.MustPanic(t, func() { _ = MustPortsOf[Writer](&stubModule{ports: 7}) })
	testkit.MustNotPanic(t, func() { _ = MustPortsOf[Reader](&stubModule{ports: reader{}}) })
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("records", reader{})
	if _, ok := PortsAs[reader]("records"); !ok {
		t.Fatalf("expected registered ports")
	}
	if _, ok := PortsAs[int]("records"); ok {
		t.Fatalf("type mismatch must be false")
	}
	if _, ok := PortsAs[reader]("missing"); ok {
		t.Fatalf("missing must be false")
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Register("records", reader{})
			_, _ = PortsAs[reader]("records")
		}()
	}
	wg.Wait()
}

func TestNames_Sorted(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("ingest", nil)
	Register("records", nil)
	Register("feed", nil)
	got := Names()
	if len(got) != 3 || got[0] != "feed" || got[1] != "ingest" || got[2] != "records" {
		t.Fatalf("Names() = %v", got)
	}
}
