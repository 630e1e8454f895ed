package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "helix/internal/platform/net/http"
	kit "helix/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func TestBuild_Defaults(t *testing.T) {
	b := Build()
	if b.Name != "" || b.Prefix != "" || b.Ports != nil || len(b.Mw) != 0 {
		t.Fatalf("unexpected defaults %+v", b)
	}
	// default Register is a no-op
	b.Register(nil)
}

func TestBuild_WithOptionsCopiesMiddleware(t *testing.T) {
	mwA := func(next http.Handler) http.Handler { return next }
	mws := []func(http.Handler) http.Handler{mwA}

	registered := false
	type ports struct{ N int }

	b := Build(
		WithName("feed"),
		WithPrefix("/v1/feed"),
		WithMiddlewares(mws...),
		WithPorts(ports{N: 3}),
		WithRegister(func(phttp.Router) { registered = true }),
	)
	mws[0] = nil

	if b.Name != "feed" || b.Prefix != "/v1/feed" {
		t.Fatalf("name/prefix = %q %q", b.Name, b.Prefix)
	}
	if len(b.Mw) != 1 || b.Mw[0] == nil {
		t.Fatalf("middleware slice not copied")
	}
	if p, ok := b.Ports.(ports); !ok || p.N != 3 {
		t.Fatalf("ports = %#v", b.Ports)
	}
	b.Register(nil)
	if !registered {
		t.Fatalf("register hook not kept")
	}
}

func TestMountUnder(t *testing.T) {
	mux := chi.NewRouter()
	r := phttp.AdaptChi(mux)

	tagged := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Mounted", "yes")
			next.ServeHTTP(w, req)
		})
	}
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }

	MountUnder(r, "/v1/feed", []func(http.Handler) http.Handler{tagged}, func(sub phttp.Router) {
		sub.Get("/stats", ok)
	})
	MountUnder(r, "", nil, func(sub phttp.Router) {
		sub.Get("/ping", ok)
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/feed/stats", nil))
	if rr.Code != http.StatusNoContent || rr.Header().Get("X-Mounted") != "yes" {
		t.Fatalf("prefixed route = %d %v", rr.Code, rr.Header())
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusNoContent || rr.Header().Get("X-Mounted") != "" {
		t.Fatalf("root route = %d %v", rr.Code, rr.Header())
	}
}

func TestWithPrefix_Normalizes(t *testing.T) {
	if b := Build(WithPrefix("v1/worker/")); b.Prefix != "/v1/worker" {
		t.Fatalf("prefix = %q", b.Prefix)
	}
	kit.MustPanic(t, func() { _ = WithPrefix(" ") })
}
