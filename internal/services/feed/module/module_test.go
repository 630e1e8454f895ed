package module

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"helix/internal/modkit"
	"helix/internal/platform/config"
	perr "helix/internal/platform/errors"
	phttp "helix/internal/platform/net/http"
	"helix/internal/platform/net/middleware"
	records "helix/internal/services/records/domain"
	"helix/internal/services/records/repo"

	"github.com/go-chi/chi/v5"
)

func TestFromConfig(t *testing.T) {
	o := FromConfig(config.New())
	if o.Port != ":4100" || o.PollInterval != 800*time.Millisecond || !o.Watch || o.Recent != 15 {
		t.Fatalf("defaults = %+v", o)
	}
	if len(o.Critical) != 5 {
		t.Fatalf("critical = %v", o.Critical)
	}

	t.Setenv("FEED_CRITICAL", "anaphylaxis, sepsis")
	t.Setenv("FEED_POLL_INTERVAL", "2s")
	o = FromConfig(config.New())
	if !reflect.DeepEqual(o.Critical, []string{"anaphylaxis", "sepsis"}) || o.PollInterval != 2*time.Second {
		t.Fatalf("env = %+v", o)
	}
}

func TestNew_RequiresTailer(t *testing.T) {
	if _, err := New(modkit.Deps{Cfg: config.New()}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestModule_ServesLogThroughStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	app, _ := repo.NewAppender(path, false)
	rec := records.Record{Timestamp: 7, Text: "Patient [NAME] has sepsis.", Entities: []records.Entity{
		{Entity: "sepsis", Label: "Target: Disease", Score: 0.985, Start: 19, End: 25},
	}}
	if err := app.Append(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	m, err := New(modkit.Deps{Cfg: config.New()}, modkit.WithPorts(Needs{Tailer: repo.NewTailer(path, 0)}))
	if err != nil {
		t.Fatal(err)
	}
	m.svc.Poll(context.Background())

	mux := chi.NewRouter()
	mux.Use(middleware.Stack(middleware.StackOptions{})...)
	m.MountRoutes(phttp.AdaptChi(mux))

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/feed/recent", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var env struct {
		Data struct {
			Items []struct {
				Critical bool `json:"critical"`
				Entities []struct {
					Confidence string `json:"Confidence"`
				} `json:"entities"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	items := env.Data.Items
	if len(items) != 1 || !items[0].Critical || items[0].Entities[0].Confidence != "98.50%" {
		t.Fatalf("items = %+v", items)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
}
