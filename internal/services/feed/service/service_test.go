package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	kit "helix/internal/platform/testkit"
	"helix/internal/services/feed/domain"
	records "helix/internal/services/records/domain"
	"helix/internal/services/records/repo"
)

func ent(text, label string, score float64) records.Entity {
	return records.Entity{Entity: text, Label: label, Score: score}
}

func TestSession_ObserveCounters(t *testing.T) {
	s := NewSession(domain.NewCriticalSet(nil), 3)
	s.Observe([]records.Record{
		{Timestamp: 100, Text: "a", Entities: []records.Entity{
			ent("sepsis", "Target: Disease", 0.9),
			ent("asthma", "Target: Disease", 0.8),
			ent("albuterol", "Target: Medication", 0.95),
			ent("2 puffs", "Target: Dosage", 0.9),
		}},
		{Timestamp: 104, Text: "b", Entities: []records.Entity{
			ent("asthma", "Target: Disease", 0.7),
			ent("albuterol", "Target: Medication", 0.9),
		}},
		{Timestamp: 121, Text: "c"},
	}, records.Cursor{Offset: 42})

	snap := s.Snapshot()
	if snap.TotalProcessed != 3 || snap.EntitiesFound != 6 || snap.CriticalCount != 1 || snap.Cursor != 42 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Diseases[0] != (domain.Count{Name: "asthma", Count: 2}) || len(snap.Diseases) != 2 {
		t.Fatalf("diseases = %+v", snap.Diseases)
	}
	if len(snap.Medications) != 1 || snap.Medications[0].Count != 2 {
		t.Fatalf("medications = %+v", snap.Medications)
	}
	wantPairs := []domain.Pair{
		{Disease: "asthma", Medication: "albuterol", Count: 2},
		{Disease: "sepsis", Medication: "albuterol", Count: 1},
	}
	if len(snap.Pairs) != 2 || snap.Pairs[0] != wantPairs[0] || snap.Pairs[1] != wantPairs[1] {
		t.Fatalf("pairs = %+v", snap.Pairs)
	}
	if len(snap.Influx) != 2 || snap.Influx[0] != (domain.Bin{Start: 100, Count: 2}) || snap.Influx[1].Start != 120 {
		t.Fatalf("influx = %+v", snap.Influx)
	}

	recent := s.Recent(domain.RecentQuery{})
	if len(recent) != 3 || recent[0].Text != "c" || recent[2].Text != "a" || !recent[2].Critical {
		t.Fatalf("recent = %+v", recent)
	}
	if got := s.Recent(domain.RecentQuery{Limit: 1}); len(got) != 1 || got[0].Text != "c" {
		t.Fatalf("limited = %+v", got)
	}
	if got := s.Recent(domain.RecentQuery{Q: "SEPSIS"}); len(got) != 1 || got[0].Text != "a" {
		t.Fatalf("filtered = %+v", got)
	}

	s.Observe([]records.Record{{Text: "d"}, {Text: "e"}}, records.Cursor{Offset: 50})
	if got := s.Recent(domain.RecentQuery{}); len(got) != 3 || got[0].Text != "e" {
		t.Fatalf("keep bound = %+v", got)
	}

	s.Reset()
	if snap := s.Snapshot(); snap.TotalProcessed != 0 || len(snap.Diseases) != 0 || snap.Cursor != 50 {
		t.Fatalf("after reset = %+v", snap)
	}
	if len(s.Recent(domain.RecentQuery{})) != 0 {
		t.Fatalf("recent not cleared")
	}
}

func appendN(t *testing.T, app *repo.Appender, from, n int) {
	t.Helper()
	for i := from; i < from+n; i++ {
		r := records.Record{Timestamp: float64(i), Text: "note", Entities: []records.Entity{ent("asthma", "Target: Disease", 0.9)}}
		if err := app.Append(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPoll_DrainsInBatchesAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	app, _ := repo.NewAppender(path, false)
	appendN(t, app, 0, 7)

	svc := New(repo.NewTailer(path, 0), nil, NewSession(nil, 0), Config{Batch: 3})
	ctx := context.Background()
	svc.Poll(ctx)
	if got := svc.Snapshot().TotalProcessed; got != 7 {
		t.Fatalf("total = %d", got)
	}
	svc.Poll(ctx)
	if got := svc.Snapshot().TotalProcessed; got != 7 {
		t.Fatalf("idle poll changed total to %d", got)
	}

	appendN(t, app, 7, 2)
	svc.Poll(ctx)
	if got := svc.Snapshot(); got.TotalProcessed != 9 || got.Diseases[0].Count != 9 {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestPage_IsStateless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	app, _ := repo.NewAppender(path, false)
	appendN(t, app, 0, 5)

	svc := New(repo.NewTailer(path, 0), nil, NewSession(nil, 0), Config{})
	ctx := context.Background()
	first, cur, err := svc.Page(ctx, domain.RecordsQuery{Limit: 2})
	if err != nil || len(first) != 2 {
		t.Fatalf("first page = %v %v", first, err)
	}
	rest, _, err := svc.Page(ctx, domain.RecordsQuery{Cursor: cur.Offset, Limit: 10})
	if err != nil || len(rest) != 3 || rest[0].Timestamp != 2 {
		t.Fatalf("rest = %+v %v", rest, err)
	}
	if svc.Snapshot().TotalProcessed != 0 {
		t.Fatalf("paging must not feed the session")
	}
}

func TestRun_WakesOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	app, _ := repo.NewAppender(path, false)

	svc := New(repo.NewTailer(path, 0), repo.NewNotifier(path), NewSession(nil, 0), Config{Interval: time.Hour, Watch: true})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// the first write may race the watcher setup, so keep appending until one is seen
	kit.Eventually(t, 5*time.Second, func() bool {
		appendN(t, app, 0, 1)
		time.Sleep(50 * time.Millisecond)
		return svc.Snapshot().TotalProcessed > 0
	}, "fs event drives a poll")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_TickerPolls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	app, _ := repo.NewAppender(path, false)
	svc := New(repo.NewTailer(path, 0), nil, NewSession(nil, 0), Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	appendN(t, app, 0, 2)
	kit.Eventually(t, 2*time.Second, func() bool { return svc.Snapshot().TotalProcessed == 2 }, "ticker poll")
}
