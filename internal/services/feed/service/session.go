// Package service keeps feed session statistics and drives the log poll loop
package service

import (
	"math"
	"sort"
	"sync"

	"helix/internal/core/extract"
	"helix/internal/services/feed/domain"
	records "helix/internal/services/records/domain"
)

const (
	defaultKeep = 200
	binSeconds  = 10
)

type pairKey struct{ disease, medication string }

// Session accumulates counters over every record the poller has observed
type Session struct {
	mu       sync.Mutex
	critical domain.CriticalSet
	keep     int

	total     int64
	entities  int64
	crit      int64
	diseases  map[string]int
	meds      map[string]int
	pairs     map[pairKey]int
	bins      map[int64]int
	recent    []domain.DisplayRecord // newest first
	cursorPos int64
}

// NewSession returns an empty session; keep bounds the recent list
func NewSession(critical domain.CriticalSet, keep int) *Session {
	if keep <= 0 {
		keep = defaultKeep
	}
	s := &Session{critical: critical, keep: keep}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.total, s.entities, s.crit = 0, 0, 0
	s.diseases = map[string]int{}
	s.meds = map[string]int{}
	s.pairs = map[pairKey]int{}
	s.bins = map[int64]int{}
	s.recent = nil
}

// Observe folds a batch of records into the counters, in log order
func (s *Session) Observe(recs []records.Record, cur records.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorPos = cur.Offset
	for _, r := range recs {
		d := domain.Format(r, s.critical)
		s.total++
		s.entities += int64(len(d.Entities))
		if d.Critical {
			s.crit++
		}
		s.bins[int64(math.Floor(r.Timestamp/binSeconds))]++

		var ds, ms []string
		for _, e := range r.Entities {
			l, ok := e.Canonical()
			if !ok {
				continue
			}
			switch l {
			case extract.Disease:
				s.diseases[e.Entity]++
				ds = append(ds, e.Entity)
			case extract.Medication:
				s.meds[e.Entity]++
				ms = append(ms, e.Entity)
			}
		}
		for _, dn := range ds {
			for _, mn := range ms {
				s.pairs[pairKey{dn, mn}]++
			}
		}

		s.recent = append([]domain.DisplayRecord{d}, s.recent...)
		if len(s.recent) > s.keep {
			s.recent = s.recent[:s.keep]
		}
	}
}

// Reset clears every counter and the recent list. The poller keeps its cursor
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Snapshot copies the counters, most frequent first
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := domain.Snapshot{
		TotalProcessed: s.total,
		EntitiesFound:  s.entities,
		CriticalCount:  s.crit,
		Diseases:       counts(s.diseases),
		Medications:    counts(s.meds),
		Pairs:          make([]domain.Pair, 0, len(s.pairs)),
		Influx:         make([]domain.Bin, 0, len(s.bins)),
		Cursor:         s.cursorPos,
	}
	for k, n := range s.pairs {
		out.Pairs = append(out.Pairs, domain.Pair{Disease: k.disease, Medication: k.medication, Count: n})
	}
	sort.Slice(out.Pairs, func(i, j int) bool {
		a, b := out.Pairs[i], out.Pairs[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Disease != b.Disease {
			return a.Disease < b.Disease
		}
		return a.Medication < b.Medication
	})
	for b, n := range s.bins {
		out.Influx = append(out.Influx, domain.Bin{Start: float64(b * binSeconds), Count: n})
	}
	sort.Slice(out.Influx, func(i, j int) bool { return out.Influx[i].Start < out.Influx[j].Start })
	return out
}

// Recent returns up to q.Limit newest records matching q.Q
func (s *Session) Recent(q domain.RecentQuery) []domain.DisplayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.DisplayRecord, 0, min(q.Limit, len(s.recent)))
	for _, d := range s.recent {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if d.Matches(q.Q) {
			out = append(out, d)
		}
	}
	return out
}

func counts(m map[string]int) []domain.Count {
	out := make([]domain.Count, 0, len(m))
	for k, n := range m {
		out = append(out, domain.Count{Name: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
