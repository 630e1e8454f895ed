// Package domain holds the feed DTOs: display records and session statistics
package domain

import (
	"fmt"
	"strings"

	"helix/internal/core/extract"
	records "helix/internal/services/records/domain"
)

// DefaultCritical are disease names that flag a record as critical
var DefaultCritical = []string{"sepsis", "stroke", "myocardial infarction", "meningitis", "pulmonary embolism"}

// DisplayEntity is an entity formatted for display
type DisplayEntity struct {
	Label      string `json:"Label"`
	Text       string `json:"Text"`
	Confidence string `json:"Confidence"`
	Critical   bool   `json:"critical,omitempty"`
}

// DisplayRecord is a processed record formatted for display
type DisplayRecord struct {
	Timestamp float64         `json:"timestamp"`
	Text      string          `json:"text"`
	Entities  []DisplayEntity `json:"entities"`
	Critical  bool            `json:"critical"`
}

// Count is one counter entry
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Pair counts a disease and medication seen in the same record
type Pair struct {
	Disease    string `json:"disease"`
	Medication string `json:"medication"`
	Count      int    `json:"count"`
}

// Bin is a fixed-width bucket of record timestamps
type Bin struct {
	Start float64 `json:"start"`
	Count int     `json:"count"`
}

// Snapshot is a point-in-time copy of the session statistics
type Snapshot struct {
	TotalProcessed int64   `json:"total_processed"`
	EntitiesFound  int64   `json:"entities_found"`
	CriticalCount  int64   `json:"critical_count"`
	Diseases       []Count `json:"diseases"`
	Medications    []Count `json:"medications"`
	Pairs          []Pair  `json:"pairs"`
	Influx         []Bin   `json:"influx"`
	Cursor         int64   `json:"cursor"`
}

// RecentQuery filters the recent list
type RecentQuery struct {
	Limit int    `json:"limit" validate:"omitempty,min=1,max=200"`
	Q     string `json:"q" validate:"omitempty,max=200"`
}

// RecordsQuery pages through the log
type RecordsQuery struct {
	Cursor int64 `json:"cursor" validate:"gte=0"`
	Limit  int   `json:"limit" validate:"min=1,max=500"`
}

// FormatConfidence renders a score as a percentage with two decimals
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// Format converts a stored record for display and flags critical diseases
func Format(r records.Record, critical CriticalSet) DisplayRecord {
	out := DisplayRecord{
		Timestamp: r.Timestamp,
		Text:      r.Text,
		Entities:  make([]DisplayEntity, 0, len(r.Entities)),
	}
	for _, e := range r.Entities {
		de := DisplayEntity{Label: e.Label, Text: e.Entity, Confidence: FormatConfidence(e.Score)}
		if l, ok := e.Canonical(); ok && l == extract.Disease && critical.Has(e.Entity) {
			de.Critical = true
			out.Critical = true
		}
		out.Entities = append(out.Entities, de)
	}
	return out
}

// CriticalSet is a case-insensitive set of condition names
type CriticalSet map[string]struct{}

// NewCriticalSet builds a set; nil or empty input uses DefaultCritical
func NewCriticalSet(names []string) CriticalSet {
	if len(names) == 0 {
		names = DefaultCritical
	}
	s := make(CriticalSet, len(names))
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is critical
func (s CriticalSet) Has(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Matches reports whether the record contains q in its text or any entity text, case-insensitively
func (d DisplayRecord) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(d.Text), q) {
		return true
	}
	for _, e := range d.Entities {
		if strings.Contains(strings.ToLower(e.Text), q) {
			return true
		}
	}
	return false
}
