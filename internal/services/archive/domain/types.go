// Package domain defines archived rows and the archive storage ports
package domain

import (
	"math"
	"time"

	records "helix/internal/services/records/domain"

	"github.com/google/uuid"
)

// ArchivedRecord is one log record mirrored into Postgres
type ArchivedRecord struct {
	ID        uuid.UUID
	Reader    string
	Timestamp float64
	Text      string
	Entities  []records.Entity
}

// Mention is one entity occurrence mirrored into ClickHouse
type Mention struct {
	ID       uuid.UUID
	RecordID uuid.UUID
	Reader   string
	At       time.Time
	Entity   string
	Label    string
	Score    float64
	Start    int32
	End      int32
}

// Mentions flattens a record into one row per entity
func (a ArchivedRecord) Mentions(newID func() uuid.UUID) []Mention {
	at := UnixTime(a.Timestamp)
	out := make([]Mention, 0, len(a.Entities))
	for _, e := range a.Entities {
		out = append(out, Mention{
			ID:       newID(),
			RecordID: a.ID,
			Reader:   a.Reader,
			At:       at,
			Entity:   e.Entity,
			Label:    e.Label,
			Score:    e.Score,
			Start:    int32(e.Start),
			End:      int32(e.End),
		})
	}
	return out
}

// UnixTime converts fractional unix seconds to UTC with millisecond precision
func UnixTime(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e3))*int64(time.Millisecond)).UTC()
}
