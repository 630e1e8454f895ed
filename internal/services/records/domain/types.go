// Package domain defines the processed record, its wire shape and the records ports
package domain

import (
	"encoding/json"

	"helix/internal/core/extract"
	perr "helix/internal/platform/errors"
	"helix/internal/platform/net/http/bind"
)

// Entity is the persisted form of an extract.Entity
type Entity struct {
	Entity string  `json:"entity"`
	Label  string  `json:"label" validate:"required"` // "Target: Disease" etc
	Score  float64 `json:"score" validate:"gte=0,lte=1"`
	Start  int     `json:"start" validate:"gte=0"`
	End    int     `json:"end" validate:"gtfield=Start"`
}

// Record is one processed note as stored in the log. It is never mutated once written
type Record struct {
	Timestamp float64  `json:"timestamp"`
	Text      string   `json:"original_text_masked"`
	Entities  []Entity `json:"entities"`
}

// recordLine is the decode shape of one log line; pointers tell absent keys from zero values
type recordLine struct {
	Timestamp *float64  `json:"timestamp" validate:"required"`
	Text      *string   `json:"original_text_masked" validate:"required"`
	Entities  *[]Entity `json:"entities" validate:"required"`
}

// ParseLine decodes one log line and rejects anything that is not a well formed record
func ParseLine(b []byte) (Record, error) {
	var w recordLine
	if err := json.Unmarshal(b, &w); err != nil {
		return Record{}, perr.Wrap(err, perr.ErrorCodeJSON, "invalid record line")
	}
	if err := bind.Struct(w); err != nil {
		return Record{}, err
	}
	for _, e := range *w.Entities {
		if err := bind.Struct(e); err != nil {
			return Record{}, err
		}
		if _, ok := e.Canonical(); !ok {
			return Record{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "unknown label %q", e.Label), "label")
		}
	}
	return Record{Timestamp: *w.Timestamp, Text: *w.Text, Entities: *w.Entities}.Normalized(), nil
}

// Cursor is a reader's private position in the log
type Cursor struct {
	Offset int64 `json:"offset"`
}

// NewRecord builds a Record from de-identified text and extracted entities
func NewRecord(ts float64, text string, es []extract.Entity) Record {
	out := make([]Entity, 0, len(es))
	for _, e := range es {
		out = append(out, Entity{
			Entity: e.Text,
			Label:  e.Label.Wire(),
			Score:  e.Confidence,
			Start:  e.Start,
			End:    e.End,
		})
	}
	return Record{Timestamp: ts, Text: text, Entities: out}
}

// Normalized returns r with a non-nil entity slice so it encodes as []
func (r Record) Normalized() Record {
	if r.Entities == nil {
		r.Entities = []Entity{}
	}
	return r
}

// Canonical parses the wire label back to an extract.Label
func (e Entity) Canonical() (extract.Label, bool) {
	l, err := extract.ParseWireLabel(e.Label)
	return l, err == nil
}
