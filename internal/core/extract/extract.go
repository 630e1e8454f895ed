// Package extract turns raw classifier fragments into clean clinical entities.
//
// Steps per call, in order: drop unknown labels, drop stopword fragments, merge adjacent
// or subword fragments, and emit entities ordered by the start of their opening fragment.
// Nothing is cached between calls.
package extract

import (
	"context"
	"strings"

	perr "helix/internal/platform/errors"

	"golang.org/x/text/cases"
)

const subwordPrefix = "##"

// labelTable maps raw model labels to canonical labels; absent labels are dropped
var labelTable = map[string]Label{
	"DIAGNOSTIC_PROCEDURE": Disease,
	"DISEASE_DISORDER":     Disease,
	"Sign_symptom":         Disease,
	"MEDICATION":           Medication,
	"Medication":           Medication,
	"DOSAGE":               Dosage,
	"Dosage":               Dosage,
}

// stopwords are section headers and chart words the model tends to tag
var stopwords = map[string]struct{}{
	"symptoms":    {},
	"diagnosis":   {},
	"history":     {},
	"plan":        {},
	"medications": {},
	"date":        {},
	"id":          {},
}

// NormalizeLabel maps a raw classifier label to a canonical one
func NormalizeLabel(raw string) (Label, bool) {
	l, ok := labelTable[raw]
	return l, ok
}

// IsStopword reports whether a fragment's surface text is noise
func IsStopword(word string) bool {
	f := cases.Fold().String(strings.TrimSpace(word))
	f = strings.TrimRight(f, ".,;:!?")
	_, ok := stopwords[f]
	return ok
}

// Extractor wraps a Classifier with normalization and merging
type Extractor struct {
	clf  Classifier
	mode Averaging
}

// Option configures an Extractor
type Option func(*Extractor)

// WithAveraging selects the confidence averaging mode
func WithAveraging(a Averaging) Option { return func(e *Extractor) { e.mode = a } }

// New builds an Extractor; averaging defaults to Mean
func New(clf Classifier, opts ...Option) *Extractor {
	e := &Extractor{clf: clf, mode: Mean}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Averaging reports the configured mode
func (e *Extractor) Averaging() Averaging { return e.mode }

// Extract classifies text and returns merged entities. A classifier failure is an
// extraction error with no partial result
func (e *Extractor) Extract(ctx context.Context, text string) ([]Entity, error) {
	spans, err := e.clf.Classify(ctx, text)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeExtraction, "classify note")
	}
	return Merge(spans, e.mode), nil
}

// Merge runs label normalization, noise filtering and fragment merging over spans
func Merge(spans []RawSpan, mode Averaging) []Entity {
	m := merger{mode: mode, out: make([]Entity, 0, len(spans))}
	for _, sp := range spans {
		label, ok := NormalizeLabel(sp.Label)
		if !ok {
			continue
		}
		if IsStopword(sp.Word) {
			continue
		}
		m.feed(sp, label)
	}
	m.flush()
	return m.out
}

// merger is a two state machine: nothing open, or one entity open in acc
type merger struct {
	mode   Averaging
	isOpen bool
	acc    Entity
	score  scoreAcc
	out    []Entity
}

func (m *merger) feed(sp RawSpan, label Label) {
	subword := strings.HasPrefix(sp.Word, subwordPrefix)

	switch {
	case m.isOpen && (sp.Start == m.acc.End || subword):
		m.extend(sp)
	case subword:
		// orphan subword with nothing open is discarded
	default:
		m.flushAndOpen(sp, label)
	}
}

func (m *merger) extend(sp RawSpan) {
	m.acc.Text += strings.TrimPrefix(sp.Word, subwordPrefix)
	m.acc.End = sp.End
	m.score.add(sp.Score, sp.Word)
	m.acc.Confidence = m.score.value
}

func (m *merger) flushAndOpen(sp RawSpan, label Label) {
	m.flush()
	m.isOpen = true
	m.score = newScoreAcc(m.mode, sp.Score, sp.Word)
	m.acc = Entity{
		Text:       sp.Word,
		Label:      label,
		Confidence: m.score.value,
		Start:      sp.Start,
		End:        sp.End,
	}
}

func (m *merger) flush() {
	if !m.isOpen {
		return
	}
	m.out = append(m.out, m.acc)
	m.isOpen = false
}
