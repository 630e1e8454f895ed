// Package lexicon adapts the clinical dictionary to the extract.Classifier contract.
// Spans carry model-style raw labels and character offsets, the same shape the hosted endpoint returns
package lexicon

import (
	"context"
	"unicode/utf8"

	"helix/internal/core/extract"
	lx "helix/internal/core/lexicon"
)

// Classifier is a deterministic, offline classifier
type Classifier struct {
	lex *lx.Lexicon
}

var _ extract.Classifier = (*Classifier)(nil)

// New wraps a compiled lexicon
func New(l *lx.Lexicon) *Classifier { return &Classifier{lex: l} }

// Open loads path when set, else the embedded dictionary
func Open(path string) (*Classifier, error) {
	var (
		l   *lx.Lexicon
		err error
	)
	if path != "" {
		l, err = lx.LoadFile(path)
	} else {
		l, err = lx.Load()
	}
	if err != nil {
		return nil, err
	}
	return New(l), nil
}

// Classify never fails once the lexicon is compiled; it still honors cancellation
func (c *Classifier) Classify(ctx context.Context, text string) ([]extract.RawSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ms := c.lex.Find(text)
	out := make([]extract.RawSpan, 0, len(ms))
	for _, m := range ms {
		out = append(out, extract.RawSpan{
			Word:  text[m.Start:m.End],
			Label: m.Label,
			Score: m.Score,
			Start: utf8.RuneCountInString(text[:m.Start]),
			End:   utf8.RuneCountInString(text[:m.End]),
		})
	}
	return out, nil
}
