package extract

import (
	"context"
	"fmt"
)

// Label is a canonical entity category
type Label string

// Canonical labels
const (
	Disease    Label = "Disease"
	Medication Label = "Medication"
	Dosage     Label = "Dosage"
)

// Wire returns the label as persisted, e.g. "Target: Disease"
func (l Label) Wire() string { return "Target: " + string(l) }

// ParseWireLabel reverses Wire
func ParseWireLabel(s string) (Label, error) {
	switch s {
	case Disease.Wire():
		return Disease, nil
	case Medication.Wire():
		return Medication, nil
	case Dosage.Wire():
		return Dosage, nil
	}
	return "", fmt.Errorf("extract: unknown wire label %q", s)
}

// RawSpan is one fragment as returned by a classifier. Offsets count characters (runes) of the classified text
type RawSpan struct {
	Word  string
	Label string
	Score float64
	Start int
	End   int
}

// Entity is a merged, normalized clinical entity
type Entity struct {
	Text       string
	Label      Label
	Confidence float64
	Start      int
	End        int
}

// Classifier is the token-classification capability the extractor delegates to
type Classifier interface {
	Classify(ctx context.Context, text string) ([]RawSpan, error)
}

// ClassifierFunc adapts a function to Classifier
type ClassifierFunc func(ctx context.Context, text string) ([]RawSpan, error)

// Classify calls f
func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]RawSpan, error) {
	return f(ctx, text)
}
