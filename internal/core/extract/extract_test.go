package extract

import (
	"context"
	"errors"
	"math"
	"testing"

	perr "helix/internal/platform/errors"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func staticClassifier(spans ...RawSpan) Classifier {
	return ClassifierFunc(func(context.Context, string) ([]RawSpan, error) { return spans, nil })
}

func TestMerge_SubwordFragments(t *testing.T) {
	got := Merge([]RawSpan{
		{Word: "hyper", Label: "DISEASE_DISORDER", Score: 0.99, Start: 12, End: 17},
		{Word: "##tension", Label: "DISEASE_DISORDER", Score: 0.98, Start: 17, End: 24},
	}, Mean)

	if len(got) != 1 {
		t.Fatalf("expected 1 entity, got %+v", got)
	}
	e := got[0]
	if e.Text != "hypertension" || e.Label != Disease || e.Start != 12 || e.End != 24 || !near(e.Confidence, 0.985) {
		t.Fatalf("unexpected entity %+v", e)
	}
}

func TestMerge_Table(t *testing.T) {
	cases := []struct {
		name  string
		spans []RawSpan
		want  []Entity
	}{
		{
			name: "orphan subword discarded",
			spans: []RawSpan{
				{Word: "##itis", Label: "DISEASE_DISORDER", Score: 0.9, Start: 0, End: 4},
			},
			want: []Entity{},
		},
		{
			name: "stopword header never emitted",
			spans: []RawSpan{
				{Word: "Diagnosis:", Label: "DIAGNOSTIC_PROCEDURE", Score: 0.7, Start: 0, End: 10},
				{Word: "asthma", Label: "DISEASE_DISORDER", Score: 0.95, Start: 11, End: 17},
			},
			want: []Entity{{Text: "asthma", Label: Disease, Confidence: 0.95, Start: 11, End: 17}},
		},
		{
			name: "unknown labels never contribute",
			spans: []RawSpan{
				{Word: "left", Label: "Biological_structure", Score: 0.9, Start: 0, End: 4},
				{Word: "##arm", Label: "Biological_structure", Score: 0.9, Start: 4, End: 7},
				{Word: "aspirin", Label: "Medication", Score: 0.9, Start: 8, End: 15},
			},
			want: []Entity{{Text: "aspirin", Label: Medication, Confidence: 0.9, Start: 8, End: 15}},
		},
		{
			name: "adjacent merge keeps opening label",
			spans: []RawSpan{
				{Word: "10", Label: "DOSAGE", Score: 0.8, Start: 5, End: 7},
				{Word: "mg", Label: "MEDICATION", Score: 0.6, Start: 7, End: 9},
			},
			want: []Entity{{Text: "10mg", Label: Dosage, Confidence: 0.7, Start: 5, End: 9}},
		},
		{
			name: "gap opens new entity",
			spans: []RawSpan{
				{Word: "chest", Label: "Sign_symptom", Score: 0.9, Start: 0, End: 5},
				{Word: "pain", Label: "Sign_symptom", Score: 0.8, Start: 6, End: 10},
			},
			want: []Entity{
				{Text: "chest", Label: Disease, Confidence: 0.9, Start: 0, End: 5},
				{Text: "pain", Label: Disease, Confidence: 0.8, Start: 6, End: 10},
			},
		},
		{
			name: "subword after gap still merges",
			spans: []RawSpan{
				{Word: "metf", Label: "MEDICATION", Score: 0.9, Start: 0, End: 4},
				{Word: "##ormin", Label: "MEDICATION", Score: 0.6, Start: 5, End: 10},
			},
			want: []Entity{{Text: "metformin", Label: Medication, Confidence: 0.75, Start: 0, End: 10}},
		},
		{
			name:  "empty input",
			spans: nil,
			want:  []Entity{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Merge(tc.spans, Mean)
			if got == nil {
				t.Fatalf("Merge returned nil slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			for i := range got {
				g, w := got[i], tc.want[i]
				if g.Text != w.Text || g.Label != w.Label || g.Start != w.Start || g.End != w.End || !near(g.Confidence, w.Confidence) {
					t.Fatalf("entity %d = %+v, want %+v", i, g, w)
				}
			}
		})
	}
}

func TestMerge_AveragingModes(t *testing.T) {
	spans := []RawSpan{
		{Word: "a", Label: "Dosage", Score: 1.0, Start: 0, End: 1},
		{Word: "##bc", Label: "Dosage", Score: 0.5, Start: 1, End: 3},
		{Word: "##d", Label: "Dosage", Score: 0.2, Start: 3, End: 4},
	}
	cases := []struct {
		mode Averaging
		want float64
	}{
		{Mean, (1.0 + 0.5 + 0.2) / 3},
		{Pairwise, ((1.0+0.5)/2 + 0.2) / 2},
		{LengthWeighted, (1.0*1 + 0.5*2 + 0.2*1) / 4},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			got := Merge(spans, tc.mode)
			if len(got) != 1 || got[0].Text != "abcd" || !near(got[0].Confidence, tc.want) {
				t.Fatalf("got %+v, want confidence %v", got, tc.want)
			}
		})
	}
}

func TestExtract_SingleSpan(t *testing.T) {
	ex := New(staticClassifier(RawSpan{Word: "hypertension", Label: "DISEASE_DISORDER", Score: 0.97, Start: 12, End: 24}))
	got, err := ex.Extract(context.Background(), "Patient has hypertension.")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0].Confidence != 0.97 || got[0].Label != Disease {
		t.Fatalf("got %+v", got)
	}
}

func TestExtract_ClassifierFailure(t *testing.T) {
	boom := errors.New("model offline")
	ex := New(ClassifierFunc(func(context.Context, string) ([]RawSpan, error) {
		return []RawSpan{{Word: "x", Label: "DOSAGE"}}, boom
	}), WithAveraging(Pairwise))

	got, err := ex.Extract(context.Background(), "x")
	if got != nil {
		t.Fatalf("expected no partial result, got %+v", got)
	}
	if !perr.IsCode(err, perr.ErrorCodeExtraction) || !errors.Is(err, boom) {
		t.Fatalf("expected extraction error wrapping cause, got %v", err)
	}
	if ex.Averaging() != Pairwise {
		t.Fatalf("averaging option not applied")
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"Diagnosis", "HISTORY:", "plan.", " Medications; ", "ID", "Date!"} {
		if !IsStopword(w) {
			t.Fatalf("%q should be a stopword", w)
		}
	}
	for _, w := range []string{"asthma", "planned", "identity"} {
		if IsStopword(w) {
			t.Fatalf("%q should not be a stopword", w)
		}
	}
}

func TestLabels(t *testing.T) {
	if Disease.Wire() != "Target: Disease" {
		t.Fatalf("wire = %q", Disease.Wire())
	}
	for _, l := range []Label{Disease, Medication, Dosage} {
		back, err := ParseWireLabel(l.Wire())
		if err != nil || back != l {
			t.Fatalf("round trip %s = %s %v", l, back, err)
		}
	}
	if _, err := ParseWireLabel("Target: Other"); err == nil {
		t.Fatalf("expected error for unknown wire label")
	}
	if _, ok := NormalizeLabel("Sign_symptom"); !ok {
		t.Fatalf("Sign_symptom should normalize")
	}
}

func TestParseAveraging(t *testing.T) {
	for _, name := range AveragingNames() {
		a, err := ParseAveraging(name)
		if err != nil || a.String() != name {
			t.Fatalf("ParseAveraging(%q) = %v %v", name, a, err)
		}
	}
	if a, err := ParseAveraging(""); err != nil || a != Mean {
		t.Fatalf("empty should be Mean")
	}
	if _, err := ParseAveraging("median"); err == nil {
		t.Fatalf("expected error")
	}
}
