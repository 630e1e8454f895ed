package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func mustLoad(t *testing.T) *Lexicon {
	t.Helper()
	lx, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return lx
}

func TestLoad_Embedded(t *testing.T) {
	lx := mustLoad(t)
	if lx.Version != 1 || len(lx.Terms) == 0 {
		t.Fatalf("unexpected lexicon %+v", lx.Version)
	}
	found := false
	for _, term := range lx.Terms {
		if term.Text == "myocardial infarction" && term.Label == "DISEASE_DISORDER" {
			found = true
		}
	}
	if !found {
		t.Fatalf("myocardial infarction missing")
	}
}

func TestFind_Table(t *testing.T) {
	lx := mustLoad(t)

	type want struct {
		text  string
		label string
	}
	cases := []struct {
		name string
		in   string
		want []want
	}{
		{
			name: "single disease",
			in:   "Patient has hypertension.",
			want: []want{{"hypertension", "DISEASE_DISORDER"}},
		},
		{
			name: "case insensitive with medication and dosage",
			in:   "Started Lisinopril 10 mg for Hypertension",
			want: []want{
				{"Lisinopril", "MEDICATION"},
				{"10 mg", "DOSAGE"},
				{"Hypertension", "DISEASE_DISORDER"},
			},
		},
		{
			name: "longest match wins",
			in:   "history of type 2 diabetes",
			want: []want{{"type 2 diabetes", "DISEASE_DISORDER"}},
		},
		{
			name: "word boundary respected",
			in:   "asthmatic and prehypertension",
			want: nil,
		},
		{
			name: "symptom phrase",
			in:   "complains of chest pain and wheezing.",
			want: []want{{"chest pain", "Sign_symptom"}, {"wheezing", "Sign_symptom"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lx.Find(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("Find(%q) = %+v, want %d matches", tc.in, got, len(tc.want))
			}
			for i, w := range tc.want {
				if s := tc.in[got[i].Start:got[i].End]; s != w.text || got[i].Label != w.label {
					t.Fatalf("match %d = %q/%s, want %q/%s", i, s, got[i].Label, w.text, w.label)
				}
			}
		})
	}
}

func TestFind_OffsetsSurviveNonASCII(t *testing.T) {
	lx := mustLoad(t)
	in := "Café patient with asthma"
	got := lx.Find(in)
	if len(got) != 1 || in[got[0].Start:got[0].End] != "asthma" {
		t.Fatalf("Find = %+v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("version: 2\n")); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := Parse([]byte("version: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
	bad := "version: 1\ndosage:\n  label: DOSAGE\n  pattern: '(('\n"
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected regex error")
	}
}

func TestLoadFile_Override(t *testing.T) {
	p := filepath.Join(t.TempDir(), "lx.yaml")
	doc := "version: 1\nlabels:\n  MEDICATION:\n    score: 1.7\n    terms: [\"  Zyrtec  \", zyrtec]\n"
	if err := os.WriteFile(p, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	lx, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(lx.Terms) != 1 || lx.Terms[0].Text != "zyrtec" || lx.Terms[0].Score != 1 {
		t.Fatalf("terms = %+v", lx.Terms)
	}
	if got := lx.Find("took ZYRTEC 10 mg"); len(got) != 1 {
		t.Fatalf("override without dosage should only find the drug, got %+v", got)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  Chest   PAIN "); got != "chest pain" {
		t.Fatalf("Fold = %q", got)
	}
}
