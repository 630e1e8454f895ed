// Package lexicon loads the clinical dictionary and matches its terms in free text.
// It backs the offline classifier and is deterministic by construction
package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var embedded []byte

type rawLabel struct {
	Score float64  `yaml:"score"`
	Terms []string `yaml:"terms"`
}

type rawDosage struct {
	Label   string  `yaml:"label"`
	Score   float64 `yaml:"score"`
	Pattern string  `yaml:"pattern"`
}

type rawLexicon struct {
	Version int                 `yaml:"version"`
	Labels  map[string]rawLabel `yaml:"labels"`
	Dosage  rawDosage           `yaml:"dosage"`
}

// Term is one dictionary entry
type Term struct {
	Text  string // folded form
	Label string // raw model label, e.g. DISEASE_DISORDER
	Score float64
}

// Match is one located term in the scanned text. Start and End are byte offsets
type Match struct {
	Label string
	Score float64
	Start int
	End   int
}

// Lexicon is a compiled dictionary; safe for concurrent use after Load
type Lexicon struct {
	Version int
	Terms   []Term

	ac          *automaton
	dosage      *regexp.Regexp
	dosageLabel string
	dosageScore float64
}

// Load compiles the embedded dictionary
func Load() (*Lexicon, error) { return Parse(embedded) }

// LoadFile compiles a dictionary from path, replacing the embedded one
func LoadFile(path string) (*Lexicon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: read %s: %w", path, err)
	}
	return Parse(b)
}

// Parse compiles a dictionary document
func Parse(b []byte) (*Lexicon, error) {
	var raw rawLexicon
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("lexicon: parse: %w", err)
	}
	if raw.Version != 1 {
		return nil, fmt.Errorf("lexicon: unsupported version %d (want 1)", raw.Version)
	}

	lx := &Lexicon{Version: raw.Version, ac: newAutomaton()}

	// deterministic ids regardless of map order
	labels := make([]string, 0, len(raw.Labels))
	for l := range raw.Labels {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	seen := make(map[string]struct{}, 256)
	for _, label := range labels {
		blk := raw.Labels[label]
		for _, t := range blk.Terms {
			f := Fold(t)
			if f == "" || !isASCII(f) {
				continue
			}
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			lx.ac.add([]byte(f), len(lx.Terms))
			lx.Terms = append(lx.Terms, Term{Text: f, Label: label, Score: clamp01(blk.Score)})
		}
	}
	lx.ac.build()

	if raw.Dosage.Pattern != "" {
		re, err := regexp.Compile(raw.Dosage.Pattern)
		if err != nil {
			return nil, fmt.Errorf("lexicon: dosage pattern: %w", err)
		}
		lx.dosage = re
		lx.dosageLabel = raw.Dosage.Label
		lx.dosageScore = clamp01(raw.Dosage.Score)
	}
	return lx, nil
}

// Fold normalizes a dictionary term: NFC, unicode case fold, single spaces
func Fold(s string) string {
	out, _, err := transform.String(transform.Chain(norm.NFC, cases.Fold()), s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Find returns non-overlapping matches ordered by start. On overlap the longest
// match wins, then the leftmost. Offsets index into text as given
func (lx *Lexicon) Find(text string) []Match {
	hay := asciiLower(text)

	var all []Match
	lx.ac.findAll(hay, func(end, id int) {
		t := lx.Terms[id]
		start := end - len(t.Text)
		if !boundaryOK(text, start, end) {
			return
		}
		all = append(all, Match{Label: t.Label, Score: t.Score, Start: start, End: end})
	})
	if lx.dosage != nil {
		for _, loc := range lx.dosage.FindAllStringIndex(text, -1) {
			all = append(all, Match{Label: lx.dosageLabel, Score: lx.dosageScore, Start: loc[0], End: loc[1]})
		}
	}
	return pickNonOverlapping(all)
}

func pickNonOverlapping(all []Match) []Match {
	sort.SliceStable(all, func(i, j int) bool {
		li, lj := all[i].End-all[i].Start, all[j].End-all[j].Start
		if li != lj {
			return li > lj
		}
		return all[i].Start < all[j].Start
	})
	var kept []Match
	for _, m := range all {
		overlap := false
		for _, k := range kept {
			if m.Start < k.End && k.Start < m.End {
				overlap = true
				break
			}
		}
		if !overlap {
			kept = append(kept, m)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

// asciiLower lowercases A-Z only so byte offsets stay aligned with the input
func asciiLower(s string) []byte {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return b
}

func boundaryOK(s string, start, end int) bool {
	var prev, next rune
	if start > 0 {
		prev, _ = utf8.DecodeLastRuneInString(s[:start])
	}
	if end < len(s) {
		next, _ = utf8.DecodeRuneInString(s[end:])
	}
	return !isWord(prev) && !isWord(next)
}

// isWord treats letters, numbers, combining marks and connector punctuation as word characters
func isWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.In(r, unicode.Mn, unicode.Pc)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
