// Package redact removes identifying information from clinical note text.
//
// Redaction is an ordered list of pure passes. Each pass scans left to right and replaces
// leftmost, non-overlapping matches. Placeholders never match a later pass, so running the
// pipeline twice gives the same text as running it once.
//
// Order
// 1 name following an "ID: <digits>." prefix -> [NAME] (digits are left for pass 3)
// 2 numeric dates such as 01/02/2024 or 1-2-24 -> [DATE]
// 3 standalone five digit tokens -> [ID]
// 4 one or two capitalized words after "Patient ", "Dr. ", "for ", "evaluated " -> [NAME]
//
// Detection is heuristic. Any standalone five digit number is treated as an identifier,
// including lab values and zip codes.
package redact

import (
	"regexp"
	"strings"
)

// Placeholders written in place of redacted spans
const (
	NamePlaceholder = "[NAME]"
	DatePlaceholder = "[DATE]"
	IDPlaceholder   = "[ID]"
)

// Pass is one named, pure text transform
type Pass struct {
	Name  string
	Apply func(string) string
}

// Redactor runs its passes in order
type Redactor struct {
	passes []Pass
}

var (
	nameAfterIDRe = regexp.MustCompile(`ID:\s*\d+\.\s+([A-Z][a-z]+(\s[A-Z][a-z]+)?)`)
	dateRe        = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	identifierRe  = regexp.MustCompile(`\b\d{5}\b`)

	// roleMarkers are applied one after another in this order
	roleMarkers = []string{"Patient ", "Dr. ", "for ", "evaluated "}
)

// DefaultPasses returns the standard pipeline in order
func DefaultPasses() []Pass {
	out := []Pass{
		{Name: "name_after_id", Apply: func(s string) string {
			return replaceGroup(nameAfterIDRe, s, 1, NamePlaceholder)
		}},
		{Name: "date", Apply: func(s string) string {
			return dateRe.ReplaceAllLiteralString(s, DatePlaceholder)
		}},
		{Name: "identifier", Apply: func(s string) string {
			return identifierRe.ReplaceAllLiteralString(s, IDPlaceholder)
		}},
	}
	for _, m := range roleMarkers {
		out = append(out, rolePass(m))
	}
	return out
}

// rolePass captures the marker and re-emits it, since RE2 has no lookbehind.
// The name must end on a word boundary so a placeholder never lands against trailing digits
func rolePass(marker string) Pass {
	re := regexp.MustCompile(regexp.QuoteMeta(marker) + `([A-Z][a-z]+(\s[A-Z][a-z]+)?)\b`)
	return Pass{
		Name:  "role:" + strings.TrimSpace(marker),
		Apply: func(s string) string { return replaceGroup(re, s, 1, NamePlaceholder) },
	}
}

// New builds a Redactor over passes; with none it uses DefaultPasses
func New(passes ...Pass) *Redactor {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	return &Redactor{passes: append([]Pass(nil), passes...)}
}

// Passes returns a copy of the configured pipeline
func (r *Redactor) Passes() []Pass { return append([]Pass(nil), r.passes...) }

// Deidentify applies every pass in order. It is total: any input yields an output
func (r *Redactor) Deidentify(text string) string {
	for _, p := range r.passes {
		text = p.Apply(text)
	}
	return text
}

var std = New()

// Deidentify runs the default pipeline
func Deidentify(text string) string { return std.Deidentify(text) }

// replaceGroup rewrites only submatch group of every match of re, keeping the rest of the match
func replaceGroup(re *regexp.Regexp, s string, group int, repl string) string {
	idx := re.FindAllStringSubmatchIndex(s, -1)
	if len(idx) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range idx {
		gs, ge := m[2*group], m[2*group+1]
		if gs < 0 {
			continue
		}
		b.WriteString(s[last:gs])
		b.WriteString(repl)
		last = ge
	}
	b.WriteString(s[last:])
	return b.String()
}
