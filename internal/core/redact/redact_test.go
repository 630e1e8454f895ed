package redact

import (
	"math/rand"
	"strings"
	"testing"
)

func TestDeidentify_Table(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "name after id keeps digits for identifier pass",
			in:   "ID: 12345. Tyler Benson complains of worsening asthma.",
			want: "ID: [ID]. [NAME] complains of worsening asthma.",
		},
		{
			name: "patient marker and date",
			in:   "Patient Jane Roe seen on 01/02/2024.",
			want: "Patient [NAME] seen on [DATE].",
		},
		{
			name: "dash dates and two digit year",
			in:   "Follow up 3-14-25 and 12/1/2024.",
			want: "Follow up [DATE] and [DATE].",
		},
		{
			name: "doctor single word",
			in:   "Referred by Dr. Smith today.",
			want: "Referred by Dr. [NAME] today.",
		},
		{
			name: "doctor two words",
			in:   "Seen by Dr. Alan Grant.",
			want: "Seen by Dr. [NAME].",
		},
		{
			name: "for and evaluated markers",
			in:   "Refill for Maria Lopez. Later evaluated Tom in clinic.",
			want: "Refill for [NAME]. Later evaluated [NAME] in clinic.",
		},
		{
			name: "lowercase after marker untouched",
			in:   "Patient reports chest pain for two days.",
			want: "Patient reports chest pain for two days.",
		},
		{
			name: "four and six digit numbers are not identifiers",
			in:   "Glucose 1234 and count 123456 but MRN 54321.",
			want: "Glucose 1234 and count 123456 but MRN [ID].",
		},
		{
			name: "multiple id prefixes",
			in:   "ID: 11111. Ann Lee; ID: 22222. Bo Chan",
			want: "ID: [ID]. [NAME]; ID: [ID]. [NAME]",
		},
		{
			name: "role name running into digits is left whole",
			in:   "evaluated Dr. Roe12345 and Patient Roe1/2/24",
			want: "evaluated [NAME]. Roe12345 and Patient Roe1/2/24",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Deidentify(tc.in); got != tc.want {
				t.Fatalf("Deidentify(%q)\n got  %q\n want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeidentify_Idempotent(t *testing.T) {
	inputs := []string{
		"ID: 12345. Tyler Benson complains of worsening asthma.",
		"Patient Jane Roe seen on 01/02/2024 by Dr. Alan Grant for Sam.",
		"evaluated Kim Park, MRN 99999, DOB 7-4-1990",
		"nothing to redact here",
	}
	for _, in := range inputs {
		once := Deidentify(in)
		twice := Deidentify(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\n once  %q\n twice %q", in, once, twice)
		}
	}
}

func TestDeidentify_IdempotentGenerated(t *testing.T) {
	tokens := []string{
		"ID: ", "12345", "1/2/24", "01-02-2024", "7", "99", ". ", " ", "\n", ",",
		"Patient ", "Dr. ", "for ", "evaluated ", "Roe", "Ann Lee", "Smith", "reports", "/", "-",
		"[NAME]", "[ID]", "x",
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		var b strings.Builder
		for n := rng.Intn(12); n >= 0; n-- {
			b.WriteString(tokens[rng.Intn(len(tokens))])
		}
		in := b.String()
		once := Deidentify(in)
		if twice := Deidentify(once); twice != once {
			t.Fatalf("not idempotent for %q:\n once  %q\n twice %q", in, once, twice)
		}
	}
}

func TestPasses_OrderAndCopy(t *testing.T) {
	r := New()
	ps := r.Passes()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	want := "name_after_id,date,identifier,role:Patient,role:Dr.,role:for,role:evaluated"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("pass order = %s", got)
	}

	ps[0] = Pass{Name: "x", Apply: func(string) string { return "" }}
	if r.Deidentify("ID: 1. Ann") == "" {
		t.Fatalf("mutating the returned slice changed the redactor")
	}
}

func TestNew_CustomPasses(t *testing.T) {
	upper := Pass{Name: "upper", Apply: strings.ToUpper}
	r := New(upper)
	if got := r.Deidentify("abc"); got != "ABC" {
		t.Fatalf("custom pass = %q", got)
	}
}
