package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Averaging selects how fragment scores combine into an entity confidence
type Averaging int

const (
	// Mean is the unweighted mean of every merged score
	Mean Averaging = iota
	// Pairwise halves toward each new score: (acc+score)/2
	Pairwise
	// LengthWeighted weighs each score by its fragment's rune length
	LengthWeighted
)

var averagingNames = [...]string{
	Mean:           "mean",
	Pairwise:       "pairwise",
	LengthWeighted: "length_weighted",
}

// AveragingNames lists accepted configuration values
func AveragingNames() []string { return averagingNames[:] }

func (a Averaging) String() string {
	if int(a) >= 0 && int(a) < len(averagingNames) {
		return averagingNames[a]
	}
	return fmt.Sprintf("averaging(%d)", int(a))
}

// ParseAveraging maps a config value to an Averaging; empty means Mean
func ParseAveraging(s string) (Averaging, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Mean, nil
	}
	for i, n := range averagingNames {
		if s == n {
			return Averaging(i), nil
		}
	}
	return Mean, fmt.Errorf("extract: unknown averaging %q", s)
}

// scoreAcc accumulates fragment scores for one open entity
type scoreAcc struct {
	mode   Averaging
	value  float64
	sum    float64
	weight float64
	n      int
}

func newScoreAcc(mode Averaging, score float64, word string) scoreAcc {
	a := scoreAcc{mode: mode}
	a.add(score, word)
	return a
}

func (a *scoreAcc) add(score float64, word string) {
	a.n++
	switch a.mode {
	case Pairwise:
		if a.n == 1 {
			a.value = score
		} else {
			a.value = (a.value + score) / 2
		}
	case LengthWeighted:
		w := float64(max(1, utf8.RuneCountInString(strings.TrimPrefix(word, subwordPrefix))))
		a.sum += score * w
		a.weight += w
		a.value = a.sum / a.weight
	default:
		a.sum += score
		a.value = a.sum / float64(a.n)
	}
}
