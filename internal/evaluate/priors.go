// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// Priors are cheap heuristic estimates passed to the scorer as hints.
type Priors struct {
	// Relevance is keyword overlap between topic and title+snippet, 0-10.
	Relevance float64

	// Year is the most recent plausible year in the result, 0 if none.
	Year int

	// Currency is derived from Year, 0 when Year is unknown.
	Currency float64
}

var yearPattern = regexp.MustCompile(`\b(19[89]\d|20\d\d)\b`)

// ComputePriors derives the heuristic hints for one result.
func ComputePriors(topic string, r types.SearchResult, excerpt string, now time.Time) Priors {
	p := Priors{Relevance: overlapRelevance(topic, r.Title+" "+r.Snippet)}
	p.Year = latestYear(r.Title+" "+r.Snippet+" "+excerpt, now.Year())
	if p.Year > 0 {
		p.Currency = currencyFor(now.Year() - p.Year)
	}
	return p
}

// overlapRelevance is the Jaccard similarity of the token sets scaled so
// that a 40% overlap already reaches the top of the range.
func overlapRelevance(topic, text string) float64 {
	a, b := tokenSet(topic), tokenSet(text)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return math.Min(10, round1(float64(inter)/float64(union)*25))
}

func latestYear(text string, current int) int {
	best := 0
	for _, m := range yearPattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y > current {
			continue
		}
		if y > best {
			best = y
		}
	}
	return best
}

func currencyFor(age int) float64 {
	switch {
	case age <= 0:
		return 9
	case age == 1:
		return 8
	case age == 2:
		return 6
	case age == 3:
		return 5
	default:
		return 3
	}
}
