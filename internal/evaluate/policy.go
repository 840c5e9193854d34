// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"math"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// ConfidenceUncertain is the confidence flag that forces escalation.
const ConfidenceUncertain = "uncertain"

// EscalationPolicy bounds the total-score band in which a cheap verdict
// is not trusted.
type EscalationPolicy struct {
	UncertainLow  float64
	UncertainHigh float64
}

// PolicyFrom reads the band from the evaluation settings.
func PolicyFrom(cfg types.EvaluationConfig) EscalationPolicy {
	return EscalationPolicy{UncertainLow: cfg.UncertainLow, UncertainHigh: cfg.UncertainHigh}
}

// ShouldEscalate is the single rule deciding whether a cheap scoring
// result goes to the strong scorer: any error, any missing dimension, an
// uncertain confidence flag, or a total inside the uncertain band.
func ShouldEscalate(resp ScoreResponse, err error, p EscalationPolicy) bool {
	if err != nil || resp.Missing() {
		return true
	}
	if resp.Confidence == ConfidenceUncertain {
		return true
	}
	scores, _ := Backfill(resp)
	total := scores.Total()
	return total >= p.UncertainLow && total <= p.UncertainHigh
}

// Backfill completes a response into four scores. A missing relevance is
// the mean of authenticity and reliability; any other missing dimension
// is the mean of the dimensions that were present. It returns false when
// no dimension was present.
func Backfill(resp ScoreResponse) (types.Scores, bool) {
	var present []float64
	for _, v := range []*float64{resp.Authenticity, resp.Reliability, resp.Relevance, resp.Currency} {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return types.Scores{}, false
	}
	fill := round1(mean(present...))

	s := types.Scores{
		Authenticity: valueOr(resp.Authenticity, fill),
		Reliability:  valueOr(resp.Reliability, fill),
		Currency:     valueOr(resp.Currency, fill),
	}
	if resp.Relevance != nil {
		s.Relevance = *resp.Relevance
	} else {
		s.Relevance = round1(mean(s.Authenticity, s.Reliability))
	}
	return s, true
}

// Accept applies the acceptance rule. Both thresholds must be cleared; a
// relevance failure is reported ahead of a total failure.
func Accept(s types.Scores, cfg types.EvaluationConfig) (bool, types.RejectionReason) {
	switch {
	case s.Relevance < cfg.RelevanceScoreThreshold:
		return false, types.RejectBelowRelevance
	case s.Total() < cfg.TotalScoreThreshold:
		return false, types.RejectBelowTotal
	default:
		return true, types.RejectNone
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func mean(vs ...float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
