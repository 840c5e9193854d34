// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gate decides after each iteration whether the accepted sources
// are good enough, and if not, how the next iteration should search.
//
// Decide is a pure fold: the decision for iteration n depends only on the
// decision for n-1 and the sources scored in iteration n. Because a retry
// is only ever chosen while the iteration is below the retry limit, the
// loop ends after at most MaxRetries+1 iterations.
package gate

import (
	"math"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// Scored is one evaluated source from the current iteration.
type Scored struct {
	Result  types.SearchResult
	Verdict types.EvaluationVerdict
	Excerpt string
}

// Batch is everything an iteration produced.
type Batch struct {
	Variants   []string
	RawResults int
	Scored     []Scored
}

// Sufficiency decides whether the accumulated sources are good enough.
type Sufficiency func(s types.IterationStats, cfg types.GateConfig) bool

// Default requires the accepted-source floor and at least one elite or
// premium source. An unbounded floor waives both checks.
func Default(s types.IterationStats, cfg types.GateConfig) bool {
	unbounded := cfg.Unbounded()
	meetsFloor := unbounded || s.Accepted >= cfg.MinAcceptedSources
	return meetsFloor && (s.EliteSources > 0 || unbounded)
}

// Strict is Default plus the source-mix checks: it fails while any
// blocking quality issue remains, even when the floor is unbounded.
func Strict(s types.IterationStats, cfg types.GateConfig) bool {
	return Default(s, cfg) && !HasBlocking(s.Issues)
}

// CountOnly requires the accepted-source floor and nothing else.
func CountOnly(s types.IterationStats, cfg types.GateConfig) bool {
	return cfg.Unbounded() || s.Accepted >= cfg.MinAcceptedSources
}

// Decide folds b into prev. Pass the zero GateDecision for the first
// iteration. Sources already accepted are kept and never added twice.
// A nil sufficient uses Default.
func Decide(prev types.GateDecision, b Batch, cfg types.GateConfig, sufficient Sufficiency) types.GateDecision {
	if sufficient == nil {
		sufficient = Default
	}
	iteration := 0
	if prev.NextAction != "" {
		iteration = prev.Iteration + 1
	}

	accepted := make([]types.AcceptedSource, len(prev.AcceptedSources), len(prev.AcceptedSources)+len(b.Scored))
	copy(accepted, prev.AcceptedSources)
	seen := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		seen[a.Result.URL] = true
	}

	stats := types.IterationStats{
		Variants:   append([]string(nil), b.Variants...),
		RawResults: b.RawResults,
		Evaluated:  len(b.Scored),
	}
	for _, s := range b.Scored {
		if !s.Verdict.Accepted {
			if s.Verdict.RejectionReason != types.RejectNone {
				if stats.Rejections == nil {
					stats.Rejections = make(map[types.RejectionReason]int)
				}
				stats.Rejections[s.Verdict.RejectionReason]++
			}
			continue
		}
		if seen[s.Result.URL] {
			continue
		}
		seen[s.Result.URL] = true
		accepted = append(accepted, types.AcceptedSource{Result: s.Result, Verdict: s.Verdict, Excerpt: s.Excerpt})
		stats.NewlyAccepted++
	}

	tiers := make(map[types.Tier]bool)
	for _, a := range accepted {
		tiers[a.Result.Tier] = true
		if a.Result.Tier.Authoritative() {
			stats.EliteSources++
		}
	}
	stats.Accepted = len(accepted)
	stats.DistinctTiers = len(tiers)

	q := Assess(accepted, cfg)
	stats.AvgReliability = q.AvgReliability
	stats.Diversity = q.Diversity
	stats.Issues = q.Issues

	d := types.GateDecision{
		Iteration:       iteration,
		AcceptedSources: accepted,
		Sufficient:      sufficient(stats, cfg),
		Stats:           stats,
	}
	switch {
	case d.Sufficient:
		d.NextAction = types.ActionStop
	case iteration < cfg.MaxRetries:
		d.NextAction = types.ActionRetry
		d.StrategyHint = ChooseHint(stats, cfg)
	default:
		d.NextAction = types.ActionStopExhausted
	}
	return d
}

// ChooseHint picks how the next iteration mutates its queries: broaden
// when the backends returned too little, narrow when most rejections were
// for relevance, otherwise swap terms.
func ChooseHint(s types.IterationStats, cfg types.GateConfig) types.StrategyHint {
	if s.RawResults < cfg.MinRawResults {
		return types.HintBroaden
	}
	total := 0
	for _, n := range s.Rejections {
		total += n
	}
	if total > 0 && 2*s.Rejections[types.RejectBelowRelevance] >= total {
		return types.HintNarrow
	}
	return types.HintSwapTerms
}

// Exhaust ends the loop early, for example when no search backend is
// left. The accepted sources are kept.
func Exhaust(d types.GateDecision) types.GateDecision {
	if d.NextAction == types.ActionStop {
		return d
	}
	d.NextAction = types.ActionStopExhausted
	d.StrategyHint = types.HintNone
	return d
}

// Status maps the final decision to the caller-facing status.
func Status(d types.GateDecision) types.SufficiencyStatus {
	if d.Sufficient {
		return types.StatusSufficient
	}
	return types.StatusBestEffort
}

// Confidence is the mean of reliability and relevance over the accepted
// sources, rounded to one decimal; zero when nothing was accepted.
func Confidence(sources []types.AcceptedSource) float64 {
	if len(sources) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sources {
		sum += (s.Verdict.Scores.Reliability + s.Verdict.Scores.Relevance) / 2
	}
	return math.Round(sum/float64(len(sources))*10) / 10
}
