// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"time"
)

// Scores holds the four quality dimensions, each in [0, 10].
type Scores struct {
	Authenticity float64 `json:"authenticity" yaml:"authenticity"`
	Reliability  float64 `json:"reliability" yaml:"reliability"`
	Relevance    float64 `json:"relevance" yaml:"relevance"`
	Currency     float64 `json:"currency" yaml:"currency"`
}

// Total returns the mean of the four dimensions rounded to one decimal.
func (s Scores) Total() float64 {
	mean := (s.Authenticity + s.Reliability + s.Relevance + s.Currency) / 4
	return math.Round(mean*10) / 10
}

// EvaluationStage records the path a source took through the evaluator.
type EvaluationStage string

const (
	StageFastTracked   EvaluationStage = "fast_tracked"
	StageTriaged       EvaluationStage = "triaged"
	StageEscalated     EvaluationStage = "escalated"
	StageBlockedDomain EvaluationStage = "blocked_domain"
	StageFailed        EvaluationStage = "failed"
)

// RejectionReason explains why a source was not accepted.
type RejectionReason string

const (
	RejectNone             RejectionReason = ""
	RejectBelowRelevance   RejectionReason = "below_relevance_threshold"
	RejectBelowTotal       RejectionReason = "below_total_threshold"
	RejectEvaluationFailed RejectionReason = "evaluation_failed"
	RejectBlockedDomain    RejectionReason = "blocked_domain"
)

// EvaluationVerdict is the evaluator's output for one source. Scores are
// always fully populated before Accepted is computed.
type EvaluationVerdict struct {
	URL        string  `json:"url" yaml:"url"`
	Scores     Scores  `json:"scores" yaml:"scores"`
	TotalScore float64 `json:"total_score" yaml:"total_score"`
	Accepted   bool    `json:"accepted" yaml:"accepted"`

	// Escalated is true when the strong scorer was consulted.
	Escalated bool `json:"escalated" yaml:"escalated"`

	Stage           EvaluationStage `json:"stage" yaml:"stage"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
	Reasoning       string          `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// ExcerptHash identifies the evidence excerpt the scores were computed on.
	ExcerptHash string    `json:"excerpt_hash" yaml:"excerpt_hash"`
	EvaluatedAt time.Time `json:"evaluated_at" yaml:"evaluated_at"`
}
