// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/topic-scout/pkg/types"
)

func TestShouldEscalate(t *testing.T) {
	pol := EscalationPolicy{UncertainLow: 4.5, UncertainHigh: 6.5}
	uncertain := full(9, 9, 9, 9)
	uncertain.Confidence = ConfidenceUncertain

	tests := []struct {
		name string
		resp ScoreResponse
		err  error
		want bool
	}{
		{"error", ScoreResponse{}, errors.New("boom"), true},
		{"missing dimension", ScoreResponse{Authenticity: f(9), Reliability: f(9), Relevance: f(9)}, nil, true},
		{"clear accept", full(9, 9, 9, 8), nil, false},
		{"clear reject", full(2, 3, 1, 2), nil, false},
		{"band low edge", full(4.5, 4.5, 4.5, 4.5), nil, true},
		{"band high edge", full(6.5, 6.5, 6.5, 6.5), nil, true},
		{"just above band", full(7, 6.5, 6.5, 6.5), nil, false},
		{"uncertain flag", uncertain, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldEscalate(tt.resp, tt.err, pol))
		})
	}
}

func TestBackfill(t *testing.T) {
	tests := []struct {
		name string
		resp ScoreResponse
		want types.Scores
		ok   bool
	}{
		{"complete", full(8, 7, 9, 6), types.Scores{Authenticity: 8, Reliability: 7, Relevance: 9, Currency: 6}, true},
		{"relevance from auth and rel", ScoreResponse{Authenticity: f(9), Reliability: f(6), Currency: f(2)},
			types.Scores{Authenticity: 9, Reliability: 6, Relevance: 7.5, Currency: 2}, true},
		{"currency from present", ScoreResponse{Authenticity: f(9), Reliability: f(6), Relevance: f(6)},
			types.Scores{Authenticity: 9, Reliability: 6, Relevance: 6, Currency: 7}, true},
		{"only relevance", ScoreResponse{Relevance: f(4)},
			types.Scores{Authenticity: 4, Reliability: 4, Relevance: 4, Currency: 4}, true},
		{"nothing", ScoreResponse{}, types.Scores{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Backfill(tt.resp)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotalIsRoundedMean(t *testing.T) {
	s := types.Scores{Authenticity: 9, Reliability: 8, Relevance: 8.5, Currency: 6}
	assert.Equal(t, 7.9, s.Total())
}

func TestAccept(t *testing.T) {
	cfg := types.DefaultConfig().Evaluation
	tests := []struct {
		name   string
		s      types.Scores
		ok     bool
		reason types.RejectionReason
	}{
		{"both clear", types.Scores{Authenticity: 7, Reliability: 7, Relevance: 8, Currency: 6}, true, types.RejectNone},
		{"relevance low", types.Scores{Authenticity: 10, Reliability: 10, Relevance: 7.9, Currency: 10}, false, types.RejectBelowRelevance},
		{"total low", types.Scores{Authenticity: 5, Reliability: 5, Relevance: 9, Currency: 5}, false, types.RejectBelowTotal},
		{"both low reports relevance", types.Scores{Relevance: 2}, false, types.RejectBelowRelevance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Accept(tt.s, cfg)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
