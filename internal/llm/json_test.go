// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreDoc struct {
	Relevance *float64 `json:"relevance"`
	Accept    bool     `json:"accept"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain", `{"relevance": 8, "accept": true}`, 8},
		{"fenced", "```json\n{\"relevance\": 7.5}\n```", 7.5},
		{"prose around", `Here you go: {"relevance": 6} hope that helps`, 6},
		{"trailing comma", `{"relevance": 9, "accept": true,}`, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc scoreDoc
			require.NoError(t, DecodeJSON(tt.in, &doc))
			require.NotNil(t, doc.Relevance)
			assert.InDelta(t, tt.want, *doc.Relevance, 0.001)
		})
	}
}

func TestDecodeJSONNoObject(t *testing.T) {
	var doc scoreDoc
	assert.Error(t, DecodeJSON("I cannot score this source.", &doc))
}
