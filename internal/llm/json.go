// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// DecodeJSON extracts the JSON object from a model answer and decodes it
// into v. Code fences and surrounding prose are ignored; if the object does
// not parse it is passed through jsonrepair once before giving up.
func DecodeJSON(text string, v any) error {
	block := extractJSONBlock(text)
	if block == "" {
		return fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(block), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(block)
	if err != nil {
		return fmt.Errorf("repairing model JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}

func extractJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		text = strings.TrimSpace(rest)
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end < start {
		// Truncated output; let jsonrepair close it.
		return text[start:]
	}
	return text[start : end+1]
}
