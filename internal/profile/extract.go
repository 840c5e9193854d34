// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile turns free-text project context into a ContextProfile:
// sector, geography, competitors, and the disambiguation entries used to
// keep namesake collisions out of search results.
//
// Pattern matching runs first. An LLM call is made only when the patterns
// find nothing and the text is long enough to be worth the cost. Every
// failure degrades to an empty profile.
package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/topic-scout/internal/llm"
	"github.com/pdiddy/topic-scout/internal/logging"
	"github.com/pdiddy/topic-scout/pkg/types"
)

const (
	memoSize        = 256
	clientLineLimit = 10
)

// Extractor builds context profiles. It is safe for concurrent use.
type Extractor struct {
	cfg    types.ProfileConfig
	llm    llm.Completer
	model  string
	logger *zap.Logger
	memo   *lru.Cache[string, types.ContextProfile]
}

// NewExtractor returns an Extractor. completer may be nil, which disables
// the LLM fallback.
func NewExtractor(cfg types.ProfileConfig, completer llm.Completer, model string, logger *zap.Logger) *Extractor {
	// lru.New only errors on a non-positive size.
	memo, _ := lru.New[string, types.ContextProfile](memoSize)
	return &Extractor{
		cfg:    cfg,
		llm:    completer,
		model:  model,
		logger: logging.OrNop(logger),
		memo:   memo,
	}
}

// Extract returns the profile for text. The same text always yields an
// equal profile within a process; an empty or unusable text yields an
// empty profile, never an error.
func (e *Extractor) Extract(ctx context.Context, text string) types.ContextProfile {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ContextProfile{}
	}

	key := textKey(text)
	if p, ok := e.memo.Get(key); ok {
		return p.Clone()
	}

	p := FromPatterns(text)
	stable := true
	if p.IsEmpty() && e.llm != nil && len(text) >= e.cfg.MinLLMContextChars {
		lp, err := e.fromLLM(ctx, text)
		if err != nil {
			e.logger.Warn("context extraction failed, continuing without context",
				zap.Error(err))
			stable = false
		} else {
			p = lp
		}
	}

	if stable {
		e.memo.Add(key, p)
	}
	return p.Clone()
}

// FromPatterns extracts a profile using only regular expressions and the
// known-company table.
func FromPatterns(text string) types.ContextProfile {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.ContextProfile{}
	}

	declared, hints := parseCompetitorLines(text)
	client := detectClient(text, declared)

	var names []string
	names = append(names, declared...)
	names = append(names, matchKnownCompanies(text)...)
	names = append(names, cuedEntities(text)...)

	var competitors []string
	for _, n := range dedupeFold(names) {
		if !strings.EqualFold(n, client) {
			competitors = append(competitors, n)
		}
	}

	p := types.ContextProfile{
		Sector:        detectSector(text, competitors),
		Geography:     detectGeography(text),
		Competitors:   competitors,
		ClientCompany: client,
	}
	return finalize(p, hints)
}

func detectSector(text string, competitors []string) string {
	best, bestScore := "", 0
	for _, rule := range sectorRules {
		score := 0
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = rule.name, score
		}
	}
	if best != "" {
		return best
	}
	for _, c := range competitors {
		if kc, ok := lookupCompany(c); ok {
			return kc.sector
		}
	}
	return ""
}

func detectGeography(text string) []string {
	var out []string
	for _, g := range geoRules {
		if g.pattern.MatchString(text) {
			out = append(out, g.name)
		}
	}
	return out
}

// parseCompetitorLines returns names declared on "Competitors:" lines in
// order of appearance, plus any parenthesized domain hints keyed by name.
func parseCompetitorLines(text string) ([]string, map[string]string) {
	var names []string
	hints := make(map[string]string)
	for _, m := range competitorLine.FindAllStringSubmatch(text, -1) {
		for _, item := range listSplit.Split(m[1], -1) {
			item = strings.TrimSpace(strings.Trim(item, ".\t "))
			if item == "" {
				continue
			}
			hint := ""
			if hm := hintedName.FindStringSubmatch(item); hm != nil {
				item, hint = strings.TrimSpace(hm[1]), strings.TrimSpace(hm[2])
			}
			if item == "" {
				continue
			}
			name := canonicalName(item)
			names = append(names, name)
			if hint != "" {
				hints[name] = hint
			}
		}
	}
	return names, hints
}

func matchKnownCompanies(text string) []string {
	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, c := range knownCompanies {
		if loc := c.key.FindStringIndex(text); loc != nil {
			hits = append(hits, hit{c.name, loc[0]})
		}
	}
	// Order of appearance keeps output stable for a given text.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// cuedEntities returns capitalized multi-word names from sentences that
// talk about competition.
func cuedEntities(text string) []string {
	var out []string
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if !competitorCue.MatchString(sentence) {
			continue
		}
		for _, m := range capitalizedEntity.FindAllString(sentence, -1) {
			words := strings.Fields(m)
			for len(words) > 0 && entityStopwords[words[0]] {
				words = words[1:]
			}
			if len(words) < 2 {
				continue
			}
			name := strings.Join(words, " ")
			if isGeography(name) {
				continue
			}
			out = append(out, canonicalName(name))
		}
	}
	return out
}

// detectClient returns the first known company mentioned in the opening
// lines that is not declared as a competitor.
func detectClient(text string, declared []string) string {
	lines := strings.SplitN(text, "\n", clientLineLimit+1)
	if len(lines) > clientLineLimit {
		lines = lines[:clientLineLimit]
	}
	head := strings.Join(lines, "\n")

	for _, name := range matchKnownCompanies(head) {
		if !containsFold(declared, name) {
			return name
		}
	}
	return ""
}

// finalize fills the fields derived from sector and competitors. It is
// idempotent: running it on its own output changes nothing.
func finalize(p types.ContextProfile, hints map[string]string) types.ContextProfile {
	rule, hasRule := sectorRule{}, false
	for _, r := range sectorRules {
		if r.name == p.Sector {
			rule, hasRule = r, true
			break
		}
	}
	if hasRule {
		p.SectorKeywords = append([]string(nil), rule.keywords...)
		p.NegativeKeywords = dedupeFold(append(p.NegativeKeywords, rule.negatives...))
	}

	if len(p.Competitors) > 0 && p.Disambiguation == nil {
		p.Disambiguation = make(map[string]types.DisambiguationEntry, len(p.Competitors))
	}
	for _, name := range p.Competitors {
		var positive []string
		if h := hints[name]; h != "" {
			positive = append(positive, h)
		}
		if kc, ok := lookupCompany(name); ok {
			positive = append(positive, kc.terms...)
		}
		if hasRule && len(rule.keywords) > 0 {
			positive = append(positive, rule.keywords[0])
		}
		existing := p.Disambiguation[name]
		p.Disambiguation[name] = types.DisambiguationEntry{
			Positive: dedupeFold(append(existing.Positive, positive...)),
			Negative: dedupeFold(append(existing.Negative, namesakesFor(name)...)),
		}
	}
	return p
}

func namesakesFor(name string) []string {
	for k, v := range namesakes {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

// canonicalName maps a declared name to the known-company spelling when
// the whole name refers to one ("Lockheed" becomes "Lockheed Martin").
func canonicalName(name string) string {
	if kc, ok := lookupCompany(name); ok {
		return kc.name
	}
	return name
}

func lookupCompany(name string) (company, bool) {
	for _, c := range knownCompanies {
		if strings.EqualFold(c.name, name) {
			return c, true
		}
		if loc := c.key.FindStringIndex(name); loc != nil && loc[0] == 0 && loc[1] == len(name) {
			return c, true
		}
	}
	return company{}, false
}

func isGeography(name string) bool {
	for _, g := range geoRules {
		if g.pattern.MatchString(name) {
			return true
		}
	}
	return false
}

func dedupeFold(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
