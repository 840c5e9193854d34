// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import "regexp"

type sectorRule struct {
	name     string
	patterns []*regexp.Regexp

	// keywords signal the sector in result titles and snippets.
	keywords []string

	// negatives mark results that drifted into an unrelated field.
	negatives []string
}

var sectorRules = []sectorRule{
	{
		name: "defense",
		patterns: compileAll(
			`\bdefen[cs]e\b`, `\bmilitary\b`, `\bnato\b`, `\barmed forces\b`,
			`\bweapons?\b`, `\baerospace\b`, `\bmissiles?\b`,
		),
		keywords:  []string{"defense", "military", "nato", "armed forces", "weapons", "aerospace"},
		negatives: []string{"American Chemical Society", "chemical society", "chemistry journal"},
	},
	{
		name: "infrastructure",
		patterns: compileAll(
			`\binfrastructure\b`, `\bconstruction\b`, `\bhighways?\b`, `\bbridges?\b`,
			`\btunnels?\b`, `\bairports?\b`, `\brailways?\b`, `\bconcessions?\b`,
		),
		keywords:  []string{"infrastructure", "construction", "highway", "bridge", "PPP", "concession"},
		negatives: []string{"body building", "workout", "fitness program"},
	},
	{
		name: "energy",
		patterns: compileAll(
			`\benergy\b`, `\brenewables?\b`, `\bsolar\b`, `\bwind power\b`,
			`\boil and gas\b`, `\belectricity\b`, `\butilities\b`,
		),
		keywords: []string{"energy", "renewable", "power", "solar", "wind"},
	},
	{
		name: "technology",
		patterns: compileAll(
			`\btechnology\b`, `\bsoftware\b`, `\bdigital\b`,
			`\bartificial intelligence\b`, `\bcloud\b`, `\bsaas\b`,
		),
		keywords: []string{"technology", "software", "digital", "AI", "cloud"},
	},
	{
		name: "healthcare",
		patterns: compileAll(
			`\bhealth ?care\b`, `\bpharma\w*\b`, `\bhospitals?\b`, `\bmedical devices?\b`,
		),
		keywords: []string{"healthcare", "pharmaceutical", "hospital", "medical"},
	},
}

// allowedSectors are the sector labels accepted from the LLM fallback.
var allowedSectors = map[string]bool{
	"defense":        true,
	"infrastructure": true,
	"energy":         true,
	"technology":     true,
	"healthcare":     true,
	"other":          true,
}

type geoRule struct {
	name    string
	pattern *regexp.Regexp
}

var geoRules = []geoRule{
	{"Europe", regexp.MustCompile(`(?i)\b(europe|european|eu)\b`)},
	{"Spain", regexp.MustCompile(`(?i)\b(spain|spanish|españa|iberian)\b`)},
	{"USA", regexp.MustCompile(`(?i)\b(united states|usa)\b|\bU\.S\.`)},
	{"LATAM", regexp.MustCompile(`(?i)\b(latin america|latam|brazil|mexico|chile|colombia)\b`)},
	{"Global", regexp.MustCompile(`(?i)\b(global|worldwide|international)\b`)},
}

// genericGeography lists labels the query builder uses only when nothing
// more specific was found.
var genericGeography = map[string]bool{"Global": true}

// company is a known market participant. terms are phrases that co-occur
// with the company's real line of business.
type company struct {
	key    *regexp.Regexp
	name   string
	sector string
	terms  []string
}

func knownCompany(pattern, name, sector string, terms ...string) company {
	re := regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`)
	return company{key: re, name: name, sector: sector, terms: terms}
}

var knownCompanies = []company{
	knownCompany("ferrovial", "Ferrovial", "infrastructure", "toll roads", "airports", "construction"),
	knownCompany("acciona", "Acciona", "infrastructure", "construction", "renewables"),
	knownCompany("acs", "ACS", "infrastructure", "construction", "Dragados", "Hochtief", "Turner"),
	knownCompany("fcc", "FCC", "infrastructure", "construction", "Fomento de Construcciones", "environmental services"),
	knownCompany("sacyr", "Sacyr", "infrastructure", "construction", "concessions"),
	knownCompany("ohla?", "OHLA", "infrastructure", "construction", "engineering"),
	knownCompany("indra", "Indra", "defense", "defense systems", "air traffic", "IT services"),
	knownCompany("vinci", "Vinci", "infrastructure", "concessions", "construction", "Vinci Airports"),
	knownCompany("bouygues", "Bouygues", "infrastructure", "construction", "Colas"),
	knownCompany("eiffage", "Eiffage", "infrastructure", "construction", "concessions"),
	knownCompany("strabag", "Strabag", "infrastructure", "construction", "civil engineering"),
	knownCompany("skanska", "Skanska", "infrastructure", "construction", "project development"),
	knownCompany("bae systems", "BAE Systems", "defense", "defence", "military", "aerospace"),
	knownCompany("thales", "Thales", "defense", "defence", "avionics", "aerospace"),
	knownCompany("leonardo", "Leonardo", "defense", "defence", "helicopters", "aerospace"),
	knownCompany("rheinmetall", "Rheinmetall", "defense", "ammunition", "armoured vehicles", "defence"),
	knownCompany("airbus", "Airbus Defence", "defense", "aerospace", "defence", "space"),
	knownCompany("lockheed( martin)?", "Lockheed Martin", "defense", "F-35", "aerospace", "defense"),
	knownCompany("raytheon|rtx", "Raytheon", "defense", "missiles", "defense", "aerospace"),
	knownCompany("northrop( grumman)?", "Northrop Grumman", "defense", "aerospace", "defense", "space"),
}

// namesakes lists phrases that indicate an unrelated entity sharing a
// company's name or acronym.
var namesakes = map[string][]string{
	"ACS":      {"American Chemical Society", "chemistry", "chemical society"},
	"FCC":      {"Federal Communications Commission", "spectrum auction", "broadcast license"},
	"Thales":   {"Thales of Miletus", "philosopher"},
	"Leonardo": {"Leonardo da Vinci", "DiCaprio"},
	"Vinci":    {"da Vinci", "Renaissance painter"},
	"Indra":    {"Hindu deity", "Indra Nooyi"},
}

var (
	// competitorLine matches "Competitors: A, B (hint); C".
	competitorLine = regexp.MustCompile(`(?im)^\s*(?:main\s+|key\s+)?(?:competitors?|peers?|peer set|rivals?)\s*[:\-]\s*(.+)$`)

	// hintedName splits "ACS (construction)" into name and hint.
	hintedName = regexp.MustCompile(`^(.+?)\s*\(([^)]*)\)\s*$`)

	// listSplit separates names inside a competitor line.
	listSplit = regexp.MustCompile(`\s*(?:[,;/]|\band\b)\s*`)

	// competitorCue marks sentences that name competing companies.
	competitorCue = regexp.MustCompile(`(?i)\b(competitors?|rivals?|peers?|competes? with|versus|vs\.?)\b`)

	// capitalizedEntity matches capitalized multi-word names.
	capitalizedEntity = regexp.MustCompile(`\b([A-Z][\w&.\-]*(?:\s+(?:de\s+|of\s+)?[A-Z][\w&.\-]*)+)\b`)

	sentenceSplit = regexp.MustCompile(`[.!?\n]+\s*`)
)

// entityStopwords are capitalized words that start sentences or headings
// rather than company names.
var entityStopwords = map[string]bool{
	"The": true, "Our": true, "Main": true, "Key": true, "Competitor": true,
	"Competitors": true, "Peers": true, "Rivals": true, "Project": true, "Client": true,
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}
