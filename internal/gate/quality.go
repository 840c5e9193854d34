// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gate

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// categoryRule matches a host against a publisher category. domains match
// the host or any subdomain, suffixes match the end of the host, and
// keywords match anywhere in it.
type categoryRule struct {
	category types.SourceCategory
	domains  []string
	suffixes []string
	keywords []string
}

// categoryRules are checked in order; the first match wins.
var categoryRules = []categoryRule{
	{
		category: types.CategoryConsulting,
		domains: []string{"mckinsey.com", "bcg.com", "bain.com", "deloitte.com", "pwc.com", "ey.com",
			"kpmg.com", "accenture.com", "rolandberger.com", "oliverwyman.com", "kearney.com"},
	},
	{
		category: types.CategoryInstitutional,
		domains: []string{"europa.eu", "worldbank.org", "oecd.org", "un.org", "imf.org", "iea.org", "wto.org",
			"gov.uk", "bis.org", "ecb.europa.eu", "federalreserve.gov"},
		suffixes: []string{".gov", ".gov.uk", ".gob.es", ".gouv.fr", ".gv.at", ".admin.ch", ".int", ".mil"},
	},
	{
		category: types.CategoryAcademic,
		domains: []string{"hbr.org", "jstor.org", "nature.com", "sciencedirect.com", "springer.com", "wiley.com",
			"ssrn.com", "arxiv.org", "nber.org", "scholar.google.com"},
		suffixes: []string{".edu", ".edu.au", ".edu.es", ".ac.uk", ".ac.jp", ".ac.nz"},
		keywords: []string{"university", "journal"},
	},
	{
		category: types.CategoryFinancialNews,
		domains: []string{"reuters.com", "bloomberg.com", "ft.com", "wsj.com", "economist.com", "cnbc.com",
			"forbes.com", "marketwatch.com", "barrons.com", "expansion.com", "handelsblatt.com"},
	},
	{
		category: types.CategoryMarketResearch,
		domains: []string{"gartner.com", "forrester.com", "statista.com", "ibisworld.com", "euromonitor.com",
			"idc.com", "marketsandmarkets.com", "grandviewresearch.com", "mordorintelligence.com"},
	},
	{
		category: types.CategoryStartupVC,
		domains:  []string{"crunchbase.com", "pitchbook.com", "cbinsights.com", "dealroom.co", "techcrunch.com"},
	},
	{
		category: types.CategoryGeneralNews,
		domains: []string{"bbc.com", "bbc.co.uk", "theguardian.com", "nytimes.com", "washingtonpost.com",
			"cnn.com", "apnews.com", "elpais.com", "elmundo.es", "lemonde.fr", "usatoday.com"},
		keywords: []string{"news", "times", "herald", "tribune"},
	},
	{
		category: types.CategoryIndustry,
		keywords: []string{"packaging", "recycling", "sustainab", "plastic", "circular"},
	},
}

// categoryCount is the number of categories including other.
var categoryCount = len(categoryRules) + 1

func (r categoryRule) matches(host string) bool {
	for _, d := range r.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	for _, s := range r.suffixes {
		if strings.HasSuffix(host, s) {
			return true
		}
	}
	for _, k := range r.keywords {
		if strings.Contains(host, k) {
			return true
		}
	}
	return false
}

// Categorize returns the publisher category of rawURL's host.
func Categorize(rawURL string) types.SourceCategory {
	host := hostOf(rawURL)
	if host == "" {
		return types.CategoryOther
	}
	for _, r := range categoryRules {
		if r.matches(host) {
			return r.category
		}
	}
	return types.CategoryOther
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// MeasureDiversity counts unique domains and their categories. A domain
// seen twice counts once.
func MeasureDiversity(sources []types.AcceptedSource) types.Diversity {
	var d types.Diversity
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		host := hostOf(s.Result.URL)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		if d.Categories == nil {
			d.Categories = make(map[types.SourceCategory]int)
		}
		d.Categories[Categorize(s.Result.URL)]++
	}
	d.UniqueDomains = len(seen)
	d.Score = int(math.Round(float64(len(d.Categories)) / float64(categoryCount) * 100))
	return d
}

// Review lists the issues with the accepted source mix. Thresholds left
// at zero in cfg disable their checks. Share checks need at least three
// domains and the primary-source check at least five.
func Review(avgReliability float64, accepted int, d types.Diversity, cfg types.GateConfig) []types.QualityIssue {
	var issues []types.QualityIssue
	add := func(code types.IssueCode, blocking bool, format string, args ...any) {
		issues = append(issues, types.QualityIssue{Code: code, Message: fmt.Sprintf(format, args...), Blocking: blocking})
	}
	total := d.UniqueDomains

	if cfg.MinAvgReliability > 0 && accepted > 0 && avgReliability < cfg.MinAvgReliability {
		add(types.IssueLowReliability, true, "average reliability %.1f is below %.1f", avgReliability, cfg.MinAvgReliability)
	}
	if n := d.Categories[types.CategoryConsulting]; cfg.MaxConsultingShare > 0 && total >= 3 &&
		float64(n)/float64(total) > cfg.MaxConsultingShare {
		add(types.IssueConsultingShare, true, "%d of %d domains are consulting firms, above the %.0f%% cap",
			n, total, cfg.MaxConsultingShare*100)
	}
	if n := d.Categories[types.CategoryGeneralNews]; cfg.MaxGeneralMediaShare > 0 && total >= 3 &&
		float64(n)/float64(total) > cfg.MaxGeneralMediaShare {
		add(types.IssueGeneralMediaShare, true, "%d of %d domains are general media, above the %.0f%% cap",
			n, total, cfg.MaxGeneralMediaShare*100)
	}
	if cfg.RequirePrimarySource && total >= 5 && primaryCount(d) == 0 {
		add(types.IssueNoPrimarySource, true, "no institutional or academic source among %d domains", total)
	}

	if total > 3 {
		for _, c := range categoryOrder() {
			if n := d.Categories[c]; float64(n) > float64(total)*0.5 {
				add(types.IssueCategoryConcentration, false, "%d of %d domains are %s", n, total, c)
			}
		}
	}
	if total >= 5 && len(d.Categories) < 3 {
		add(types.IssueLowDiversity, false, "only %d source categories represented", len(d.Categories))
	}
	if total > 0 && total < 5 {
		add(types.IssueFewDomains, false, "only %d distinct domains", total)
	}
	return issues
}

func primaryCount(d types.Diversity) int {
	n := 0
	for c, count := range d.Categories {
		if c.Primary() {
			n += count
		}
	}
	return n
}

func categoryOrder() []types.SourceCategory {
	out := make([]types.SourceCategory, 0, categoryCount)
	for _, r := range categoryRules {
		out = append(out, r.category)
	}
	return append(out, types.CategoryOther)
}

// HasBlocking reports whether any issue is blocking.
func HasBlocking(issues []types.QualityIssue) bool {
	for _, i := range issues {
		if i.Blocking {
			return true
		}
	}
	return false
}

// Assess builds the quality report for sources.
func Assess(sources []types.AcceptedSource, cfg types.GateConfig) types.Assessment {
	a := types.Assessment{Level: types.ConfidenceNone}
	if len(sources) == 0 {
		return a
	}

	var rel, relevance float64
	for _, s := range sources {
		rel += s.Verdict.Scores.Reliability
		relevance += s.Verdict.Scores.Relevance
		if s.Verdict.Scores.Reliability >= 8 {
			a.HighReliability++
		}
	}
	n := float64(len(sources))
	avgRel, avgRelevance := rel/n, relevance/n

	score := (avgRel*0.6 + avgRelevance*0.4) * 10
	score += math.Min(10, float64(a.HighReliability)/n*15)
	a.Score = int(math.Round(math.Min(100, score)))
	a.Level = levelFor(a.Score)

	a.AvgReliability = round1(avgRel)
	a.AvgRelevance = round1(avgRelevance)
	a.Diversity = MeasureDiversity(sources)
	a.Issues = Review(a.AvgReliability, len(sources), a.Diversity, cfg)
	return a
}

func levelFor(score int) types.ConfidenceLevel {
	switch {
	case score >= 80:
		return types.ConfidenceHigh
	case score >= 60:
		return types.ConfidenceMedium
	case score >= 40:
		return types.ConfidenceLow
	default:
		return types.ConfidenceVeryLow
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
