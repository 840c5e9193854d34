package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HTTPConfig holds shared HTTP settings used by every outbound client.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "topic-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RetryAttempts is the total number of attempts for a transient
	// failure, including the first call (default 3).
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts" mapstructure:"retry_attempts"`

	// RetryBaseDelay is the first backoff delay; each retry doubles it (default 2s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay" mapstructure:"retry_base_delay"`
}

// SearchDepth selects how much work a backend does per query.
type SearchDepth string

const (
	DepthBasic    SearchDepth = "basic"
	DepthAdvanced SearchDepth = "advanced"
)

// SearchConfig holds settings for the search orchestrator.
type SearchConfig struct {
	// MaxSearchQueries caps the variants sent to a backend per layer (default 5).
	MaxSearchQueries int `json:"max_search_queries" yaml:"max_search_queries" mapstructure:"max_search_queries"`

	// MaxVariants caps the variants the builder produces (default 5).
	MaxVariants int `json:"max_variants" yaml:"max_variants" mapstructure:"max_variants"`

	// ResultCap is the per-query result limit for layers 1 and 2 (default 5).
	ResultCap int `json:"result_cap" yaml:"result_cap" mapstructure:"result_cap"`

	Depth SearchDepth `json:"depth" yaml:"depth" mapstructure:"depth"`

	// MinLayerResults is the result count below which the next layer runs (default 5).
	MinLayerResults int `json:"min_layer_results" yaml:"min_layer_results" mapstructure:"min_layer_results"`

	// EliteDomainsPerQuery bounds the domains in one site-restricted query (default 5).
	EliteDomainsPerQuery int `json:"elite_domains_per_query" yaml:"elite_domains_per_query" mapstructure:"elite_domains_per_query"`

	// EliteResultCap is the per-query result limit for layer 3 (default 5).
	EliteResultCap int `json:"elite_result_cap" yaml:"elite_result_cap" mapstructure:"elite_result_cap"`

	// Parallelism bounds concurrent backend calls within a layer (default 4).
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`
}

// EvaluationConfig holds the source evaluator thresholds.
type EvaluationConfig struct {
	TotalScoreThreshold     float64 `json:"total_score_threshold" yaml:"total_score_threshold" mapstructure:"total_score_threshold"`
	RelevanceScoreThreshold float64 `json:"relevance_score_threshold" yaml:"relevance_score_threshold" mapstructure:"relevance_score_threshold"`

	// UncertainLow and UncertainHigh bound the total-score band in which a
	// cheap verdict is escalated to the strong scorer.
	UncertainLow  float64 `json:"uncertain_low" yaml:"uncertain_low" mapstructure:"uncertain_low"`
	UncertainHigh float64 `json:"uncertain_high" yaml:"uncertain_high" mapstructure:"uncertain_high"`

	// ExcerptChars caps the evidence excerpt sent to a scorer (default 2000).
	ExcerptChars int `json:"excerpt_chars" yaml:"excerpt_chars" mapstructure:"excerpt_chars"`

	// Parallelism bounds concurrent evaluations (default 4).
	Parallelism int `json:"parallelism" yaml:"parallelism" mapstructure:"parallelism"`
}

// GateConfig holds the quality gate settings.
type GateConfig struct {
	// MinAcceptedSources is the accepted-source floor; -1 means unbounded.
	MinAcceptedSources int `json:"min_accepted_sources" yaml:"min_accepted_sources" mapstructure:"min_accepted_sources"`

	// MaxRetries is the number of retry iterations after the first pass.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// MinRawResults is the raw result count below which a retry broadens.
	MinRawResults int `json:"min_raw_results" yaml:"min_raw_results" mapstructure:"min_raw_results"`

	// Source-mix checks. A zero value disables its check.
	MinAvgReliability    float64 `json:"min_avg_reliability" yaml:"min_avg_reliability" mapstructure:"min_avg_reliability"`
	MaxConsultingShare   float64 `json:"max_consulting_share" yaml:"max_consulting_share" mapstructure:"max_consulting_share"`
	MaxGeneralMediaShare float64 `json:"max_general_media_share" yaml:"max_general_media_share" mapstructure:"max_general_media_share"`
	RequirePrimarySource bool    `json:"require_primary_source" yaml:"require_primary_source" mapstructure:"require_primary_source"`
}

// Unbounded reports whether the accepted-source floor is disabled.
func (g GateConfig) Unbounded() bool { return g.MinAcceptedSources < 0 }

// ProfileConfig holds settings for context extraction.
type ProfileConfig struct {
	// MinLLMContextChars is the context length required before the LLM
	// fallback runs on an empty pattern profile (default 500).
	MinLLMContextChars int `json:"min_llm_context_chars" yaml:"min_llm_context_chars" mapstructure:"min_llm_context_chars"`
}

// EnrichConfig holds settings for full-page enrichment of accepted sources.
type EnrichConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MinChars is the excerpt length below which enrichment is requested (default 3000).
	MinChars int `json:"min_chars" yaml:"min_chars" mapstructure:"min_chars"`

	// MaxPages bounds enrichment calls per run (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// CacheConfig holds verdict cache settings.
type CacheConfig struct {
	// Dir holds the SQLite database; empty disables the persistent layer.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Size is the in-memory LRU capacity (default 4096).
	Size int `json:"size" yaml:"size" mapstructure:"size"`

	// TTL is how long a cached verdict stays valid (default 7 days).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// AIConfig holds the scoring model settings.
type AIConfig struct {
	// CheapModel is the triage model identifier.
	CheapModel string `json:"cheap_model" yaml:"cheap_model" mapstructure:"cheap_model"`

	// StrongModel is the escalation model identifier.
	StrongModel string `json:"strong_model" yaml:"strong_model" mapstructure:"strong_model"`

	// MaxTokens bounds a scoring completion (default 600).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EliteDomain is one entry of the authoritative domain list.
type EliteDomain struct {
	Domain       string  `json:"domain" yaml:"domain" mapstructure:"domain"`
	Tier         Tier    `json:"tier" yaml:"tier" mapstructure:"tier"`
	Authenticity float64 `json:"authenticity" yaml:"authenticity" mapstructure:"authenticity"`
	Reliability  float64 `json:"reliability" yaml:"reliability" mapstructure:"reliability"`
}

// EliteDomains is the ordered authoritative domain list.
type EliteDomains []EliteDomain

// Lookup returns the entry matching rawURL's host. Subdomains match their
// parent entry (research.mckinsey.com matches mckinsey.com).
func (d EliteDomains) Lookup(rawURL string) (EliteDomain, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return EliteDomain{}, false
	}
	for _, e := range d {
		if host == e.Domain || strings.HasSuffix(host, "."+e.Domain) {
			return e, true
		}
	}
	return EliteDomain{}, false
}

// TierOf returns the tier of rawURL's domain, or TierNone.
func (d EliteDomains) TierOf(rawURL string) Tier {
	if e, ok := d.Lookup(rawURL); ok {
		return e.Tier
	}
	return TierNone
}

// Names returns the domain names in list order, filtered to tiers at or
// above maxTier.
func (d EliteDomains) Names(maxTier Tier) []string {
	var out []string
	for _, e := range d {
		if e.Tier <= maxTier {
			out = append(out, e.Domain)
		}
	}
	return out
}

// BlockedDomains lists domain or domain/path prefixes whose results are
// rejected without scoring (e.g. "linkedin.com/posts").
type BlockedDomains []string

// Match reports whether rawURL falls under a blocked entry.
func (b BlockedDomains) Match(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	target := host + u.EscapedPath()
	for _, entry := range b {
		entry = strings.ToLower(entry)
		domain, path, _ := strings.Cut(entry, "/")
		if host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		if path == "" || strings.HasPrefix(target, host+"/"+path) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Config is the full run configuration. It is built once at startup and
// passed by value to each component; nothing mutates it afterwards.
type Config struct {
	HTTP       HTTPConfig       `json:"http" yaml:"http" mapstructure:"http"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Evaluation EvaluationConfig `json:"evaluation" yaml:"evaluation" mapstructure:"evaluation"`
	Gate       GateConfig       `json:"gate" yaml:"gate" mapstructure:"gate"`
	Profile    ProfileConfig    `json:"profile" yaml:"profile" mapstructure:"profile"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich" mapstructure:"enrich"`
	Cache      CacheConfig      `json:"cache" yaml:"cache" mapstructure:"cache"`
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`

	EliteDomains   EliteDomains   `json:"elite_domains" yaml:"elite_domains" mapstructure:"elite_domains"`
	BlockedDomains BlockedDomains `json:"blocked_domains" yaml:"blocked_domains" mapstructure:"blocked_domains"`
}

// Validate checks the invariants the loop depends on.
func (c Config) Validate() error {
	switch {
	case c.Gate.MaxRetries < 0:
		return fmt.Errorf("gate.max_retries must be >= 0, got %d", c.Gate.MaxRetries)
	case c.Gate.MinAcceptedSources < -1:
		return fmt.Errorf("gate.min_accepted_sources must be >= -1, got %d", c.Gate.MinAcceptedSources)
	case c.Gate.MinAvgReliability < 0 || c.Gate.MinAvgReliability > 10:
		return fmt.Errorf("gate.min_avg_reliability must be in [0,10], got %.1f", c.Gate.MinAvgReliability)
	case c.Gate.MaxConsultingShare < 0 || c.Gate.MaxConsultingShare > 1:
		return fmt.Errorf("gate.max_consulting_share must be in [0,1], got %.2f", c.Gate.MaxConsultingShare)
	case c.Gate.MaxGeneralMediaShare < 0 || c.Gate.MaxGeneralMediaShare > 1:
		return fmt.Errorf("gate.max_general_media_share must be in [0,1], got %.2f", c.Gate.MaxGeneralMediaShare)
	case c.Search.MaxVariants < 1:
		return fmt.Errorf("search.max_variants must be >= 1, got %d", c.Search.MaxVariants)
	case c.Search.MaxSearchQueries < 1:
		return fmt.Errorf("search.max_search_queries must be >= 1, got %d", c.Search.MaxSearchQueries)
	case c.Search.ResultCap < 1:
		return fmt.Errorf("search.result_cap must be >= 1, got %d", c.Search.ResultCap)
	case c.Search.Depth != DepthBasic && c.Search.Depth != DepthAdvanced:
		return fmt.Errorf("search.depth must be basic or advanced, got %q", c.Search.Depth)
	case c.Evaluation.UncertainLow > c.Evaluation.UncertainHigh:
		return fmt.Errorf("evaluation.uncertain_low (%.1f) exceeds uncertain_high (%.1f)",
			c.Evaluation.UncertainLow, c.Evaluation.UncertainHigh)
	case c.Evaluation.TotalScoreThreshold < 0 || c.Evaluation.TotalScoreThreshold > 10:
		return fmt.Errorf("evaluation.total_score_threshold must be in [0,10], got %.1f", c.Evaluation.TotalScoreThreshold)
	case c.Evaluation.RelevanceScoreThreshold < 0 || c.Evaluation.RelevanceScoreThreshold > 10:
		return fmt.Errorf("evaluation.relevance_score_threshold must be in [0,10], got %.1f", c.Evaluation.RelevanceScoreThreshold)
	}
	for _, e := range c.EliteDomains {
		if e.Domain == "" || e.Tier < TierElite || e.Tier > TierTrusted {
			return fmt.Errorf("invalid elite domain entry %+v", e)
		}
	}
	return nil
}

// DefaultConfig returns the configuration used when no file or flag
// overrides a value.
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "topic-scout/0.1",
			RetryAttempts:  3,
			RetryBaseDelay: 2 * time.Second,
		},
		Search: SearchConfig{
			MaxSearchQueries:     5,
			MaxVariants:          5,
			ResultCap:            5,
			Depth:                DepthAdvanced,
			MinLayerResults:      5,
			EliteDomainsPerQuery: 5,
			EliteResultCap:       5,
			Parallelism:          4,
		},
		Evaluation: EvaluationConfig{
			TotalScoreThreshold:     7,
			RelevanceScoreThreshold: 8,
			UncertainLow:            4.5,
			UncertainHigh:           6.5,
			ExcerptChars:            2000,
			Parallelism:             4,
		},
		Gate: GateConfig{
			MinAcceptedSources: 7,
			MaxRetries:         3,
			MinRawResults:      5,

			MinAvgReliability:    6,
			MaxConsultingShare:   0.3,
			MaxGeneralMediaShare: 0.1,
			RequirePrimarySource: true,
		},
		Profile: ProfileConfig{MinLLMContextChars: 500},
		Enrich:  EnrichConfig{Enabled: true, MinChars: 3000, MaxPages: 3},
		Cache:   CacheConfig{Dir: "data", Size: 4096, TTL: 7 * 24 * time.Hour},
		AI: AIConfig{
			CheapModel:  "google/gemini-2.0-flash-lite-001",
			StrongModel: "anthropic/claude-sonnet-4.5",
			MaxTokens:   600,
		},
		EliteDomains:   DefaultEliteDomains(),
		BlockedDomains: DefaultBlockedDomains(),
	}
}

// DefaultEliteDomains returns the built-in authoritative domain list.
func DefaultEliteDomains() EliteDomains {
	return EliteDomains{
		// Consultancies and business schools.
		{Domain: "mckinsey.com", Tier: TierElite, Authenticity: 9, Reliability: 9},
		{Domain: "bcg.com", Tier: TierElite, Authenticity: 9, Reliability: 9},
		{Domain: "bain.com", Tier: TierElite, Authenticity: 9, Reliability: 9},
		{Domain: "hbr.org", Tier: TierElite, Authenticity: 9, Reliability: 9},
		{Domain: "mit.edu", Tier: TierElite, Authenticity: 10, Reliability: 9},
		{Domain: "stanford.edu", Tier: TierElite, Authenticity: 10, Reliability: 9},
		{Domain: "harvard.edu", Tier: TierElite, Authenticity: 10, Reliability: 9},
		{Domain: "wharton.upenn.edu", Tier: TierElite, Authenticity: 10, Reliability: 9},

		// Institutions.
		{Domain: "europa.eu", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "worldbank.org", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "oecd.org", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "imf.org", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "iea.org", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "un.org", Tier: TierElite, Authenticity: 10, Reliability: 9},
		{Domain: "wto.org", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "epa.gov", Tier: TierElite, Authenticity: 10, Reliability: 10},
		{Domain: "gov.uk", Tier: TierElite, Authenticity: 10, Reliability: 9},

		// Big four, financial press, analysts.
		{Domain: "deloitte.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "pwc.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "ey.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "kpmg.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "insead.edu", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "lse.ac.uk", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "ft.com", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "bloomberg.com", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "wsj.com", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "economist.com", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "reuters.com", Tier: TierPremium, Authenticity: 9, Reliability: 9},
		{Domain: "gartner.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "forrester.com", Tier: TierPremium, Authenticity: 9, Reliability: 8},
		{Domain: "euromonitor.com", Tier: TierPremium, Authenticity: 8, Reliability: 8},
		{Domain: "pitchbook.com", Tier: TierPremium, Authenticity: 8, Reliability: 8},
		{Domain: "cbinsights.com", Tier: TierPremium, Authenticity: 8, Reliability: 8},

		// Data providers and business press.
		{Domain: "cnbc.com", Tier: TierTrusted, Authenticity: 8, Reliability: 7},
		{Domain: "statista.com", Tier: TierTrusted, Authenticity: 7, Reliability: 7},
		{Domain: "ibisworld.com", Tier: TierTrusted, Authenticity: 7, Reliability: 7},
		{Domain: "crunchbase.com", Tier: TierTrusted, Authenticity: 7, Reliability: 7},
		{Domain: "dealroom.co", Tier: TierTrusted, Authenticity: 7, Reliability: 7},
	}
}

// DefaultBlockedDomains returns the built-in list of domains rejected
// without scoring.
func DefaultBlockedDomains() BlockedDomains {
	return BlockedDomains{
		"facebook.com",
		"twitter.com",
		"x.com",
		"instagram.com",
		"tiktok.com",
		"pinterest.com",
		"linkedin.com/posts",
		"youtube.com",
		"medium.com/@",
	}
}
