// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// NextAction is the quality gate's instruction for the loop.
type NextAction string

const (
	ActionStop          NextAction = "stop"
	ActionRetry         NextAction = "retry_with_mutated_strategy"
	ActionStopExhausted NextAction = "stop_exhausted"
)

// Terminal reports whether the action ends the loop.
func (a NextAction) Terminal() bool {
	return a == ActionStop || a == ActionStopExhausted
}

// SufficiencyStatus tells callers how confident a research result is.
type SufficiencyStatus string

const (
	StatusSufficient SufficiencyStatus = "sufficient"
	StatusBestEffort SufficiencyStatus = "best_effort"
)

// SourceCategory groups publishers by kind.
type SourceCategory string

const (
	CategoryConsulting     SourceCategory = "consulting"
	CategoryAcademic       SourceCategory = "academic"
	CategoryFinancialNews  SourceCategory = "news_financial"
	CategoryGeneralNews    SourceCategory = "news_general"
	CategoryInstitutional  SourceCategory = "institutional"
	CategoryIndustry       SourceCategory = "industry_specific"
	CategoryMarketResearch SourceCategory = "market_research"
	CategoryStartupVC      SourceCategory = "startup_vc"
	CategoryOther          SourceCategory = "other"
)

// Primary reports whether sources of the category count as primary
// evidence (official bodies and academia).
func (c SourceCategory) Primary() bool {
	return c == CategoryInstitutional || c == CategoryAcademic
}

// Diversity describes how accepted sources spread over domains and
// publisher categories. Each domain is counted once.
type Diversity struct {
	UniqueDomains int                    `json:"unique_domains" yaml:"unique_domains"`
	Categories    map[SourceCategory]int `json:"categories,omitempty" yaml:"categories,omitempty"`

	// Score is the share of categories represented, 0-100.
	Score int `json:"score" yaml:"score"`
}

// IssueCode identifies a quality issue.
type IssueCode string

const (
	IssueLowReliability        IssueCode = "low_avg_reliability"
	IssueConsultingShare       IssueCode = "consulting_share"
	IssueGeneralMediaShare     IssueCode = "general_media_share"
	IssueNoPrimarySource       IssueCode = "no_primary_source"
	IssueCategoryConcentration IssueCode = "category_concentration"
	IssueLowDiversity          IssueCode = "low_diversity"
	IssueFewDomains            IssueCode = "few_domains"
)

// QualityIssue is one finding about the accepted source mix. Blocking
// issues fail the strict sufficiency check; the rest are warnings.
type QualityIssue struct {
	Code     IssueCode `json:"code" yaml:"code"`
	Message  string    `json:"message" yaml:"message"`
	Blocking bool      `json:"blocking" yaml:"blocking"`
}

// ConfidenceLevel buckets an Assessment score.
type ConfidenceLevel string

const (
	ConfidenceNone    ConfidenceLevel = "none"
	ConfidenceVeryLow ConfidenceLevel = "very_low"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceHigh    ConfidenceLevel = "high"
)

// Assessment is the quality report for a set of accepted sources.
type Assessment struct {
	// Score is 0-100: 60% mean reliability, 40% mean relevance, plus up to
	// 10 points for the share of high-reliability sources.
	Score int             `json:"score" yaml:"score"`
	Level ConfidenceLevel `json:"level" yaml:"level"`

	AvgReliability float64 `json:"avg_reliability" yaml:"avg_reliability"`
	AvgRelevance   float64 `json:"avg_relevance" yaml:"avg_relevance"`

	// HighReliability counts sources with reliability 8 or above.
	HighReliability int `json:"high_reliability" yaml:"high_reliability"`

	Diversity Diversity      `json:"diversity" yaml:"diversity"`
	Issues    []QualityIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// AcceptedSource pairs an accepted result with its verdict and the
// evidence excerpt that was scored.
type AcceptedSource struct {
	Result  SearchResult      `json:"result" yaml:"result"`
	Verdict EvaluationVerdict `json:"verdict" yaml:"verdict"`
	Excerpt string            `json:"accepted_excerpt" yaml:"accepted_excerpt"`
}

// IterationStats summarises one pass of the retrieval loop.
type IterationStats struct {
	Variants      []string                `json:"variants" yaml:"variants"`
	RawResults    int                     `json:"raw_results" yaml:"raw_results"`
	Evaluated     int                     `json:"evaluated" yaml:"evaluated"`
	NewlyAccepted int                     `json:"newly_accepted" yaml:"newly_accepted"`
	Accepted      int                     `json:"accepted" yaml:"accepted"`
	EliteSources  int                     `json:"elite_sources" yaml:"elite_sources"`
	DistinctTiers int                     `json:"distinct_tiers" yaml:"distinct_tiers"`
	Rejections    map[RejectionReason]int `json:"rejections,omitempty" yaml:"rejections,omitempty"`

	// AvgReliability, Diversity and Issues describe the accepted set so far.
	AvgReliability float64        `json:"avg_reliability" yaml:"avg_reliability"`
	Diversity      Diversity      `json:"diversity" yaml:"diversity"`
	Issues         []QualityIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// GateDecision is produced once per iteration. Iteration is zero-based
// and never exceeds the configured retry limit.
type GateDecision struct {
	Iteration       int              `json:"iteration" yaml:"iteration"`
	AcceptedSources []AcceptedSource `json:"accepted_sources" yaml:"accepted_sources"`
	Sufficient      bool             `json:"sufficient" yaml:"sufficient"`
	NextAction      NextAction       `json:"next_action" yaml:"next_action"`
	StrategyHint    StrategyHint     `json:"strategy_hint,omitempty" yaml:"strategy_hint,omitempty"`
	Stats           IterationStats   `json:"stats" yaml:"stats"`
}

// ResearchResult is the outcome of one topic run.
type ResearchResult struct {
	RunID             string            `json:"run_id" yaml:"run_id"`
	Topic             string            `json:"topic" yaml:"topic"`
	Profile           ContextProfile    `json:"profile" yaml:"profile"`
	AcceptedSources   []AcceptedSource  `json:"accepted_sources" yaml:"accepted_sources"`
	SufficiencyStatus SufficiencyStatus `json:"sufficiency_status" yaml:"sufficiency_status"`

	// Confidence is the mean reliability and relevance of accepted sources.
	Confidence float64        `json:"confidence" yaml:"confidence"`
	Assessment Assessment     `json:"assessment" yaml:"assessment"`
	Iterations []GateDecision `json:"iterations" yaml:"iterations"`
}
