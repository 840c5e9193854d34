// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-scout/internal/profile"
	"github.com/pdiddy/topic-scout/pkg/types"
)

// RunFile is the on-disk representation of a finished run. It keeps the
// accepted evidence and per-iteration stats so a run can be reviewed
// without searching again.
type RunFile struct {
	RunID      string                  `yaml:"run_id"`
	Topic      string                  `yaml:"topic"`
	Status     types.SufficiencyStatus `yaml:"sufficiency_status"`
	Confidence float64                 `yaml:"confidence"`
	Assessment types.Assessment        `yaml:"assessment"`
	Profile    types.ContextProfile    `yaml:"profile"`
	Sources    []RunSource             `yaml:"accepted_sources"`
	Iterations []IterationSummary      `yaml:"iterations"`
	Summary    RunSummary              `yaml:"summary"`
}

// RunSource is one accepted source in a run file.
type RunSource struct {
	URL        string                `yaml:"url"`
	Title      string                `yaml:"title"`
	Tier       string                `yaml:"tier"`
	Provider   types.Provider        `yaml:"provider"`
	Scores     types.Scores          `yaml:"scores"`
	TotalScore float64               `yaml:"total_score"`
	Stage      types.EvaluationStage `yaml:"stage"`
	Reasoning  string                `yaml:"reasoning,omitempty"`
	Excerpt    string                `yaml:"accepted_excerpt"`
	Content    string                `yaml:"content,omitempty"`
}

// IterationSummary is one gate decision without its source list.
type IterationSummary struct {
	Iteration    int                  `yaml:"iteration"`
	Sufficient   bool                 `yaml:"sufficient"`
	NextAction   types.NextAction     `yaml:"next_action"`
	StrategyHint types.StrategyHint   `yaml:"strategy_hint,omitempty"`
	Stats        types.IterationStats `yaml:"stats"`
}

// RunSummary stores totals and a timestamp.
type RunSummary struct {
	Accepted   int       `yaml:"accepted"`
	Iterations int       `yaml:"iterations"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// NewRunFile converts res to its file form.
func NewRunFile(res types.ResearchResult, at time.Time) RunFile {
	rf := RunFile{
		RunID:      res.RunID,
		Topic:      res.Topic,
		Status:     res.SufficiencyStatus,
		Confidence: res.Confidence,
		Assessment: res.Assessment,
		Profile:    res.Profile,
		Summary: RunSummary{
			Accepted:   len(res.AcceptedSources),
			Iterations: len(res.Iterations),
			Timestamp:  at.UTC(),
		},
	}
	for _, s := range res.AcceptedSources {
		rf.Sources = append(rf.Sources, RunSource{
			URL:        s.Result.URL,
			Title:      s.Result.Title,
			Tier:       s.Result.Tier.String(),
			Provider:   s.Result.Provider,
			Scores:     s.Verdict.Scores,
			TotalScore: s.Verdict.TotalScore,
			Stage:      s.Verdict.Stage,
			Reasoning:  s.Verdict.Reasoning,
			Excerpt:    s.Excerpt,
			Content:    s.Result.RawContent,
		})
	}
	for _, d := range res.Iterations {
		rf.Iterations = append(rf.Iterations, IterationSummary{
			Iteration:    d.Iteration,
			Sufficient:   d.Sufficient,
			NextAction:   d.NextAction,
			StrategyHint: d.StrategyHint,
			Stats:        d.Stats,
		})
	}
	return rf
}

// WriteRunFile saves res to path as YAML.
func WriteRunFile(path string, res types.ResearchResult, at time.Time) error {
	rf := NewRunFile(res, at)
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a previously saved run file.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug returns a file-name-safe form of topic.
func Slug(topic string) string {
	s := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		return "topic"
	}
	return s
}

// TopicsFile lists the topics of a batch run. Context and ContextFile
// apply to every topic that does not set its own.
type TopicsFile struct {
	Context      string       `yaml:"context,omitempty"`
	ContextFile  string       `yaml:"context_file,omitempty"`
	OverrideFile string       `yaml:"override_file,omitempty"`
	Topics       []TopicEntry `yaml:"topics"`
}

// TopicEntry is one topic in a topics file.
type TopicEntry struct {
	Topic        string `yaml:"topic"`
	Context      string `yaml:"context,omitempty"`
	ContextFile  string `yaml:"context_file,omitempty"`
	OverrideFile string `yaml:"override_file,omitempty"`
}

// ReadTopicsFile loads a topics file and resolves it into requests.
// Relative context and override paths are resolved against the topics
// file's directory.
func ReadTopicsFile(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file: %w", err)
	}
	var tf TopicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topics file: %w", err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s lists no topics", path)
	}

	base := filepath.Dir(path)
	defaultCtx, err := contextText(base, tf.Context, tf.ContextFile)
	if err != nil {
		return nil, err
	}
	defaultOverride, err := overrideFrom(base, tf.OverrideFile)
	if err != nil {
		return nil, err
	}

	reqs := make([]Request, 0, len(tf.Topics))
	for i, t := range tf.Topics {
		if strings.TrimSpace(t.Topic) == "" {
			return nil, fmt.Errorf("topics file %s: entry %d has no topic", path, i+1)
		}
		req := Request{Topic: t.Topic, Context: defaultCtx, Override: defaultOverride}
		if t.Context != "" || t.ContextFile != "" {
			if req.Context, err = contextText(base, t.Context, t.ContextFile); err != nil {
				return nil, err
			}
		}
		if t.OverrideFile != "" {
			if req.Override, err = overrideFrom(base, t.OverrideFile); err != nil {
				return nil, err
			}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func contextText(base, inline, file string) (string, error) {
	if file == "" {
		return inline, nil
	}
	data, err := os.ReadFile(resolve(base, file))
	if err != nil {
		return "", fmt.Errorf("reading context file: %w", err)
	}
	if inline != "" {
		return inline + "\n\n" + string(data), nil
	}
	return string(data), nil
}

// ReadOverrideFile loads a context override document.
func ReadOverrideFile(path string) (*profile.Override, error) {
	return overrideFrom("", path)
}

func overrideFrom(base, file string) (*profile.Override, error) {
	if file == "" {
		return nil, nil
	}
	data, err := os.ReadFile(resolve(base, file))
	if err != nil {
		return nil, fmt.Errorf("reading context override: %w", err)
	}
	o, err := profile.ParseOverride(data)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func resolve(base, path string) string {
	if base == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
