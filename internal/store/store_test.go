// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleVerdict(url string) types.EvaluationVerdict {
	return types.EvaluationVerdict{
		URL:         url,
		Scores:      types.Scores{Authenticity: 8, Reliability: 7, Relevance: 9, Currency: 6},
		TotalScore:  7.5,
		Accepted:    true,
		Stage:       types.StageTriaged,
		ExcerptHash: "0123456789abcdef",
		EvaluatedAt: t0,
	}
}

func sampleRun(id, topic string) types.ResearchResult {
	src := func(url, title, excerpt string, tier types.Tier, total float64) types.AcceptedSource {
		v := sampleVerdict(url)
		v.TotalScore = total
		return types.AcceptedSource{
			Result:  types.SearchResult{URL: url, Title: title, Tier: tier},
			Verdict: v,
			Excerpt: excerpt,
		}
	}
	return types.ResearchResult{
		RunID:             id,
		Topic:             topic,
		SufficiencyStatus: types.StatusBestEffort,
		Confidence:        8,
		AcceptedSources: []types.AcceptedSource{
			src("https://a.com/backlog", "ACS backlog grows", "Record backlog in toll highways.", types.TierNone, 7.5),
			src("https://ft.com/acs", "ACS outlook", "Analysts expect margins to rise in Spain.", types.TierPremium, 8.5),
		},
		Iterations: []types.GateDecision{{Iteration: 0, NextAction: types.ActionRetry}, {Iteration: 1, NextAction: types.ActionStopExhausted}},
	}
}

// --- schema ---

func TestOpenCreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		s, err := Open(dir)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

// --- verdicts ---

func TestVerdictRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := sampleVerdict("https://a.com/x")

	if err := s.PutVerdict(ctx, "https://a.com/x|0123456789abcdef", v, t0); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetVerdict(ctx, "https://a.com/x|0123456789abcdef", t0.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("verdict not found")
	}
	if got.TotalScore != v.TotalScore || got.Scores != v.Scores || !got.EvaluatedAt.Equal(v.EvaluatedAt) {
		t.Errorf("got %+v, want %+v", got, v)
	}
}

func TestGetVerdictExpired(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if err := s.PutVerdict(ctx, "k", sampleVerdict("https://a.com/x"), t0); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.GetVerdict(ctx, "k", t0.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected verdict written before notBefore to be a miss")
	}

	_, ok, _ = s.GetVerdict(ctx, "missing", time.Time{})
	if ok {
		t.Error("expected unknown key to be a miss")
	}
}

func TestPutVerdictReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := sampleVerdict("https://a.com/x")
	s.PutVerdict(ctx, "k", v, t0)
	v.TotalScore = 3
	if err := s.PutVerdict(ctx, "k", v, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.GetVerdict(ctx, "k", t0.Add(30*time.Second))
	if err != nil || !ok {
		t.Fatalf("GetVerdict: ok=%v err=%v", ok, err)
	}
	if got.TotalScore != 3 {
		t.Errorf("TotalScore = %v, want 3", got.TotalScore)
	}
}

func TestPurgeVerdicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.PutVerdict(ctx, "old", sampleVerdict("https://a.com/1"), t0)
	s.PutVerdict(ctx, "new", sampleVerdict("https://a.com/2"), t0.Add(48*time.Hour))

	n, err := s.PurgeVerdicts(ctx, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}

	n, err = s.PurgeVerdicts(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
}

// --- runs ---

func TestSaveAndLoadRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", "ACS market position")

	if err := s.SaveRun(ctx, run, t0); err != nil {
		t.Fatal(err)
	}
	got, at, err := s.Run(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if !at.Equal(t0) {
		t.Errorf("saved at %v, want %v", at, t0)
	}
	if got.Topic != run.Topic || len(got.AcceptedSources) != 2 || len(got.Iterations) != 2 {
		t.Errorf("loaded run %+v does not match saved run", got)
	}

	// Saving again replaces rather than duplicating sources.
	if err := s.SaveRun(ctx, run, t0); err != nil {
		t.Fatal(err)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Runs != 1 || st.Sources != 2 {
		t.Errorf("stats = %+v, want 1 run and 2 sources", st)
	}
}

func TestRunNotFound(t *testing.T) {
	s := testStore(t)
	_, _, err := s.Run(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestSearchSourcesFullText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.SaveRun(ctx, sampleRun("run-1", "ACS market position"), t0)
	s.SaveRun(ctx, sampleRun("run-2", "Ferrovial outlook"), t0)

	tests := []struct {
		name  string
		q     SourceQuery
		want  int
		match string
	}{
		{"excerpt term", SourceQuery{Query: "margins"}, 2, "https://ft.com/acs"},
		{"title term", SourceQuery{Query: "backlog"}, 2, "https://a.com/backlog"},
		{"topic filter", SourceQuery{Query: "backlog", Topic: "Ferrovial outlook"}, 1, "https://a.com/backlog"},
		{"no match", SourceQuery{Query: "xyzzy"}, 0, ""},
		{"score filter", SourceQuery{MinScore: 8}, 2, "https://ft.com/acs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := s.SearchSources(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(hits) != tt.want {
				t.Fatalf("got %d hits, want %d", len(hits), tt.want)
			}
			for _, h := range hits {
				if h.URL != tt.match {
					t.Errorf("unexpected hit %s", h.URL)
				}
			}
		})
	}
}

func TestSearchSourcesSortsByScore(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.SaveRun(ctx, sampleRun("run-1", "ACS market position"), t0)

	hits, err := s.SearchSources(ctx, SourceQuery{Topic: "ACS market position", MaxResults: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].URL != "https://ft.com/acs" || hits[0].Tier != types.TierPremium {
		t.Errorf("hits = %+v, want the premium source first", hits)
	}
}

func TestSourceQueryIsEmpty(t *testing.T) {
	if !(SourceQuery{MaxResults: 5}).IsEmpty() {
		t.Error("MaxResults alone should be empty")
	}
	if (SourceQuery{Topic: "x"}).IsEmpty() {
		t.Error("topic filter should not be empty")
	}
}

// --- export ---

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	s.SaveRun(ctx, sampleRun("run-1", "ACS market position"), t0)

	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := s.ExportYAML(ctx, path, SourceQuery{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var hits []SourceHit
	if err := yaml.Unmarshal(data, &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("exported %d sources, want 2", len(hits))
	}
	if !strings.Contains(string(data), "accepted_excerpt:") {
		t.Error("export is missing accepted_excerpt")
	}
}

func TestExportJSONEmpty(t *testing.T) {
	s := testStore(t)
	path := filepath.Join(t.TempDir(), "sources.json")
	if err := s.ExportJSON(context.Background(), path, SourceQuery{Query: "nothing"}); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var hits []SourceHit
	if err := json.Unmarshal(data, &hits); err != nil {
		t.Fatal(err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("want empty array, got %s", data)
	}
}
