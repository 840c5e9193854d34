// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// ErrRunNotFound is returned by Run for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const defaultMaxResults = 20

// SaveRun archives a finished run and its accepted sources in one
// transaction. Saving the same run ID again replaces it.
func (s *Store) SaveRun(ctx context.Context, res types.ResearchResult, at time.Time) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, res.RunID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, topic, status, confidence, iterations, result, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Topic, string(res.SufficiencyStatus), res.Confidence,
		len(res.Iterations), string(data), formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO sources (run_id, url, title, tier, total_score, relevance, excerpt)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, src := range res.AcceptedSources {
		_, err := stmt.ExecContext(ctx,
			res.RunID, src.Result.URL, src.Result.Title, int(src.Result.Tier),
			src.Verdict.TotalScore, src.Verdict.Scores.Relevance, src.Excerpt,
		)
		if err != nil {
			return fmt.Errorf("inserting source %s: %w", src.Result.URL, err)
		}
	}

	return tx.Commit()
}

// Run loads an archived run and the time it was saved.
func (s *Store) Run(ctx context.Context, id string) (types.ResearchResult, time.Time, error) {
	var raw, created string
	err := s.db.QueryRowContext(ctx, `SELECT result, created_at FROM runs WHERE id = ?`, id).Scan(&raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ResearchResult{}, time.Time{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return types.ResearchResult{}, time.Time{}, fmt.Errorf("reading run: %w", err)
	}
	var res types.ResearchResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return types.ResearchResult{}, time.Time{}, fmt.Errorf("decoding run %s: %w", id, err)
	}
	at, _ := time.Parse(timeLayout, created)
	return res, at, nil
}

// SourceQuery holds parameters for searching archived sources.
type SourceQuery struct {
	// Query is an FTS5 match expression over title and excerpt.
	Query string

	// Topic filters by the exact run topic.
	Topic string

	// MinScore filters by total score.
	MinScore float64

	// MaxResults limits result count. Zero uses the default of 20.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q SourceQuery) IsEmpty() bool {
	return q.Query == "" && q.Topic == "" && q.MinScore == 0
}

// SourceHit is an archived accepted source.
type SourceHit struct {
	RunID      string     `json:"run_id" yaml:"run_id"`
	Topic      string     `json:"topic" yaml:"topic"`
	URL        string     `json:"url" yaml:"url"`
	Title      string     `json:"title" yaml:"title"`
	Tier       types.Tier `json:"tier" yaml:"tier"`
	TotalScore float64    `json:"total_score" yaml:"total_score"`
	Relevance  float64    `json:"relevance" yaml:"relevance"`
	Excerpt    string     `json:"accepted_excerpt" yaml:"accepted_excerpt"`
}

// SearchSources queries archived sources with optional full-text search
// and filters. Full-text results are ranked by relevance; filter-only
// results are sorted by score, best first.
func (s *Store) SearchSources(ctx context.Context, q SourceQuery) ([]SourceHit, error) {
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = q.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT s.run_id, r.topic, s.url, s.title, s.tier, s.total_score, s.relevance, s.excerpt
			FROM sources_fts
			JOIN sources s ON s.rowid = sources_fts.rowid
			JOIN runs r ON r.id = s.run_id
			WHERE sources_fts MATCH ?`)
		args = append(args, q.Query)
	} else {
		qb.WriteString(
			`SELECT s.run_id, r.topic, s.url, s.title, s.tier, s.total_score, s.relevance, s.excerpt
			FROM sources s
			JOIN runs r ON r.id = s.run_id
			WHERE 1=1`)
	}

	if q.Topic != "" {
		qb.WriteString(` AND r.topic = ?`)
		args = append(args, q.Topic)
	}
	if q.MinScore > 0 {
		qb.WriteString(` AND s.total_score >= ?`)
		args = append(args, q.MinScore)
	}

	if useFTS {
		qb.WriteString(` ORDER BY sources_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY s.total_score DESC, s.url`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var hits []SourceHit
	for rows.Next() {
		var (
			h       SourceHit
			title   sql.NullString
			excerpt sql.NullString
			tier    int
		)
		if err := rows.Scan(&h.RunID, &h.Topic, &h.URL, &title, &tier, &h.TotalScore, &h.Relevance, &excerpt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Title = title.String
		h.Excerpt = excerpt.String
		h.Tier = types.Tier(tier)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
