// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// GetVerdict returns the verdict stored under key if it was written after
// notBefore.
func (s *Store) GetVerdict(ctx context.Context, key string, notBefore time.Time) (types.EvaluationVerdict, bool, error) {
	var raw, created string
	err := s.db.QueryRowContext(ctx,
		`SELECT verdict, created_at FROM verdicts WHERE key = ?`, key,
	).Scan(&raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return types.EvaluationVerdict{}, false, nil
	}
	if err != nil {
		return types.EvaluationVerdict{}, false, fmt.Errorf("reading verdict: %w", err)
	}

	at, err := time.Parse(timeLayout, created)
	if err != nil || at.Before(notBefore) {
		return types.EvaluationVerdict{}, false, nil
	}

	var v types.EvaluationVerdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return types.EvaluationVerdict{}, false, fmt.Errorf("decoding verdict %s: %w", key, err)
	}
	return v, true, nil
}

// PutVerdict stores v under key, replacing any earlier verdict.
func (s *Store) PutVerdict(ctx context.Context, key string, v types.EvaluationVerdict, at time.Time) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verdicts (key, url, excerpt_hash, verdict, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET verdict=excluded.verdict, created_at=excluded.created_at`,
		key, v.URL, v.ExcerptHash, string(data), formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("writing verdict: %w", err)
	}
	return nil
}

// PurgeVerdicts deletes verdicts written before cutoff and returns how
// many were removed. A zero cutoff removes every verdict.
func (s *Store) PurgeVerdicts(ctx context.Context, cutoff time.Time) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if cutoff.IsZero() {
		res, err = s.db.ExecContext(ctx, `DELETE FROM verdicts`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM verdicts WHERE created_at < ?`,
			formatTime(cutoff))
	}
	if err != nil {
		return 0, fmt.Errorf("purging verdicts: %w", err)
	}
	return res.RowsAffected()
}
