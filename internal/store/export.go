// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes the archived sources matching q to path.
func (s *Store) ExportYAML(ctx context.Context, path string, q SourceQuery) error {
	hits, err := s.exportHits(ctx, q)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(hits)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the archived sources matching q to path.
func (s *Store) ExportJSON(ctx context.Context, path string, q SourceQuery) error {
	hits, err := s.exportHits(ctx, q)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportHits(ctx context.Context, q SourceQuery) ([]SourceHit, error) {
	q.MaxResults = exportLimit
	hits, err := s.SearchSources(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if hits == nil {
		hits = []SourceHit{}
	}
	return hits, nil
}
