// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-scout/pkg/types"
)

// CSLItem is a bibliographic entry in CSL (Citation Style Language)
// format. Field names follow the CSL-YAML schema so output can be fed to
// Pandoc and reference managers.
type CSLItem struct {
	ID             string   `yaml:"id"`
	Type           string   `yaml:"type"`
	Title          string   `yaml:"title"`
	ContainerTitle string   `yaml:"container-title,omitempty"`
	URL            string   `yaml:"URL"`
	Abstract       string   `yaml:"abstract,omitempty"`
	Accessed       *CSLDate `yaml:"accessed,omitempty"`
	Note           string   `yaml:"note,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes the accepted sources of results as one CSL-YAML list.
// Item IDs are unique across the list.
func FormatCSL(results []types.ResearchResult, w io.Writer) error {
	var items []CSLItem
	used := make(map[string]bool)
	for _, res := range results {
		for _, s := range res.AcceptedSources {
			item := toCSLItem(s)
			id := item.ID
			for n := 2; used[id]; n++ {
				id = fmt.Sprintf("%s-%d", item.ID, n)
			}
			used[id] = true
			item.ID = id
			items = append(items, item)
		}
	}
	if items == nil {
		items = []CSLItem{}
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(s types.AcceptedSource) CSLItem {
	host := hostLabel(s.Result.URL)
	item := CSLItem{
		ID:             Slug(host + " " + s.Result.Title),
		Type:           "webpage",
		Title:          s.Result.Title,
		ContainerTitle: host,
		URL:            s.Result.URL,
		Abstract:       s.Excerpt,
		Note:           fmt.Sprintf("%s source, score %.1f", s.Result.Tier, s.Verdict.TotalScore),
	}
	if item.Title == "" {
		item.Title = s.Result.URL
	}
	if at := s.Verdict.EvaluatedAt; !at.IsZero() {
		item.Accessed = dateParts(at)
	}
	return item
}

func dateParts(t time.Time) *CSLDate {
	t = t.UTC()
	return &CSLDate{DateParts: [][]int{{t.Year(), int(t.Month()), t.Day()}}}
}

func hostLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
