// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-scout/internal/research"
	"github.com/pdiddy/topic-scout/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Search, show, and export archived sources",
	Long: `Sources queries the archive of accepted sources built up by research
runs. Full-text search covers titles and accepted excerpts.`,
}

// --- search subcommand ---

var sourcesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Query archived sources with full-text search and filters",
	RunE:  runSourcesSearch,
}

func runSourcesSearch(cmd *cobra.Command, args []string) error {
	q := sourceQueryFromFlags(cmd, args)
	if q.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --topic, or --min-score")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hits, err := st.SearchSources(context.Background(), q)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-8s  %-40s  %-25s  %s\n",
		"Rank", "Total", "Tier", "Title", "Topic", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))
	for i, h := range hits {
		fmt.Fprintf(os.Stdout, "%-4d  %-5.1f  %-8s  %-40s  %-25s  %s\n",
			i+1, h.TotalScore, h.Tier, truncate(h.Title, 40), truncate(h.Topic, 25), h.URL)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(hits))
	return nil
}

// --- show subcommand ---

var sourcesShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print an archived run as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		res, at, err := st.Run(context.Background(), args[0])
		if err != nil {
			return err
		}
		rf := research.NewRunFile(res, at)
		data, err := yaml.Marshal(&rf)
		if err != nil {
			return fmt.Errorf("marshaling run: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

// --- export subcommand ---

var sourcesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived sources to YAML or JSON",
	RunE:  runSourcesExport,
}

func runSourcesExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = "sources." + format
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	q := sourceQueryFromFlags(cmd, args)
	switch format {
	case "yaml":
		err = st.ExportYAML(context.Background(), output, q)
	case "json":
		err = st.ExportJSON(context.Background(), output, q)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", output)
	return nil
}

// --- shared helpers ---

func openStore() (*store.Store, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Dir == "" {
		return nil, fmt.Errorf("no data directory configured: set cache.dir or --data-dir")
	}
	return store.Open(cfg.Cache.Dir)
}

func sourceQueryFromFlags(cmd *cobra.Command, args []string) store.SourceQuery {
	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	topic, _ := cmd.Flags().GetString("topic")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.SourceQuery{
		Query:      queryText,
		Topic:      topic,
		MinScore:   minScore,
		MaxResults: limit,
	}
}

func init() {
	for _, c := range []*cobra.Command{sourcesSearchCmd, sourcesExportCmd} {
		c.Flags().String("query", "", "full-text search query")
		c.Flags().String("topic", "", "filter by run topic")
		c.Flags().Float64("min-score", 0, "filter by minimum total score")
		c.Flags().Int("limit", 0, "maximum results (0 = use default)")
	}
	sourcesSearchCmd.Flags().Bool("json", false, "output results as JSON")

	sourcesExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	sourcesExportCmd.Flags().String("output", "", "export file (default: sources.<format>)")

	sourcesCmd.AddCommand(sourcesSearchCmd)
	sourcesCmd.AddCommand(sourcesShowCmd)
	sourcesCmd.AddCommand(sourcesExportCmd)

	rootCmd.AddCommand(sourcesCmd)
}
