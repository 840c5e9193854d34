// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-scout/internal/gate"
	"github.com/pdiddy/topic-scout/internal/metrics"
	"github.com/pdiddy/topic-scout/internal/research"
	"github.com/pdiddy/topic-scout/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and print the accepted sources",
	Long: `Research runs the retrieval loop for one topic, or for every topic in a
topics file. Project context from --context-file steers disambiguation and
query construction; --context-override corrects the extracted profile with
a JSON document.

The result is printed as a table, JSON, or YAML. With --output the run is
also written as a YAML run file (a directory when --topics-file is used).`,
	Args: cobra.ArbitraryArgs,
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	topicsFile, _ := cmd.Flags().GetString("topics-file")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")
	countOnly, _ := cmd.Flags().GetBool("count-only")
	strict, _ := cmd.Flags().GetBool("strict")
	if countOnly && strict {
		return fmt.Errorf("--count-only and --strict cannot be combined")
	}
	parallel, _ := cmd.Flags().GetInt("parallel")

	switch format {
	case "table", "json", "yaml", "csl":
	default:
		return fmt.Errorf("unsupported format %q: use table, json, yaml, or csl", format)
	}

	reqs, err := requestsFromFlags(cmd, args, topicsFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	sufficient := gate.Default
	switch {
	case countOnly:
		sufficient = gate.CountOnly
	case strict:
		sufficient = gate.Strict
	}
	a, err := newApp(cfg, logger, sufficient)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []types.ResearchResult
	if topicsFile == "" {
		fmt.Fprintf(os.Stderr, "Researching %q\n", reqs[0].Topic)
		res, err := a.runner.Run(ctx, reqs[0])
		if err != nil {
			return err
		}
		results = append(results, res)
		if output != "" {
			if err := research.WriteRunFile(output, res, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Run file written to %s\n", output)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Researching %d topics from %s\n", len(reqs), topicsFile)
		batch, err := a.runner.RunBatch(ctx, reqs, parallel)
		if err != nil {
			return err
		}
		failed := 0
		for _, br := range batch {
			if br.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "  %s: %v\n", br.Request.Topic, br.Err)
				continue
			}
			results = append(results, br.Result)
			if output != "" {
				path := filepath.Join(output, research.Slug(br.Result.Topic)+".yaml")
				if err := research.WriteRunFile(path, br.Result, time.Now()); err != nil {
					return err
				}
			}
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "Run files written to %s\n", output)
		}
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d topic(s) failed\n", failed, len(reqs))
		}
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile, a.registry); err != nil {
			return err
		}
	}
	return printResults(os.Stdout, results, format)
}

func requestsFromFlags(cmd *cobra.Command, args []string, topicsFile string) ([]research.Request, error) {
	if topicsFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("give either a topic or --topics-file, not both")
		}
		return research.ReadTopicsFile(topicsFile)
	}

	topic := strings.TrimSpace(strings.Join(args, " "))
	if topic == "" {
		return nil, fmt.Errorf("topic required: provide a topic argument or --topics-file")
	}
	req := research.Request{Topic: topic}

	contextFile, _ := cmd.Flags().GetString("context-file")
	if contextFile != "" {
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return nil, fmt.Errorf("reading context file: %w", err)
		}
		req.Context = string(data)
	}
	overrideFile, _ := cmd.Flags().GetString("context-override")
	if overrideFile != "" {
		o, err := research.ReadOverrideFile(overrideFile)
		if err != nil {
			return nil, err
		}
		req.Override = o
	}
	return []research.Request{req}, nil
}

func printResults(w io.Writer, results []types.ResearchResult, format string) error {
	switch format {
	case "csl":
		return research.FormatCSL(results, w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	case "yaml":
		files := make([]research.RunFile, len(results))
		for i, r := range results {
			files[i] = research.NewRunFile(r, time.Now())
		}
		var v any = files
		if len(files) == 1 {
			v = files[0]
		}
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling results: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printTable(w, r)
	}
	return nil
}

func printTable(w io.Writer, r types.ResearchResult) {
	fmt.Fprintf(w, "Topic: %s\n", r.Topic)
	fmt.Fprintf(w, "Status: %s  Confidence: %.1f (%s, %d/100)  Iterations: %d  Run: %s\n",
		r.SufficiencyStatus, r.Confidence, r.Assessment.Level, r.Assessment.Score, len(r.Iterations), r.RunID)
	for _, issue := range r.Assessment.Issues {
		mark := "warning"
		if issue.Blocking {
			mark = "issue"
		}
		fmt.Fprintf(w, "  %s: %s\n", mark, issue.Message)
	}
	fmt.Fprintln(w)

	if len(r.AcceptedSources) == 0 {
		fmt.Fprintln(w, "No sources accepted.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-8s  %-5s  %-5s  %-45s  %s\n", "Rank", "Tier", "Total", "Rel", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for i, s := range r.AcceptedSources {
		fmt.Fprintf(w, "%-4d  %-8s  %-5.1f  %-5.1f  %-45s  %s\n",
			i+1, s.Result.Tier, s.Verdict.TotalScore, s.Verdict.Scores.Relevance,
			truncate(s.Result.Title, 45), s.Result.URL)
	}
	fmt.Fprintf(w, "\n%d sources\n", len(r.AcceptedSources))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	researchCmd.Flags().String("context-file", "", "file with free-text project context")
	researchCmd.Flags().String("context-override", "", "JSON file correcting the extracted context profile")
	researchCmd.Flags().String("topics-file", "", "YAML file listing topics to research in one batch")
	researchCmd.Flags().String("format", "table", "output format: table, json, yaml, or csl (accepted sources as CSL-YAML)")
	researchCmd.Flags().String("output", "", "write the run file here (a directory with --topics-file)")
	researchCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
	researchCmd.Flags().Bool("count-only", false, "judge sufficiency by accepted-source count alone")
	researchCmd.Flags().Bool("strict", false, "also require a balanced source mix (reliability, consulting and media caps, a primary source)")
	researchCmd.Flags().Int("parallel", 2, "topics researched concurrently with --topics-file")
	researchCmd.Flags().Int("max-retries", 0, "retry iterations after the first pass (overrides gate.max_retries)")
	researchCmd.Flags().Int("min-sources", 0, "accepted-source floor, -1 for unbounded (overrides gate.min_accepted_sources)")

	_ = viper.BindPFlag("gate.max_retries", researchCmd.Flags().Lookup("max-retries"))
	_ = viper.BindPFlag("gate.min_accepted_sources", researchCmd.Flags().Lookup("min-sources"))

	rootCmd.AddCommand(researchCmd)
}
