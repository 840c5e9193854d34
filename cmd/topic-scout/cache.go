// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topic-scout/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the verdict cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print counts of cached verdicts, archived runs, and sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(context.Background())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}
		fmt.Printf("Data directory: %s\n", st.Dir())
		fmt.Printf("Verdicts: %d\nRuns:     %d\nSources:  %d\n", stats.Verdicts, stats.Runs, stats.Sources)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove expired verdicts, or every verdict with --all",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := cache.New(cfg.Cache, st, logger).Purge(context.Background(), all)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d verdict(s)\n", n)
		return nil
	},
}

func init() {
	cacheStatsCmd.Flags().Bool("json", false, "output stats as JSON")
	cacheClearCmd.Flags().Bool("all", false, "remove every cached verdict, not only expired ones")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
