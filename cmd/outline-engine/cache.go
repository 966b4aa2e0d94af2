// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/outline-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and invalidate the outline cache",
	Long: `Cache operates on the configured outline cache backend (memory, sqlite, or
redis). Outlines are keyed by their normalized request; invalidating by
keywords removes every cached outline for that keyword set regardless of
industry, audience, or word count.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cached outlines",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.Open(cmd.Context(), cacheConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		st, err := c.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\nEntries: %d\n", st.Backend, st.Entries)
		return nil
	},
}

// --- invalidate subcommand ---

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Remove cached outlines",
	Long: `Invalidate removes cached outlines for the --keywords set, or every cached
outline with --all.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		keywords, _ := cmd.Flags().GetStringSlice("keywords")
		all, _ := cmd.Flags().GetBool("all")

		var prefix string
		switch {
		case all:
			prefix = cache.Namespace
		case len(cache.NormalizeKeywords(keywords)) > 0:
			prefix = cache.KeywordPrefix(keywords)
		default:
			return fmt.Errorf("provide --keywords or --all")
		}

		c, err := cache.Open(cmd.Context(), cacheConfig())
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Invalidate(cmd.Context(), prefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached outline(s)\n", n)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().StringSlice("keywords", nil, "keyword set whose outlines to remove (comma-separated)")
	cacheInvalidateCmd.Flags().Bool("all", false, "remove every cached outline")

	cacheCmd.AddCommand(cacheStatsCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
