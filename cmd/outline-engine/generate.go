// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/ai"
	"github.com/pdiddy/outline-engine/internal/cache"
	"github.com/pdiddy/outline-engine/internal/pipeline"
	"github.com/pdiddy/outline-engine/internal/research"
	"github.com/pdiddy/outline-engine/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a content outline from a request and a research bundle",
	Long: `Generate drafts an outline with the configured AI provider, maps research
sources to each section, applies grounding insights, and assigns word budgets.

The request comes from --request (YAML or JSON) or from --keywords and the
related flags. The research bundle comes from --bundle; without one the outline
is generated with no sources and neutral insights.

A cached outline for an equivalent request is returned without calling the
provider. Use --no-cache to bypass the cache for one run.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}
	bundle := &types.ResearchBundle{}
	if path, _ := cmd.Flags().GetString("bundle"); path != "" {
		if bundle, err = research.LoadBundle(path); err != nil {
			return err
		}
	}
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := research.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	cfg, err := pipelineConfig()
	if err != nil {
		return err
	}
	provider, err := ai.New(cfg.AI)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
		pipeline.WithProgress(progressPrinter(cmd.ErrOrStderr())),
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
		c, err := cache.Open(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer c.Close()
		opts = append(opts, pipeline.WithCache(c))
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Generating outline for %q (%d words)\n", strings.Join(req.Keywords, ", "), req.WordCount)
	result, err := pipeline.New(provider, cfg, opts...).Generate(ctx, *req, bundle)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := prometheus.WriteToTextfile(path, reg); err != nil {
			logger.Warn("writing metrics file failed", zap.String("path", path), zap.Error(err))
		}
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := research.WriteFile(out, result, format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d sections to %s\n", len(result.Sections), out)
		return nil
	}
	return research.Write(cmd.OutOrStdout(), result, format)
}

// requestFromFlags loads --request or assembles a request from the inline
// flags. Inline flags override fields of a loaded request.
func requestFromFlags(cmd *cobra.Command) (*types.OutlineRequest, error) {
	req := &types.OutlineRequest{}
	if path, _ := cmd.Flags().GetString("request"); path != "" {
		loaded, err := research.LoadRequest(path)
		if err != nil {
			return nil, err
		}
		req = loaded
	}

	f := cmd.Flags()
	if f.Changed("keywords") {
		req.Keywords, _ = f.GetStringSlice("keywords")
	}
	if f.Changed("industry") {
		req.Industry, _ = f.GetString("industry")
	}
	if f.Changed("audience") {
		req.Audience, _ = f.GetString("audience")
	}
	if f.Changed("word-count") || req.WordCount == 0 {
		req.WordCount, _ = f.GetInt("word-count")
	}
	if f.Changed("instructions") {
		req.CustomInstructions, _ = f.GetString("instructions")
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// progressPrinter writes one line per pipeline state change. Hooks run on
// their own goroutines, so writes are serialized.
func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	var mu sync.Mutex
	return func(p pipeline.Progress) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "  [%s] %s\n", p.At.Format("15:04:05.000"), strings.ToLower(string(p.State)))
	}
}

func init() {
	f := generateCmd.Flags()
	f.String("request", "", "path to an outline request file (YAML or JSON)")
	f.String("bundle", "", "path to a research bundle file (YAML or JSON)")
	f.StringSlice("keywords", nil, "target keywords (comma-separated)")
	f.String("industry", "", "industry context")
	f.String("audience", "", "target audience")
	f.Int("word-count", 1500, "total target words for the outline")
	f.String("instructions", "", "custom instructions for the outline")
	f.String("format", "yaml", "output format: yaml or json")
	f.StringP("output", "o", "", "write the outline to this file instead of stdout")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")
	f.Bool("no-cache", false, "bypass the outline cache")

	f.String("provider", "claude", "AI provider: claude or openai")
	f.String("model", "", "AI model identifier (provider default when empty)")
	f.Float64("temperature", 0.7, "sampling temperature")
	f.Int("max-tokens", 4096, "maximum response tokens")
	f.Duration("timeout", 0, "per-request AI timeout (provider default when zero)")
	f.Int("max-attempts", 3, "outline synthesis attempts")
	f.Duration("retry-delay", 0, "wait between synthesis attempts (5s when zero)")
	f.Bool("validate", false, "ask the provider to validate source mappings")
	f.Float64("min-confidence", 0.6, "validator confidence required to replace a mapping")
	f.Bool("skip-optimization", false, "skip the AI optimization pass over the enhanced outline")
	f.String("focus", "", "optimization focus")

	bindFlags(f, map[string]string{
		"provider":          "ai.provider",
		"model":             "ai.model",
		"temperature":       "ai.temperature",
		"max-tokens":        "ai.max_tokens",
		"timeout":           "ai.timeout",
		"max-attempts":      "synthesis.max_attempts",
		"retry-delay":       "synthesis.retry_delay",
		"validate":          "mapping.validate",
		"min-confidence":    "mapping.min_confidence",
		"skip-optimization": "optimization.disabled",
		"focus":             "optimization.focus",
	})
	viper.SetDefault("mapping.validation_timeout", "30s")

	rootCmd.AddCommand(generateCmd)
}
