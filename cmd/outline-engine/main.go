// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the outline-engine CLI. It turns a
// keyword request and a research bundle into a content outline with mapped
// sources, grounding insights, and per-section word budgets.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/outline-engine/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE; it is a no-op until then.
var logger = zap.NewNop()

// rootCmd is the base command for the outline-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "outline-engine",
	Short: "Research-grounded content outline generation",
	Long: `outline-engine generates structured content outlines from a keyword request
and a research bundle. An AI provider drafts the outline; the engine maps
research sources to sections, extracts grounding insights, optionally asks the
provider to validate and optimize, and allocates a word budget per section.

Finished outlines are cached by request so repeated runs are free.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(viper.GetBool("verbose"))
		if err != nil {
			return err
		}
		logger = l

		if err := loadDotEnv(".env"); err != nil {
			return err
		}

		s, err := secrets.Load(viper.GetString("secrets-dir"), logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./outline-engine.yaml or ~/.config/outline-engine/outline-engine.yaml)")
	pf.Bool("verbose", false, "development logging at debug level")
	pf.String("secrets-dir", ".secrets/", "directory of API key files")

	pf.String("cache-backend", string(defaultCacheBackend), "outline cache: memory, sqlite, or redis")
	pf.String("cache-dir", ".outline-cache", "directory for the sqlite cache")
	pf.String("redis-addr", "localhost:6379", "redis host:port or redis:// URL")
	pf.Int("redis-db", 0, "redis logical database")

	bindFlags(pf, map[string]string{
		"verbose":       "verbose",
		"secrets-dir":   "secrets-dir",
		"cache-backend": "cache.backend",
		"cache-dir":     "cache.dir",
		"redis-addr":    "cache.redis_addr",
		"redis-db":      "cache.redis_db",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("outline-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "outline-engine"))
		}
	}

	viper.SetEnvPrefix("OUTLINE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// loadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
