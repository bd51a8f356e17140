// Package cli implements the dengraph command-line interface.
//
// This package provides commands for building denominator graphs from
// weighted automata, inspecting built artifacts, rendering diagrams, and
// managing the artifact cache. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - build: Construct a denominator graph from an automaton
//   - inspect: Summarize a built denominator-graph artifact
//   - render: Generate DOT, SVG, or PNG diagrams of an automaton
//   - cache: Manage the local artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gosperisland/dengraph/pkg/buildinfo"
	"github.com/gosperisland/dengraph/pkg/cache"
	"github.com/gosperisland/dengraph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "dengraph"

// Environment variables for the shared cache backend.
const (
	envRedisAddr     = "DENGRAPH_REDIS_ADDR"
	envRedisPassword = "DENGRAPH_REDIS_PASSWORD"
	envCacheScope    = "DENGRAPH_CACHE_SCOPE"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "dengraph",
		Short:        "dengraph builds denominator graphs from weighted automata",
		Long:         `dengraph turns an epsilon-free weighted automaton into the flat transition index, initial occupancy distribution, and normalization automaton used by sequence-training workers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, newKeyer(), c.Logger), nil
}

// newCache selects the cache backend: Redis when DENGRAPH_REDIS_ADDR is set
// (training farms share one), otherwise a local file cache.
func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if addr := os.Getenv(envRedisAddr); addr != "" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     addr,
			Password: os.Getenv(envRedisPassword),
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newKeyer wraps the default keyer in a scope prefix when
// DENGRAPH_CACHE_SCOPE is set, so experiments on a shared Redis don't
// collide.
func newKeyer() cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if scope := os.Getenv(envCacheScope); scope != "" {
		keyer = cache.NewScopedKeyer(keyer, scope)
	}
	return keyer
}

// cacheDir returns the cache directory using XDG standard (~/.cache/dengraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	return strings.Split(s, ",")
}
