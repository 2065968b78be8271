// Package cli implements the pangenomerge command-line interface.
//
// Commands:
//   - merge: fold a sequence of pangenome graphs into one cumulative graph
//   - validate: score a merged graph against a truth graph
//   - render: draw a graph as DOT, SVG, PDF or PNG
//   - inspect: browse the gene families of a graph interactively
//   - cache: manage the similarity-search cache
//
// All commands accept --verbose (-v) for debug logging. Progress and
// diagnostics go to stderr through charmbracelet/log; results are printed to
// stdout.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangenomerge/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is used for cache directories and display.
const appName = "pangenomerge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Merge pangenome graphs iteratively",
		Long: `pangenomerge folds independently built pangenome graphs into one cumulative
graph. Gene families are matched by sequence similarity, their adjacencies
are unioned, and duplicated families are collapsed by gene-neighborhood
context.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.mergeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/pangenomerge/).
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
