// Package cli implements the flatdoc command-line interface.
//
// # Commands
//
//   - fmt: parse a document and write it back in canonical layout
//   - dump: print the physical node array
//   - query: evaluate a JSONPath expression
//   - yaml: convert a document to YAML
//   - diff: compare two documents after normalizing them
//   - db: store and retrieve documents in a Bolt database
//
// # Configuration
//
// Settings come from an optional TOML file (--config) and are overridden by
// command-line flags. See Config.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/andreyvit/flatdoc"
)

const appName = "flatdoc"

// Version is set at build time via -ldflags.
var Version = "dev"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Stdin  io.Reader
	Stdout io.Writer

	configPath string
	flags      Config
	cfg        Config
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		flags:  DefaultConfig(),
		cfg:    DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) verbose() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// slogger exposes the CLI logger to library code that logs through slog.
func (c *CLI) slogger() *slog.Logger {
	return slog.New(c.Logger)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "flatdoc reads, rewrites and stores JSON-like documents",
		Long:         `flatdoc loads JSON-like documents into a flat breadth-first node array and offers formatting, inspection, querying and storage on top of it.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "TOML configuration file")
	pf.StringVar(&c.flags.Indent, "indent", c.flags.Indent, "indentation unit")
	pf.IntVar(&c.flags.IntWidth, "int-width", c.flags.IntWidth, "integer width in bits (32 or 64)")
	pf.IntVar(&c.flags.FloatWidth, "float-width", c.flags.FloatWidth, "float width in bits (32 or 64)")
	pf.StringVar(&c.flags.DuplicateKeys, "duplicate-keys", c.flags.DuplicateKeys, "duplicate key policy: keep-first, overwrite or reject")
	pf.StringVar(&c.flags.Color, "color", c.flags.Color, "colorize output: auto, always or never")
	pf.BoolVar(&c.flags.Mmap, "mmap", c.flags.Mmap, "memory-map input files")

	root.AddCommand(c.fmtCommand())
	root.AddCommand(c.dumpCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.yamlCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.dbCommand())

	return root
}

func (c *CLI) treeOptions() (flatdoc.Options, error) {
	return c.cfg.TreeOptions()
}
