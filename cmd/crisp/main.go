package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Config holds flags shared across subcommands.
type Config struct {
	Debug bool
}

func main() {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "crisp",
		Short: "Crisp behavior-tree DSL toolchain",
		Long: `Crisp compiles and runs the Crisp behavior-tree authoring language:
parse, format, type-check, and tick example trees from the command line.`,
		Example: `  # Type-check every source file a crisp.toml project declares
  crisp check

  # Format a file and print the canonical rendering to stdout
  crisp fmt tree.crisp

  # Tick a tree against the bundled demo sandbox context
  crisp run tree.crisp MyTree --ticks 5`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.Debug)
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging and interpreter/parser trace dumps")

	rootCmd.AddCommand(
		parseCmd(&cfg),
		fmtCmd(),
		checkCmd(&cfg),
		runCmd(&cfg),
		lspCmd(&cfg),
	)

	ctx := context.Background()
	if err := fang.Execute(ctx, rootCmd,
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs a tint handler for readable, colorized terminal
// diagnostics, matching dang's --debug-raises-level convention.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(logger)
}
