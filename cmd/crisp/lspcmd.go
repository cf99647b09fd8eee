package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/spf13/cobra"

	"github.com/crisp-lang/crisp/pkg/context"
	"github.com/crisp-lang/crisp/pkg/lsp"
	"github.com/crisp-lang/crisp/pkg/query"
)

func lspCmd(cfg *Config) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Run the Crisp language-service protocol server over stdio",
		Long: `Lsp starts the language-service protocol surface (setSource, removeFile,
addNode/removeNode/moveNode/wrapNode/unwrapNode, and the treeLayout/
treeDiagnostics push notifications) over a stdio JSON-RPC channel, for an
external editor or tree-visualizer collaborator to drive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLSP(cfg.Debug, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Path to LSP log file (stderr if not specified)")
	return cmd
}

func runLSP(debug bool, logFile string) error {
	var logDest io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.Create(logFile)
		if err != nil {
			return err
		}
		defer f.Close() //nolint:errcheck
		logDest = f
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logDest, &slog.HandlerOptions{Level: level}))

	logger.Info("starting LSP server")

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, projCfg, err := FindProjectConfig(cwd)
	if err != nil {
		return err
	}

	resolver := func(id query.FileID) (context.Descriptor, func(string) (context.Descriptor, bool)) {
		root, lookup, err := resolveContextType(projCfg)
		if err != nil {
			logger.Error("resolving context type", "error", err, "file", string(id))
			return nil, nil
		}
		return root, lookup
	}

	srv := lsp.NewServer(resolver)
	opts := &jrpc2.ServerOptions{
		AllowPush: true,
		Logger:    func(text string) { logger.Debug(text) },
	}

	err = srv.Serve(channel.Line(os.Stdin, os.Stdout), opts)
	logger.Info("LSP server closed", "error", err)
	return nil
}
