package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/crisp-lang/crisp/pkg/query"
)

func checkCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Type-check Crisp source files",
		Long: `Check runs the full analysis pipeline (parse, lower, resolve, type-check)
over one or more source files and reports every diagnostic. With no paths
given, it checks the files a crisp.toml project declares.

The context type used for name/type resolution comes from crisp.toml's
[context] table, if present; otherwise check falls back to the bundled
DemoAgent sandbox type (see "crisp run --help").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}
	return cmd
}

func runCheck(paths []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfgPath, cfg, err := FindProjectConfig(cwd)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		if cfg == nil || len(cfg.Sources) == 0 {
			return fmt.Errorf("no paths given and no crisp.toml project found with [sources] declared")
		}
		for _, src := range cfg.Sources {
			if !filepath.IsAbs(src) {
				src = filepath.Join(filepath.Dir(cfgPath), src)
			}
			paths = append(paths, src)
		}
	}

	root, lookup, err := resolveContextType(cfg)
	if err != nil {
		return fmt.Errorf("resolving context type: %w", err)
	}

	store := query.NewStore()
	anyErrors := false

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		id := query.FileID(path)
		store.SetSourceText(id, string(src))
		store.SetContextType(id, root, lookup)

		_, ok := store.TypeCheck(id)
		bag := store.AllDiagnostics(id)
		for _, d := range bag.All() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, d.String())
		}
		if !ok || bag.HasErrors() {
			anyErrors = true
			continue
		}
		fmt.Printf("%s: OK\n", path)
	}

	if anyErrors {
		return fmt.Errorf("check failed")
	}
	return nil
}
