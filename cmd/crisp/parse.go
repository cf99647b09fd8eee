package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/token"
)

func parseCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a source file and report syntax diagnostics",
		Long: `Parse tokenizes and parses a Crisp source file, reporting any syntax
diagnostics. With --debug, also dumps the parse tree's structure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], cfg.Debug)
		},
	}
	return cmd
}

func runParse(path string, debug bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	toks := token.Tokenize(src)
	var bag diag.Bag
	root := cst.Parse(toks, &bag)

	if debug {
		_, _ = pretty.Println(root)
	}

	for _, d := range bag.All() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, d.String())
	}
	if bag.HasErrors() {
		return fmt.Errorf("%s: parse failed with %d diagnostic(s)", path, bag.Len())
	}
	fmt.Printf("%s: OK\n", path)
	return nil
}
