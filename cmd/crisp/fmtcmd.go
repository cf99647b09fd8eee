package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crisp-lang/crisp/pkg/cst"
	"github.com/crisp-lang/crisp/pkg/diag"
	"github.com/crisp-lang/crisp/pkg/format"
	"github.com/crisp-lang/crisp/pkg/token"
)

func fmtCmd() *cobra.Command {
	var (
		write bool
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "fmt [flags] [path...]",
		Short: "Format Crisp source files",
		Long: `Format Crisp source files according to the canonical style.

By default, fmt prints the formatted source to stdout.
Use -w to write the result back to the source file.
Use -l to list files that would be changed.`,
		Example: `  # Format a file and print to stdout
  crisp fmt tree.crisp

  # Format a file in place
  crisp fmt -w tree.crisp

  # Format every .crisp file in a directory
  crisp fmt -w ./behaviors

  # List files that need formatting
  crisp fmt -l ./behaviors`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(args, write, list)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to source file instead of stdout")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List files that would be formatted")

	return cmd
}

func runFmt(paths []string, write, list bool) error {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("accessing %s: %w", path, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return fmt.Errorf("reading directory %s: %w", path, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".crisp") {
					files = append(files, path+"/"+entry.Name())
				}
			}
		} else {
			files = append(files, path)
		}
	}

	for _, file := range files {
		if err := formatFile(file, write, list); err != nil {
			return fmt.Errorf("formatting %s: %w", file, err)
		}
	}

	return nil
}

func formatFile(path string, write, list bool) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	toks := token.Tokenize(src)
	var bag diag.Bag
	root := cst.Parse(toks, &bag)
	if bag.HasErrors() {
		for _, d := range bag.All() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, d.String())
		}
		return fmt.Errorf("%s: cannot format, source has syntax errors", path)
	}

	formatted := format.Format(root, format.DefaultOptions())
	changed := string(src) != formatted

	if list && !write {
		if changed {
			fmt.Println(path)
		}
		return nil
	}

	if write {
		if changed {
			if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
				return err
			}
			if list {
				fmt.Println(path)
			}
		}
		return nil
	}

	fmt.Print(formatted)
	return nil
}
