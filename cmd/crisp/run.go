package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/crisp-lang/crisp/pkg/interp"
	"github.com/crisp-lang/crisp/pkg/query"
)

func runCmd(cfg *Config) *cobra.Command {
	var ticks int
	var dt float32

	cmd := &cobra.Command{
		Use:   "run <file> <tree>",
		Short: "Tick a tree against the bundled demo sandbox context",
		Long: `Run compiles a source file and ticks the named tree repeatedly against
DemoAgent, a small bundled sandbox context (see cmd/crisp/demo.go), printing
the BtStatus returned each tick.

A real project ticks its own host types by importing pkg/interp directly —
cmd/crisp has no way to instantiate an arbitrary compiled Go struct from
crisp.toml alone, so this command only works out of the box against trees
written against DemoAgent's shape (Health, Stamina fields; IsHealthy, Flee,
Attack, Wait, Rest methods). A crisp.toml with a declarative [context]
schema is enough for "crisp check" but not for "crisp run", since resolving
member references needs only a type description while ticking needs a live
Go value to call methods on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args[0], args[1], ticks, dt, cfg.Debug)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 1, "Number of ticks to run")
	cmd.Flags().Float32Var(&dt, "dt", 1.0/60.0, "Simulated delta time per tick, in seconds")
	return cmd
}

func runRun(path, treeName string, ticks int, dt float32, debug bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	_, cfg, err := FindProjectConfig(cwd)
	if err != nil {
		return err
	}
	if cfg != nil && cfg.Context != nil {
		return fmt.Errorf("crisp.toml declares a [context] schema, which describes a type but can't be ticked; " +
			"\"crisp run\" only works against the bundled DemoAgent sandbox (remove [context] or embed pkg/interp directly in your own program)")
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	root, lookup, err := resolveContextType(cfg)
	if err != nil {
		return fmt.Errorf("resolving context type: %w", err)
	}

	store := query.NewStore()
	id := query.FileID(path)
	store.SetSourceText(id, string(src))
	store.SetContextType(id, root, lookup)

	trees, ok := store.EmitIR(id)
	if !ok {
		for _, d := range store.AllDiagnostics(id).All() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, d.String())
		}
		return fmt.Errorf("%s: failed to compile", path)
	}

	tree, ok := trees[treeName]
	if !ok {
		return fmt.Errorf("%s: no tree named %q", path, treeName)
	}

	agent := NewDemoAgent()
	it := interp.NewInterpreter(agent, nil, trees)
	it.SetTrace(debug)

	for i := 0; i < ticks; i++ {
		status, err := it.Tick(tree, interp.TickContext{DeltaTime: dt, FrameIndex: uint64(i)})
		if err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}
		fmt.Printf("tick %d: %s\n", i, status)
		if debug {
			_, _ = pretty.Println(agent)
		}
	}
	return nil
}
