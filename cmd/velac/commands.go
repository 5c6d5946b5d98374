package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vela-lang/velac/internal/ast"
	"github.com/vela-lang/velac/internal/checker"
	"github.com/vela-lang/velac/internal/config"
	"github.com/vela-lang/velac/internal/demo"
)

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "check the loaded program and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadConfig(*configPath)
			id := runID()
			r := newRenderer()
			c, module := runDemoCheck(opts)
			for _, d := range c.Diagnostics() {
				r.Emit(d)
			}
			fmt.Printf("run %s: checked module %q\n", id, module.Name)
			return nil
		},
	}
}

func newExplainCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <decl-name>",
		Short: "print the realized type of a top-level declaration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadConfig(*configPath)
			c, module := runDemoCheck(opts)
			for _, d := range module.Decls {
				if nameOf(d) == args[0] {
					t := c.Realize(d.ID())
					fmt.Println(t.String())
					return nil
				}
			}
			return fmt.Errorf("no such declaration: %s", args[0])
		},
	}
}

func newTraceCmd(configPath *string) *cobra.Command {
	var line int
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "run the checker with inference tracing enabled at a source line",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadConfig(*configPath)
			opts.InferenceTracingSite = &ast.Pos{File: "main.vela", Line: line}
			c, _ := runDemoCheck(opts)
			for _, d := range c.Diagnostics() {
				newRenderer().Emit(d)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&line, "line", 1, "source line to trace")
	return cmd
}

func runDemoCheck(opts *config.Options) (*checker.Checker, *ast.ModuleDecl) {
	tree, module, members := demo.Program()
	c := checker.New(tree, opts, members)
	for _, d := range module.Decls {
		c.Check(d.ID())
	}
	return c, module
}

func nameOf(d ast.Decl) string {
	switch n := d.(type) {
	case *ast.BindingDecl:
		if np, ok := n.Pattern.(*ast.NamePattern); ok {
			return np.Name
		}
	case *ast.FunctionDecl:
		return n.Name
	case *ast.ProductDecl:
		return n.Name
	}
	return ""
}
