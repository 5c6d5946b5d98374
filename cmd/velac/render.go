package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/vela-lang/velac/internal/diagnostics"
)

// renderer prints diagnostics.Diagnostic values as text, in color when
// stdout is a tty and plain otherwise (SPEC_FULL §4.8, §6).
type renderer struct {
	out     io.Writer
	colored bool
}

func newRenderer() *renderer {
	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	return &renderer{out: colorable.NewColorableStdout(), colored: isTTY}
}

// Emit implements diagnostics.Sink, letting the checker hand diagnostics
// straight to the CLI's renderer without any coupling between the two
// (SPEC_FULL §4.8).
func (r *renderer) Emit(d diagnostics.Diagnostic) {
	sev := d.Severity.String()
	paint := color.New(color.FgRed, color.Bold)
	if d.Severity == diagnostics.Warning {
		paint = color.New(color.FgYellow, color.Bold)
	} else if d.Severity == diagnostics.Note {
		paint = color.New(color.FgCyan)
	}
	if r.colored {
		paint.Fprintf(r.out, "%s", sev)
	} else {
		fmt.Fprint(r.out, sev)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", d.Code, d.Site, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(r.out, "  note: %s: %s\n", n.Site, n.Message)
	}
}

func (r *renderer) Summarize(set *diagnostics.Set) {
	errs, warns := 0, 0
	for _, d := range set.All() {
		switch d.Severity {
		case diagnostics.Error:
			errs++
		case diagnostics.Warning:
			warns++
		}
	}
	fmt.Fprintf(r.out, "%d error(s), %d warning(s)\n", errs, warns)
}
