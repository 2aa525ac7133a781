package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corrreia/napigo/internal/gen"
)

// palette holds the colors of CLI output. With colors disabled every
// entry prints plain text.
type palette struct {
	pkg  *color.Color
	fn   *color.Color
	ok   *color.Color
	warn *color.Color
	err  *color.Color
	pos  *color.Color
	dim  *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		pkg:  color.New(color.FgCyan, color.Bold),
		fn:   color.New(color.FgGreen),
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		err:  color.New(color.FgRed, color.Bold),
		pos:  color.New(color.Faint),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.pkg, p.fn, p.ok, p.warn, p.err, p.pos, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// colorEnabled resolves --color against the terminal.
func colorEnabled(cmd *cobra.Command) bool {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch flag {
	case "on", "always":
		return true
	case "off", "never":
		return false
	}
	return isTerminal(os.Stdout)
}

// printError prints err, one line per generation error.
func printError(cmd *cobra.Command, err error) {
	p := newPalette(colorEnabled(cmd) && isTerminal(os.Stderr))
	w := cmd.ErrOrStderr()

	var list gen.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			printGenError(w, p, e)
		}
		fmt.Fprintf(w, "%s %d error(s)\n", p.err.Sprint("napigen:"), len(list))
		return
	}
	var single *gen.Error
	if errors.As(err, &single) {
		printGenError(w, p, single)
		return
	}
	fmt.Fprintf(w, "%s %v\n", p.err.Sprint("napigen:"), err)
}

func printGenError(w io.Writer, p *palette, e *gen.Error) {
	if e.Pos.IsValid() {
		fmt.Fprintf(w, "%s %s %s\n", p.pos.Sprint(e.Pos.String()+":"), p.err.Sprint("error:"), e.Msg)
		return
	}
	fmt.Fprintf(w, "%s %s\n", p.err.Sprint("error:"), e.Msg)
}

func printReport(w io.Writer, p *palette, r *gen.Report, dryRun bool) {
	verb := "wrote"
	if dryRun {
		verb = "would write"
	}

	total := 0
	for _, pkg := range r.Packages {
		total += len(pkg.Functions)
		switch {
		case pkg.Skipped:
			fmt.Fprintf(w, "%s %s\n", p.pkg.Sprint(pkg.Path), p.dim.Sprint("(unchanged)"))
			continue
		case len(pkg.Functions) == 0 && !pkg.Bootstrap && len(pkg.Removed) == 0:
			continue
		}

		fmt.Fprintf(w, "%s\n", p.pkg.Sprint(pkg.Path))
		for _, fn := range pkg.Functions {
			name := fn.Name
			if fn.Name != fn.GoName {
				name += p.dim.Sprintf(" (%s)", fn.GoName)
			}
			fmt.Fprintf(w, "  %s %s\n", p.fn.Sprint(name), p.dim.Sprint(fn.Signature().String()))
		}
		for _, f := range pkg.Written {
			fmt.Fprintf(w, "  %s %s\n", verb, f)
		}
		for _, f := range pkg.Removed {
			fmt.Fprintf(w, "  removed %s\n", f)
		}
	}

	for _, path := range r.Forgotten {
		fmt.Fprintf(w, "%s %s\n", p.dim.Sprint("forgot"), path)
	}
	for _, c := range r.Collisions {
		fmt.Fprintf(w, "%s export %q is registered by %v; the last registration wins\n",
			p.warn.Sprint("warning:"), c.Name, c.Packages)
	}
	if r.ModulePackage != "" {
		fmt.Fprintf(w, "module bootstrap in %s\n", p.pkg.Sprint(r.ModulePackage))
	}

	fmt.Fprintf(w, "%s %d function(s) in %d package(s)\n", p.ok.Sprint("done:"), total, len(r.Packages))
}
