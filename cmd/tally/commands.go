package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"tally/builtins"
	"tally/conformance"
	"tally/engine"
	"tally/symtab"
	"tally/types"
)

func backendNames() []string {
	names := make([]string, len(engine.Backends))
	for i, b := range engine.Backends {
		names[i] = string(b)
	}
	return names
}

// table builds a symbol table with the builtins and the --var declarations
func table(vars []string) (*symtab.Table, error) {
	tab := symtab.NewTable()
	builtins.Register(tab)
	for _, arg := range vars {
		name, t, v, err := parseVar(arg)
		if err != nil {
			return nil, err
		}
		if err := tab.Declare(name, t, v); err != nil {
			return nil, err
		}
	}
	return tab, nil
}

type evalCommand struct {
	*globals
	backend  string
	vars     []string
	showVars bool
	expr     string
}

func (c *evalCommand) Register(app *kingpin.Application) {
	cmd := app.Command("eval", "Evaluate an expression.").Action(c.run)
	cmd.Flag("backend", "Backend to run on. Defaults to default_backend from the config.").EnumVar(&c.backend, backendNames()...)
	cmd.Flag("var", "Declare a variable as name:Type=value. Array values use YAML sequence syntax. Repeatable.").Short('v').StringsVar(&c.vars)
	cmd.Flag("show-vars", "Print the variables after evaluation.").BoolVar(&c.showVars)
	cmd.Arg("expr", "Expression to evaluate.").Required().StringVar(&c.expr)
}

func (c *evalCommand) run(_ *kingpin.ParseContext) error {
	if err := c.setup(); err != nil {
		return err
	}
	tab, err := table(c.vars)
	if err != nil {
		return err
	}
	v, err := c.engine.Run(c.expr, tab, engine.Backend(c.backend))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s %s\n", typeName(v), types.Format(v))
	if c.showVars {
		for _, v := range tab.Variables() {
			fmt.Fprintf(c.out, "%s:%s = %s\n", v.Name, v.Type, types.Format(v.Value))
		}
	}
	return nil
}

func typeName(v types.Value) string {
	if v == nil {
		return "null"
	}
	return v.Type().String()
}

type checkCommand struct {
	*globals
	vars []string
	expr string
}

func (c *checkCommand) Register(app *kingpin.Application) {
	cmd := app.Command("check", "Type check an expression and print it after simplification.").Action(c.run)
	cmd.Flag("var", "Declare a variable as name:Type=value. Repeatable.").Short('v').StringsVar(&c.vars)
	cmd.Arg("expr", "Expression to check.").Required().StringVar(&c.expr)
}

func (c *checkCommand) run(_ *kingpin.ParseContext) error {
	if err := c.setup(); err != nil {
		return err
	}
	tab, err := table(c.vars)
	if err != nil {
		return err
	}
	compiled, err := c.engine.Compile(c.expr, tab)
	if err != nil {
		return err
	}
	t := "null"
	if compiled.Type() != nil {
		t = compiled.Type().String()
	}
	fmt.Fprintf(c.out, "%s : %s\n", compiled, t)
	return nil
}

type emitCommand struct {
	*globals
	vars []string
	expr string
}

func (c *emitCommand) Register(app *kingpin.Application) {
	cmd := app.Command("emit", "Print the code a backend runs.")
	cmd.Flag("var", "Declare a variable as name:Type=value. Repeatable.").Short('v').StringsVar(&c.vars)

	scriptCmd := cmd.Command("script", "Print the JavaScript rendering.").Action(c.script)
	scriptCmd.Arg("expr", "Expression to emit.").Required().StringVar(&c.expr)

	nativeCmd := cmd.Command("native", "Print the bytecode disassembly.").Action(c.native)
	nativeCmd.Arg("expr", "Expression to emit.").Required().StringVar(&c.expr)
}

func (c *emitCommand) script(_ *kingpin.ParseContext) error {
	if err := c.setup(); err != nil {
		return err
	}
	tab, err := table(c.vars)
	if err != nil {
		return err
	}
	s, err := c.engine.EmitScript(c.expr, tab)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, s)
	for i, k := range s.Constants {
		fmt.Fprintf(c.out, "// $k[%d] = %s %s\n", i, k.Type(), k)
	}
	return nil
}

func (c *emitCommand) native(_ *kingpin.ParseContext) error {
	if err := c.setup(); err != nil {
		return err
	}
	tab, err := table(c.vars)
	if err != nil {
		return err
	}
	unit, err := c.engine.EmitNative(c.expr, tab)
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, unit.Disassemble())
	return nil
}

type fixturesCommand struct {
	*globals
	backends    []string
	parallelism int
	dir         string
}

func (c *fixturesCommand) Register(app *kingpin.Application) {
	cmd := app.Command("fixtures", "Run golden fixture files against the backends.").Action(c.run)
	cmd.Flag("backend", "Backend to run on. Repeatable; defaults to all.").EnumsVar(&c.backends, backendNames()...)
	cmd.Flag("parallelism", "Number of fixtures run at once.").Default(fmt.Sprint(runtime.GOMAXPROCS(0))).IntVar(&c.parallelism)
	cmd.Arg("dir", "Directory holding *.yaml and *.json fixtures.").Required().ExistingDirVar(&c.dir)
}

func (c *fixturesCommand) run(_ *kingpin.ParseContext) error {
	if err := c.setup(); err != nil {
		return err
	}
	fixtures, err := conformance.LoadDir(c.dir)
	if err != nil {
		return err
	}
	backends := engine.Backends
	if len(c.backends) > 0 {
		backends = make([]engine.Backend, len(c.backends))
		for i, b := range c.backends {
			backends[i] = engine.Backend(b)
		}
	}

	results, err := conformance.NewRunner(c.engine).RunAll(context.Background(), fixtures, backends, c.parallelism)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(c.out, "FAIL %s: %s\n", r.Fixture.File, indent(r.Err.Error()))
		}
	}
	summary := conformance.Summarize(results)
	fmt.Fprintln(c.out, summary)
	if summary.Failed > 0 {
		return errors.Errorf("%d of %d fixture runs failed", summary.Failed, summary.Total)
	}
	return nil
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n\t")
}
