package conformance

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"tally/builtins"
	"tally/engine"
	"tally/symtab"
	"tally/types"
)

// Clock is the time now() returns while fixtures run
var Clock = time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

// Result is the outcome of one fixture on one backend
type Result struct {
	Fixture Fixture
	Backend engine.Backend
	Skipped bool
	Err     error
}

// Passed reports whether the fixture ran and matched
func (r Result) Passed() bool {
	return !r.Skipped && r.Err == nil
}

// Runner executes fixtures through an engine
type Runner struct {
	engine *engine.Engine
}

// NewRunner creates a runner over e
func NewRunner(e *engine.Engine) *Runner {
	return &Runner{engine: e}
}

var defaultRunner = func() *Runner {
	e, err := engine.New(engine.DefaultConfig(), nil, nil)
	if err != nil {
		panic(err)
	}
	return NewRunner(e)
}()

// Run executes f on backend b with the default engine configuration
func Run(f Fixture, b engine.Backend) error {
	return defaultRunner.Run(f, b)
}

// Table builds a fresh symbol table holding the builtins and the fixture's
// variableListBefore. now() returns Clock and random() is seeded.
func (f Fixture) Table() (*symtab.Table, error) {
	tab := symtab.NewTable()
	builtins.NewRegistryWith(builtins.Options{
		Now:  func() time.Time { return Clock },
		Rand: rand.New(rand.NewSource(1)),
	}).Install(tab)
	for _, v := range f.VariableListBefore {
		t, val, err := v.Decode()
		if err != nil {
			return nil, err
		}
		if err := tab.Declare(v.Name, t, val); err != nil {
			return nil, err
		}
	}
	return tab, nil
}

type variable struct {
	Name  string
	Type  string
	Value types.Value
}

// observation is what a run produced, in a form go-cmp can diff
type observation struct {
	Type      string
	Value     types.Value
	Error     string
	Variables []variable
}

var valueComparer = cmp.Comparer(types.Same)

func typeName(t *types.Type) string {
	if t == nil {
		return "null"
	}
	return t.String()
}

func snapshot(tab *symtab.Table) []variable {
	vars := tab.Variables()
	out := make([]variable, len(vars))
	for i, v := range vars {
		out[i] = variable{Name: v.Name, Type: v.Type.String(), Value: v.Value}
	}
	return out
}

// observe compiles and evaluates f on b
func (r *Runner) observe(f Fixture, b engine.Backend) (observation, error) {
	tab, err := f.Table()
	if err != nil {
		return observation{}, errors.Wrap(err, "variableListBefore")
	}
	var got observation
	c, err := r.engine.Compile(f.Expression, tab)
	if err == nil {
		var v types.Value
		v, err = r.engine.Evaluate(c, tab, b)
		got.Value = v
		got.Type = typeName(c.Type())
		if v != nil {
			got.Type = typeName(v.Type())
		}
	}
	if err != nil {
		kind, ok := types.KindOf(err)
		if !ok {
			return observation{}, err
		}
		got = observation{Error: kind.String()}
	}
	got.Variables = snapshot(tab)
	return got, nil
}

// expected fills in what the fixture asserts; parts it leaves out are
// copied from got
func (f Fixture) expected(got observation) (observation, error) {
	want := got
	switch {
	case f.FailsWithException != nil:
		want.Type, want.Value = "", nil
		want.Error = f.FailsWithException.String()
		if kind, ok := errorKinds[got.Error]; ok && f.FailsWithException.Matches(kind) {
			want.Error = got.Error
		}
	case f.ReturnValue != nil:
		t, v, err := f.ReturnValue.Decode()
		if err != nil {
			return want, errors.Wrap(err, "returnValue")
		}
		want.Type, want.Value, want.Error = t.String(), v, ""
	default:
		want.Error = ""
	}
	if f.VariableListAfter != nil {
		want.Variables = nil
		for _, v := range f.VariableListAfter {
			t, val, err := v.Decode()
			if err != nil {
				return want, errors.Wrap(err, "variableListAfter")
			}
			want.Variables = append(want.Variables, variable{Name: v.Name, Type: t.String(), Value: val})
		}
		sort.Slice(want.Variables, func(i, j int) bool { return want.Variables[i].Name < want.Variables[j].Name })
	}
	return want, nil
}

// Run executes f on backend b and describes any mismatch with a go-cmp
// diff
func (r *Runner) Run(f Fixture, b engine.Backend) error {
	got, err := r.observe(f, b)
	if err != nil {
		return errors.Wrapf(err, "%s on %s", f.Name, b)
	}
	want, err := f.expected(got)
	if err != nil {
		return errors.Wrapf(err, "%s", f.Name)
	}
	if diff := cmp.Diff(want, got, valueComparer); diff != "" {
		return fmt.Errorf("%s on %s: %q mismatch (-want +got):\n%s", f.Name, b, f.Expression, diff)
	}
	return nil
}

// RunAll executes every fixture on every backend using up to parallelism
// goroutines. Results are in fixture order, then backend order.
func (r *Runner) RunAll(ctx context.Context, fixtures []Fixture, backends []engine.Backend, parallelism int) ([]Result, error) {
	results := make([]Result, len(fixtures)*len(backends))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, f := range fixtures {
		for j, b := range backends {
			idx := i*len(backends) + j
			results[idx] = Result{Fixture: f, Backend: b}
			if f.Skip != "" {
				results[idx].Skipped = true
				continue
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[idx].Err = r.Run(f, b)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary counts results
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	Total   int
}

// Summarize counts the outcomes in results
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Err != nil:
			s.Failed++
		default:
			s.Passed++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)", s.Passed, s.Failed, s.Skipped, s.Total)
}
