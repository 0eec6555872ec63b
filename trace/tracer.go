// Package trace records what an evaluation does to its environment:
// assignments, host function calls and statement results.
package trace

import (
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"tally/types"
)

// Tracer writes evaluation events to a go-kit logger at debug level. A nil
// *Tracer and the Nop tracer drop everything.
type Tracer struct {
	logger  log.Logger
	enabled bool
	filters []string
}

// New returns an enabled tracer. Filters are filepath.Match patterns over
// variable and function names; no filters traces everything.
func New(logger log.Logger, filters ...string) *Tracer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Tracer{
		logger:  log.With(logger, "component", "trace"),
		enabled: true,
		filters: filters,
	}
}

// Nop returns a disabled tracer
func Nop() *Tracer {
	return &Tracer{logger: log.NewNopLogger()}
}

// Enabled reports whether events are recorded
func (t *Tracer) Enabled() bool {
	return t != nil && t.enabled
}

func (t *Tracer) matches(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Assign records a variable update
func (t *Tracer) Assign(name string, typ *types.Type, v types.Value) {
	if !t.Enabled() || !t.matches(name) {
		return
	}
	level.Debug(t.logger).Log("event", "assign", "name", name, "type", typ.String(), "value", types.Format(v))
}

// Call records a host function call and its outcome
func (t *Tracer) Call(name string, args []types.Value, result types.Value, err error) {
	if !t.Enabled() || !t.matches(name) {
		return
	}
	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = types.Format(arg)
	}
	if err != nil {
		level.Debug(t.logger).Log("event", "call", "name", name, "args", strings.Join(argStrs, ", "), "err", err)
		return
	}
	level.Debug(t.logger).Log("event", "call", "name", name, "args", strings.Join(argStrs, ", "), "result", types.Format(result))
}

// Statement records the value of one top-level statement
func (t *Tracer) Statement(index int, v types.Value) {
	if !t.Enabled() {
		return
	}
	level.Debug(t.logger).Log("event", "statement", "index", index, "value", types.Format(v))
}
