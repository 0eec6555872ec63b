// Package engine ties the compiler stages and the backends together. An
// Engine compiles expression text against a symbol table, caches the
// checked program and runs it on any backend.
package engine

import (
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"tally/check"
	"tally/eval"
	"tally/parser"
	"tally/script"
	"tally/simplify"
	"tally/symtab"
	"tally/trace"
	"tally/types"
	"tally/vm"
)

// Replaced during testing to ensure timing produces consistent results.
var timeSince = time.Since

// Compiled is a checked, optionally simplified program. The native unit and
// the script are emitted on first use. A Compiled is safe for concurrent use
// as long as each evaluation gets its own symbol table.
type Compiled struct {
	Text    string
	Program *parser.Program

	// hostFolded is set when the simplifier folded a host function call
	hostFolded bool

	nativeOnce sync.Once
	unit       *vm.Unit
	nativeErr  error

	scriptOnce sync.Once
	script     *script.Script
	scriptErr  error
}

// Type returns the static result type; nil for a program that is null
func (c *Compiled) Type() *types.Type {
	return c.Program.Type()
}

// String renders the program as source text
func (c *Compiled) String() string {
	return parser.Unparse(c.Program)
}

// Native returns the bytecode unit for the program
func (c *Compiled) Native() (*vm.Unit, error) {
	c.nativeOnce.Do(func() {
		c.unit, c.nativeErr = vm.Compile(c.Program)
	})
	return c.unit, c.nativeErr
}

// Script returns the JavaScript rendering of the program
func (c *Compiled) Script() (*script.Script, error) {
	c.scriptOnce.Do(func() {
		c.script, c.scriptErr = script.Emit(c.Program)
	})
	return c.script, c.scriptErr
}

// Engine compiles and evaluates expressions
type Engine struct {
	cfg     Config
	logger  log.Logger
	tracer  *trace.Tracer
	metrics *metrics
	cache   compiledCache
	hosts   sync.Pool
}

// New creates an engine. A nil logger discards output and a nil registerer
// leaves the metrics unregistered.
func New(cfg Config, logger log.Logger, reg prometheus.Registerer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine config")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	m := newMetrics(reg)
	cache, err := newCache(cfg.CacheSize, m)
	if err != nil {
		return nil, errors.Wrap(err, "create compiled expression cache")
	}
	e := &Engine{
		cfg:     cfg,
		logger:  log.With(logger, "component", "engine"),
		tracer:  trace.Nop(),
		metrics: m,
		cache:   cache,
	}
	if cfg.Trace {
		e.tracer = trace.New(logger)
	}
	e.hosts.New = func() interface{} { return script.NewHost() }
	level.Info(e.logger).Log("msg", "engine created", "cache_size", cfg.CacheSize, "simplify", cfg.Simplify, "default_backend", cfg.DefaultBackend)
	return e, nil
}

// Config returns the configuration the engine was created with
func (e *Engine) Config() Config {
	return e.cfg
}

// Compile parses, checks and, when configured, simplifies text against st.
// Lex, parse and semantic failures keep their *types.Error in the chain.
func (e *Engine) Compile(text string, st symtab.SymbolTable) (*Compiled, error) {
	key, cacheable := cacheKey(text, st, e.cfg.Simplify)
	if cacheable {
		if c, ok := e.cache.Get(key); ok {
			return c, nil
		}
	}

	start := time.Now()
	c, err := e.compile(text, st)
	e.metrics.compileDuration.Observe(timeSince(start).Seconds())
	e.metrics.compilations.WithLabelValues(compileOutcome(err)).Inc()
	if err != nil {
		level.Debug(e.logger).Log("msg", "compile failed", "expr", text, "err", err)
		return nil, errors.Wrap(err, "compile")
	}
	if cacheable && !c.hostFolded {
		e.cache.Add(key, c)
	}
	return c, nil
}

func (e *Engine) compile(text string, st symtab.SymbolTable) (*Compiled, error) {
	prog, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}
	if _, err := check.Check(prog, st); err != nil {
		return nil, err
	}
	c := &Compiled{Text: text, Program: prog}
	if e.cfg.Simplify {
		s := simplify.New(st)
		if c.Program, err = s.Program(prog); err != nil {
			return nil, err
		}
		c.hostFolded = s.FoldedCalls() > 0
	}
	return c, nil
}

// backend resolves an empty name to the configured default
func (e *Engine) backend(b Backend) (Backend, error) {
	if b == "" {
		b = Backend(e.cfg.DefaultBackend)
	}
	return ParseBackend(string(b))
}

// Evaluate runs c against st on backend b; an empty b selects the default
func (e *Engine) Evaluate(c *Compiled, st symtab.SymbolTable, b Backend) (types.Value, error) {
	b, err := e.backend(b)
	if err != nil {
		return nil, err
	}
	v, err := e.evaluate(c, st, b)
	e.metrics.evaluations.WithLabelValues(string(b), evalOutcome(err)).Inc()
	if err != nil {
		level.Warn(e.logger).Log("msg", "evaluation failed", "backend", b, "expr", c.Text, "err", err)
		return nil, errors.Wrapf(err, "evaluate on %s", b)
	}
	return v, nil
}

func (e *Engine) evaluate(c *Compiled, st symtab.SymbolTable, b Backend) (types.Value, error) {
	switch b {
	case BackendNative:
		unit, err := c.Native()
		if err != nil {
			return nil, err
		}
		machine := vm.NewVM()
		machine.MaxStack = e.cfg.MaxStack
		return machine.Run(unit, st)
	case BackendScript:
		s, err := c.Script()
		if err != nil {
			return nil, err
		}
		h := e.hosts.Get().(*script.Host)
		defer e.hosts.Put(h)
		return h.Run(s, st)
	}
	return eval.NewEvaluator(st).WithTracer(e.tracer).Eval(c.Program)
}

// Run compiles text and evaluates it on backend b
func (e *Engine) Run(text string, st symtab.SymbolTable, b Backend) (types.Value, error) {
	c, err := e.Compile(text, st)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(c, st, b)
}

// EmitNative compiles text and returns its bytecode unit
func (e *Engine) EmitNative(text string, st symtab.SymbolTable) (*vm.Unit, error) {
	c, err := e.Compile(text, st)
	if err != nil {
		return nil, err
	}
	unit, err := c.Native()
	return unit, errors.Wrap(err, "emit native")
}

// EmitScript compiles text and returns its JavaScript rendering
func (e *Engine) EmitScript(text string, st symtab.SymbolTable) (*script.Script, error) {
	c, err := e.Compile(text, st)
	if err != nil {
		return nil, err
	}
	s, err := c.Script()
	return s, errors.Wrap(err, "emit script")
}
