package engine

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Backend names an execution backend
type Backend string

const (
	BackendInterpreter Backend = "interpreter"
	BackendNative      Backend = "native"
	BackendScript      Backend = "script"
)

// Backends lists every backend in a stable order
var Backends = []Backend{BackendInterpreter, BackendNative, BackendScript}

var (
	logLevels = []string{"debug", "info", "warn", "error"}

	errUnknownBackend = errors.New("unknown backend")
)

// ParseBackend accepts the backend names of Backends
func ParseBackend(s string) (Backend, error) {
	b := Backend(s)
	if !slices.Contains(Backends, b) {
		return "", fmt.Errorf("%w: %q, supported values: %v", errUnknownBackend, s, Backends)
	}
	return b, nil
}

// Config configures an Engine
type Config struct {
	Simplify       bool   `yaml:"simplify"`
	CacheSize      int    `yaml:"cache_size"`
	MaxStack       int    `yaml:"max_stack"`
	DefaultBackend string `yaml:"default_backend"`
	LogLevel       string `yaml:"log_level"`
	Trace          bool   `yaml:"trace"`
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix(f, "engine.")
}

func (cfg *Config) RegisterFlagsWithPrefix(f *flag.FlagSet, prefix string) {
	f.BoolVar(&cfg.Simplify, prefix+"simplify", true, "Fold constant subexpressions before execution.")
	f.IntVar(&cfg.CacheSize, prefix+"cache-size", 256, "Number of compiled expressions to keep. 0 disables the cache.")
	f.IntVar(&cfg.MaxStack, prefix+"max-stack", 1024, "Operand stack limit of the native backend.")
	f.StringVar(&cfg.DefaultBackend, prefix+"default-backend", string(BackendInterpreter), fmt.Sprintf("Backend used when none is requested. Supported values: %v.", Backends))
	f.StringVar(&cfg.LogLevel, prefix+"log-level", "info", fmt.Sprintf("Log level. Supported values: %s.", strings.Join(logLevels, ", ")))
	f.BoolVar(&cfg.Trace, prefix+"trace", false, "Log assignments and function calls made by the interpreter.")
}

func (cfg *Config) Validate() error {
	if cfg.CacheSize < 0 {
		return errors.Errorf("invalid cache size %d", cfg.CacheSize)
	}
	if cfg.MaxStack <= 0 {
		return errors.Errorf("invalid max stack %d", cfg.MaxStack)
	}
	if _, err := ParseBackend(cfg.DefaultBackend); err != nil {
		return errors.Wrap(err, "default backend")
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return errors.Errorf("invalid log level %q, supported values: %s", cfg.LogLevel, strings.Join(logLevels, ", "))
	}
	return nil
}

// DefaultConfig returns the flag defaults
func DefaultConfig() Config {
	var cfg Config
	cfg.RegisterFlags(flag.NewFlagSet("defaults", flag.ContinueOnError))
	return cfg
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are errors.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrap(err, "open config")
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// LevelFilter returns the go-kit level option for LogLevel
func (cfg *Config) LevelFilter() level.Option {
	switch cfg.LogLevel {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	}
	return level.AllowInfo()
}
