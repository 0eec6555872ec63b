package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"tally/engine"
)

// globals holds the flags shared by every command and the engine they
// configure
type globals struct {
	configFile string
	logLevel   string

	out    io.Writer
	errOut io.Writer
	reg    prometheus.Registerer

	cfg    engine.Config
	logger log.Logger
	engine *engine.Engine
}

func (g *globals) Register(app *kingpin.Application) {
	app.Flag("config.file", "YAML file with the engine configuration.").StringVar(&g.configFile)
	app.Flag("log.level", "Log level: debug, info, warn or error. Overrides log_level from the config file.").EnumVar(&g.logLevel, "debug", "info", "warn", "error")
}

// setup loads the configuration and builds the logger and engine
func (g *globals) setup() error {
	g.cfg = engine.DefaultConfig()
	if g.configFile != "" {
		cfg, err := engine.LoadConfig(g.configFile)
		if err != nil {
			return err
		}
		g.cfg = cfg
	}
	if g.logLevel != "" {
		g.cfg.LogLevel = g.logLevel
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(g.errOut))
	logger = level.NewFilter(logger, g.cfg.LevelFilter())
	g.logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	e, err := engine.New(g.cfg, g.logger, g.reg)
	if err != nil {
		return err
	}
	g.engine = e
	return nil
}

func newApp(out, errOut io.Writer, reg prometheus.Registerer) *kingpin.Application {
	app := kingpin.New("tally", "Compile and evaluate typed expressions.")
	app.Writer(out)
	app.ErrorWriter(errOut)
	app.UsageWriter(errOut)

	g := &globals{out: out, errOut: errOut, reg: reg}
	g.Register(app)

	(&evalCommand{globals: g}).Register(app)
	(&checkCommand{globals: g}).Register(app)
	(&emitCommand{globals: g}).Register(app)
	(&fixturesCommand{globals: g}).Register(app)
	return app
}

func main() {
	app := newApp(os.Stdout, os.Stderr, prometheus.DefaultRegisterer)
	if _, err := app.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tally: %v\n", err)
		os.Exit(1)
	}
}
