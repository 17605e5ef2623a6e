// Command jointsim loads a world, steps it on one engine and prints joint
// state, or runs the same world on several engines side by side.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/milk9111/jointsim/config"
	"github.com/milk9111/jointsim/physics/engines"
)

type options struct {
	configPath string
	world      string
	engine     string
	steps      int
	report     int
	watch      bool
	compare    bool
	verbose    bool
	debug      bool
	quiet      bool

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("jointsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "run configuration (.yaml, .yml or .toml)")
	fs.StringVar(&o.world, "world", config.DefaultWorld, "world name in worlds/ or path to a .world file")
	fs.StringVar(&o.engine, "engine", engines.Default, "physics engine")
	fs.IntVar(&o.steps, "steps", config.DefaultSteps, "number of steps to run")
	fs.IntVar(&o.report, "report", config.DefaultReportEvery, "print joint state every N steps")
	fs.BoolVar(&o.watch, "watch", false, "reload worlds, scripts and config when they change")
	fs.BoolVar(&o.compare, "compare", false, "run the world on every engine and compare final joint state")
	fs.BoolVar(&o.verbose, "v", false, "log at info level")
	fs.BoolVar(&o.debug, "debug", false, "log at debug level")
	fs.BoolVar(&o.quiet, "q", false, "log errors only")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

// buildConfig loads the configuration file, if any, and lets explicitly set
// flags override it.
func buildConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}
	if o.set["world"] || cfg.World == "" {
		cfg.World = o.world
	}
	if o.set["engine"] || cfg.Engine == "" {
		cfg.Engine = o.engine
	}
	if o.set["steps"] {
		cfg.Steps = o.steps
	}
	if o.set["report"] {
		cfg.ReportEvery = o.report
	}
	if o.set["v"] || o.set["debug"] || o.set["q"] {
		cfg.LogLevel = config.LevelFromFlags(o.debug, o.verbose, o.quiet).String()
	}
	return cfg, cfg.Validate()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	cfg, err := buildConfig(o)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := config.NewLogger(stderr, level)

	reg, err := engines.NewRegistry()
	if err != nil {
		logger.Error("register engines", "err", err)
		return 1
	}
	r := &runner{cfg: cfg, configPath: o.configPath, logger: logger, reg: reg, out: stdout}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if o.compare || (len(cfg.Compare) > 0 && !o.set["engine"]) {
		err = r.compare(ctx)
	} else {
		var events <-chan string
		if o.watch {
			w, err := r.watcher()
			if err != nil {
				logger.Error("watch", "err", err)
				return 1
			}
			defer w.Close()
			go func() {
				for err := range w.Errors {
					logger.Warn("watcher error", "err", err)
				}
			}()
			events = w.Events
		}
		err = r.simulate(ctx, events)
	}
	if err != nil {
		logger.Error("jointsim failed", "world", cfg.World, "err", err)
		return 1
	}
	return 0
}
