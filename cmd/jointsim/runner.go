package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/milk9111/jointsim/config"
	"github.com/milk9111/jointsim/controller"
	"github.com/milk9111/jointsim/physics"
	"github.com/milk9111/jointsim/physics/engines"
	"github.com/milk9111/jointsim/sdf"
	"github.com/milk9111/jointsim/worlds"
)

type runner struct {
	cfg        config.Config
	configPath string
	logger     *slog.Logger
	reg        *physics.Registry
	out        io.Writer
}

// scriptSource prefers a script file at the configured path and falls back
// to the shipped scripts.
func scriptSource(name string) ([]byte, error) {
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	}
	return worlds.LoadScript(name)
}

func (r *runner) readWorld() (*sdf.Element, error) {
	if worlds.IsFile(r.cfg.World) {
		return sdf.ReadFile(r.cfg.World)
	}
	data, err := worlds.Load(r.cfg.World)
	if err != nil {
		return nil, err
	}
	return sdf.Parse(data)
}

// load builds and initializes the configured world on engine with its
// controllers installed.
func (r *runner) load(engine string) (*physics.World, *controller.Runtime, error) {
	root, err := r.readWorld()
	if err != nil {
		return nil, nil, err
	}
	w, err := physics.LoadWorld(root, r.reg, physics.LoadOptions{
		Engine:     engine,
		Logger:     r.logger.With("engine", engine),
		StepSize:   r.cfg.StepSize,
		Iterations: r.cfg.Iterations,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := w.Init(); err != nil {
		w.Fini()
		return nil, nil, err
	}
	rt, err := controller.New(r.logger, scriptSource, r.cfg.Controllers)
	if err != nil {
		w.Fini()
		return nil, nil, err
	}
	w.AddSystem(rt)
	r.logger.Info("world loaded", "world", w.Name, "engine", engine, "models", len(w.Models()), "controllers", rt.Len(), "systems", len(w.Systems()))
	return w, rt, nil
}

// simulate runs the configured number of steps, reporting joint state as it
// goes. With events it keeps running after the last step and reloads on
// every change until ctx is done.
func (r *runner) simulate(ctx context.Context, events <-chan string) error {
	w, rt, err := r.load(r.cfg.Engine)
	if err != nil {
		return err
	}
	defer func() { w.Fini() }()

	done := 0
	for {
		if done < r.cfg.Steps {
			n := r.chunk(done)
			if err := w.Step(n); err != nil {
				return err
			}
			done += n
			r.report(w)
		}
		if events == nil {
			if done >= r.cfg.Steps {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		var path string
		var ok bool
		if done < r.cfg.Steps {
			select {
			case <-ctx.Done():
				return nil
			case path, ok = <-events:
			default:
				continue
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			case path, ok = <-events:
			}
		}
		if !ok {
			events = nil
			continue
		}

		if config.IsScript(path) {
			n, err := rt.Reload(path)
			if err != nil {
				r.logger.Warn("script reload failed", "path", path, "err", err)
			} else if n == 0 {
				r.logger.Debug("script not bound", "path", path)
			}
			continue
		}
		if r.configPath != "" && samePath(path, r.configPath) {
			cfg, err := config.Load(r.configPath)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				r.logger.Warn("config reload failed", "path", path, "err", err)
				continue
			}
			if cfg.Engine == "" {
				cfg.Engine = r.cfg.Engine
			}
			r.cfg = cfg
		}
		nw, nrt, err := r.load(r.cfg.Engine)
		if err != nil {
			r.logger.Warn("world reload failed", "path", path, "err", err)
			continue
		}
		w.Fini()
		w, rt = nw, nrt
		done = 0
		fmt.Fprintf(r.out, "reloaded %s\n", path)
	}
}

func (r *runner) chunk(done int) int {
	n := r.cfg.ReportEvery
	if n <= 0 {
		n = r.cfg.Steps
	}
	return min(n, r.cfg.Steps-done)
}

func samePath(a, b string) bool {
	ca, errA := filepath.Abs(a)
	cb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return ca == cb
}

// report prints one line per joint axis. Joints without angles print their
// anchor instead.
func (r *runner) report(w *physics.World) {
	for _, m := range w.Models() {
		for _, j := range m.Joints() {
			name := m.Name + "/" + j.Name()
			if j.AngleCount() == 0 {
				a, err := j.Anchor(0)
				if err != nil {
					fmt.Fprintf(r.out, "t=%.3f %s anchor=%v\n", w.SimTime(), name, err)
					continue
				}
				fmt.Fprintf(r.out, "t=%.3f %s anchor=(%.4f %.4f %.4f)\n", w.SimTime(), name, a.X(), a.Y(), a.Z())
				continue
			}
			for i := 0; i < j.AngleCount(); i++ {
				fmt.Fprintf(r.out, "t=%.3f %s[%d] angle=%s velocity=%s\n", w.SimTime(), name, i,
					value(j.Angle(i)), value(j.Velocity(i)))
			}
		}
	}
}

func value(v float64, err error) string {
	switch {
	case errors.Is(err, physics.ErrNotImplemented):
		return "n/a"
	case err != nil:
		return "err"
	}
	return fmt.Sprintf("%+.5f", v)
}

type sample struct {
	key   string
	value string
	angle float64
}

// compare runs the world on each engine for the configured steps and prints
// the final angle of every joint axis in one column per engine.
func (r *runner) compare(ctx context.Context) error {
	names := r.cfg.Compare
	if len(names) == 0 {
		names = engines.Names()
	}

	var keys []string
	seen := make(map[string]bool)
	results := make(map[string]map[string]sample, len(names))
	failures := make(map[string]error)
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		samples, err := r.final(name)
		if err != nil {
			r.logger.Warn("engine failed", "engine", name, "err", err)
			failures[name] = err
			continue
		}
		results[name] = make(map[string]sample, len(samples))
		for _, s := range samples {
			if !seen[s.key] {
				seen[s.key] = true
				keys = append(keys, s.key)
			}
			results[name][s.key] = s
		}
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "joint\t%s\tspread\n", strings.Join(names, "\t"))
	for _, key := range keys {
		row := []string{key}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, name := range names {
			s, ok := results[name][key]
			switch {
			case failures[name] != nil:
				row = append(row, "failed")
			case !ok:
				row = append(row, "-")
			default:
				row = append(row, s.value)
				if !math.IsNaN(s.angle) {
					lo, hi = math.Min(lo, s.angle), math.Max(hi, s.angle)
				}
			}
		}
		spread := "-"
		if hi >= lo {
			spread = fmt.Sprintf("%.5f", hi-lo)
		}
		fmt.Fprintf(tw, "%s\t%s\n", strings.Join(row, "\t"), spread)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, name := range names {
		if err := failures[name]; err != nil {
			fmt.Fprintf(r.out, "%s: %v\n", name, err)
		}
	}
	if len(failures) == len(names) {
		return fmt.Errorf("world %s failed on every engine", r.cfg.World)
	}
	return nil
}

func (r *runner) final(engine string) ([]sample, error) {
	w, _, err := r.load(engine)
	if err != nil {
		return nil, err
	}
	defer w.Fini()
	if err := w.Step(r.cfg.Steps); err != nil {
		return nil, err
	}
	var out []sample
	for _, m := range w.Models() {
		for _, j := range m.Joints() {
			for i := 0; i < j.AngleCount(); i++ {
				a, err := j.Angle(i)
				s := sample{key: fmt.Sprintf("%s/%s[%d]", m.Name, j.Name(), i), value: value(a, err), angle: a}
				if err != nil {
					s.angle = math.NaN()
				}
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// watcher watches the world and script directories that exist plus the
// directories of the config and world files.
func (r *runner) watcher() (*config.Watcher, error) {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			return
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return
		}
		seen[abs] = true
		dirs = append(dirs, abs)
	}
	add(worlds.Dir)
	add(filepath.Join(worlds.Dir, "scripts"))
	if r.configPath != "" {
		add(filepath.Dir(r.configPath))
	}
	if worlds.IsFile(r.cfg.World) {
		add(filepath.Dir(r.cfg.World))
	}
	for _, c := range r.cfg.Controllers {
		if _, err := os.Stat(c.Script); err == nil {
			add(filepath.Dir(c.Script))
		}
	}
	if len(dirs) == 0 {
		return nil, errors.New("nothing to watch: no worlds/ directory, config or world file on disk")
	}
	r.logger.Info("watching", "dirs", dirs)
	return config.NewWatcher(dirs...)
}
