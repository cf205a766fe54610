// Command oxy-rings runs one of the WebGPU tutorial programs in a window.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-rings/common"
	"github.com/Carmen-Shannon/oxy-rings/config"
	"github.com/Carmen-Shannon/oxy-rings/engine"
	"github.com/Carmen-Shannon/oxy-rings/engine/frame"
	"github.com/Carmen-Shannon/oxy-rings/engine/mesh"
	"github.com/Carmen-Shannon/oxy-rings/engine/object_pool"
	"github.com/Carmen-Shannon/oxy-rings/engine/program"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-rings/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-rings/engine/window"
)

// Exit codes.
const (
	exitOK = iota
	exitConfiguration
	exitCapability
	exitRuntime
)

// options are the command-line flags. Zero values leave the config file value in place.
type options struct {
	configPath string
	program    string
	objects    int
	debug      bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitConfiguration
	}

	level := slog.LevelInfo
	if opts.debug {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := common.Logger()

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return exitConfiguration
	}

	if err := runProgram(cfg); err != nil {
		log.Error("program failed", "program", cfg.Program, "error", err)
		return exitCode(err)
	}
	return exitOK
}

// parseFlags parses args into options.
func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("oxy-rings", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.program, "program", "", "program to run: "+strings.Join(program.Names(), ", "))
	fs.IntVar(&opts.objects, "objects", 0, "number of objects to draw")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("%w: unexpected arguments %v", common.ErrConfiguration, fs.Args())
	}
	return opts, nil
}

// loadConfig reads the config file if one was given and applies the flag overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Program = common.Coalesce(opts.program, cfg.Program)
	cfg.Objects = common.Coalesce(opts.objects, cfg.Objects)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// exitCode maps an error class to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, common.ErrCapabilityUnavailable):
		return exitCapability
	case errors.Is(err, common.ErrConfiguration):
		return exitConfiguration
	default:
		return exitRuntime
	}
}

// runProgram builds every component of the configured program and runs the frame loop until the window closes.
func runProgram(cfg config.Config) error {
	prog, err := program.Lookup(cfg.Program)
	if err != nil {
		return err
	}

	// ── Shader ──────────────────────────────────────────────────────────
	sh, err := prog.LoadShader()
	if err != nil {
		return err
	}
	if err := shader.Validate(sh); err != nil {
		return err
	}

	// ── Scene data ──────────────────────────────────────────────────────
	pool, ring, err := buildSceneData(cfg, prog)
	if err != nil {
		return err
	}

	// ── Window + Renderer ───────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(fmt.Sprintf("%s - %s", cfg.Window.Title, prog.Name)),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	present, err := cfg.Present()
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(win,
		renderer.WithPipeline(prog.Pipeline(sh)),
		renderer.WithPresentMode(present),
		renderer.WithMSAA(common.MSAASampleCount(cfg.MSAA)),
		renderer.WithClearColor(cfg.ClearColor),
		renderer.WithForceSoftwareRenderer(cfg.Software),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	// ── Frame driver ────────────────────────────────────────────────────
	driverOpts := prog.DriverOptions(pool, ring)
	if cfg.PackWorkers > 0 {
		packer, err := layout.NewParallelPacker(cfg.PackWorkers)
		if err != nil {
			return err
		}
		defer packer.Release()
		driverOpts = append(driverOpts, frame.WithPacker(packer))
	}
	d, err := frame.NewDriver(r, prog.Name, driverOpts...)
	if err != nil {
		return err
	}
	defer d.Release()

	// ── Engine ──────────────────────────────────────────────────────────
	eng, err := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithDriver(d),
		engine.WithResizer(r),
		engine.WithProfiling(cfg.Profiling, time.Second),
		engine.WithRenderFrameLimit(cfg.FrameLimit),
	)
	if err != nil {
		return err
	}

	common.Logger().Info("running",
		"program", prog.Name,
		"mode", prog.Mode,
		"instances", d.InstanceCount(),
	)
	err = eng.Run()
	common.Logger().Info("stopped",
		"frames", d.FrameCount(),
		"skipped", eng.SkippedFrames(),
		"transientFailures", eng.TransientFailures(),
	)
	return err
}

// buildSceneData creates the object pool and ring mesh the program draws.
// Programs that draw neither get a nil pool and an empty mesh.
func buildSceneData(cfg config.Config, prog program.Program) (object_pool.Pool, mesh.Mesh, error) {
	var (
		pool object_pool.Pool
		ring mesh.Mesh
		err  error
	)
	if prog.UsesPool() {
		var poolOpts []object_pool.PoolBuilderOption
		if cfg.Seed != 0 {
			poolOpts = append(poolOpts, object_pool.WithSeed(cfg.Seed))
		}
		if pool, err = object_pool.NewPool(cfg.Objects, poolOpts...); err != nil {
			return nil, mesh.Mesh{}, err
		}
	}
	if prog.UsesMesh() {
		ring, err = mesh.GenerateRing(cfg.Ring.Radius, cfg.Ring.InnerRadius, cfg.Ring.Subdivisions,
			mesh.WithIndexed(cfg.RingIndexed()),
			mesh.WithColorGradient(cfg.Ring.Gradient.Outer, cfg.Ring.Gradient.Inner),
		)
		if err != nil {
			return nil, mesh.Mesh{}, err
		}
	}
	return pool, ring, nil
}
