// minerview is a real-time viewer for an autonomous mining agent on a tile
// world.
//
// It runs the agent (or tails a telemetry feed written by one) and draws the
// agent's position, energy and carried rocks over a local copy of the world
// that it updates from what the telemetry implies.
//
// Usage:
//
//	minerview                       # Auto-discover world/world.yaml, terminal UI
//	minerview --world <path>        # Use a specific world artifact
//	minerview --renderer gui        # Open a window with sprites
//	minerview --feed agent.jsonl    # Follow an external agent's telemetry
//	minerview --config view.yaml    # Load settings from a YAML file
//	minerview --json                # Dump a world summary as JSON and exit
//	minerview --version             # Print version and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/holycrab/minerview/internal/agent"
	"github.com/holycrab/minerview/internal/config"
	"github.com/holycrab/minerview/internal/datasource"
	"github.com/holycrab/minerview/internal/gui"
	"github.com/holycrab/minerview/internal/snapshot"
	"github.com/holycrab/minerview/internal/telemetry"
	"github.com/holycrab/minerview/internal/visualizer"
	"github.com/holycrab/minerview/internal/world"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

// Terminal size assumed until the first resize.
const (
	initialCols = 80
	initialRows = 24
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"world":    "world",
	"feed":     "feed",
	"renderer": "renderer",
	"fps":      "fps",
	"tick":     "tickDelay",
	"queue":    "queueCapacity",
	"log":      "log",
}

type options struct {
	configPath string
	jsonMode   bool
	version    bool
	overrides  map[string]any
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("minerview", flag.ContinueOnError)
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&opts.jsonMode, "json", false, "print a world summary as JSON and exit (no UI)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.String("world", "", "path to the world artifact (default: auto-discover)")
	fs.String("feed", "", "follow a JSON-lines telemetry file instead of running the agent")
	fs.String("renderer", config.RendererTUI, "renderer: tui or gui")
	fs.Float64("fps", 1, "frames per second")
	fs.Duration("tick", agent.DefaultTickDelay, "delay between agent ticks")
	fs.Int("queue", 8, "telemetry queue capacity (0 = unbounded)")
	fs.String("log", "", "write logs to this file (terminal UI only logs to a file)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Only flags given explicitly override the config file.
	opts.overrides = make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		if k, ok := flagKeys[f.Name]; ok {
			opts.overrides[k] = f.Value.(flag.Getter).Get()
		}
	})
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.version {
		fmt.Printf("minerview %s\n", Version)
		os.Exit(0)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "minerview: %v\n", err)
		os.Exit(1)
	}
}

func run(opts *options) error {
	cfg, err := config.Load(opts.configPath, opts.overrides)
	if err != nil {
		return err
	}

	m, path, err := datasource.Open(cfg.World)
	if err != nil {
		return err
	}

	// --json mode: summarize the world, print JSON, exit.
	if opts.jsonMode {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot.Summarize(path, m)); err != nil {
			return fmt.Errorf("json: %w", err)
		}
		return nil
	}

	// The terminal UI owns stdout, so it only ever logs to a file.
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	var sprites *gui.Sprites
	vcfg := cfg.Visualizer()
	if cfg.Renderer == config.RendererGUI {
		if sprites, err = gui.LoadSprites(cfg.Assets); err != nil {
			return err
		}
	} else {
		vcfg.ScreenWidth, vcfg.ScreenHeight = initialCols/cellsPerTile, initialRows-chromeLines
	}

	ch := telemetry.NewChannel(cfg.QueueCapacity)
	vis, err := visualizer.New(ch, m.Clone(), vcfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if err := startProducer(gctx, g, cfg, m, ch, logger); err != nil {
		vis.Close()
		return err
	}
	logger.Info("minerview started",
		"world", path, "rows", m.Rows(), "cols", m.Cols(),
		"renderer", cfg.Renderer, "feed", cfg.Feed, "queue", cfg.QueueCapacity)

	renderErr := render(cfg, vis, sprites, path, logger)

	// Closing the channel stops the producer at its next send; cancelling
	// stops it while it waits for a tick.
	vis.Close()
	cancel()
	if err := g.Wait(); err != nil && renderErr == nil {
		return err
	}
	return renderErr
}

// startProducer launches the simulation context: either the built-in miner
// over its own copy of the world, or a watcher on an external feed.
func startProducer(ctx context.Context, g *errgroup.Group, cfg *config.Config, m *world.Map, ch *telemetry.Channel, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Feed != "" {
		w, err := datasource.NewWatcher(cfg.Feed, ch, logger)
		if err != nil {
			return fmt.Errorf("watch feed: %w", err)
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-w.Stopped():
			}
			return w.Close()
		})
		return nil
	}

	miner, err := agent.NewMiner(m, agent.MinerConfig{MaxEnergy: cfg.EnergyMax, Seed: cfg.Agent.Seed})
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	rt := agent.Wrap(miner)
	runner := &agent.Runner{Runtime: rt, Channel: ch, Delay: cfg.TickDelay, Logger: logger}
	g.Go(func() error {
		err := runner.Run(ctx)
		logger.Info("agent finished", "ticks", rt.Ticks(), "failures", rt.Failures())
		return err
	})
	return nil
}

func render(cfg *config.Config, vis *visualizer.Visualizer, sprites *gui.Sprites, path string, logger *slog.Logger) error {
	if cfg.Renderer == config.RendererGUI {
		game, err := gui.New(vis, sprites, logger)
		if err != nil {
			return err
		}
		return gui.Run(game, "minerview", cfg.FPS)
	}

	p := tea.NewProgram(newModel(vis, path, cfg.FrameInterval()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

// newLogger builds the process logger. The window renderer logs to stderr
// unless a file is given; the terminal renderer logs to the file or nowhere.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "minerview")
		if err != nil {
			return nil, nil, fmt.Errorf("open log: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})), func() { f.Close() }, nil
	}
	var w io.Writer = io.Discard
	if cfg.Renderer == config.RendererGUI {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, nil)), func() {}, nil
}
