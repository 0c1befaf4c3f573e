// Package config loads minerview settings from an optional YAML file, with
// defaults for every key and command-line overrides on top.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/holycrab/minerview/internal/visualizer"
)

// Renderers.
const (
	RendererTUI = "tui"
	RendererGUI = "gui"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full set of settings.
type Config struct {
	World    string `mapstructure:"world"`
	Assets   string `mapstructure:"assets"`
	Feed     string `mapstructure:"feed"`
	Renderer string `mapstructure:"renderer"`
	LogFile  string `mapstructure:"log"`

	FPS           float64       `mapstructure:"fps"`
	TickDelay     time.Duration `mapstructure:"tickDelay"`
	QueueCapacity int           `mapstructure:"queueCapacity"`
	IdleThreshold time.Duration `mapstructure:"idleThreshold"`
	ZoomStep      float64       `mapstructure:"zoomStep"`
	PanStep       float64       `mapstructure:"panStep"`
	EnergyMax     float64       `mapstructure:"energyMax"`
	GaugeWidth    float64       `mapstructure:"gaugeWidth"`
	ScreenWidth   float64       `mapstructure:"screenWidth"`
	ScreenHeight  float64       `mapstructure:"screenHeight"`

	Agent AgentConfig `mapstructure:"agent"`
}

// AgentConfig tunes the built-in demo runtime.
type AgentConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("world", "")
	vp.SetDefault("assets", "./resources")
	vp.SetDefault("feed", "")
	vp.SetDefault("renderer", RendererTUI)
	vp.SetDefault("log", "")
	vp.SetDefault("fps", 1.0)
	vp.SetDefault("tickDelay", time.Second)
	vp.SetDefault("queueCapacity", 8)
	vp.SetDefault("idleThreshold", 3*time.Second)
	vp.SetDefault("zoomStep", 1.1)
	vp.SetDefault("panStep", 1.0)
	vp.SetDefault("energyMax", 1000.0)
	vp.SetDefault("gaugeWidth", 200.0)
	vp.SetDefault("screenWidth", 1500.0)
	vp.SetDefault("screenHeight", 1500.0)
	vp.SetDefault("agent.seed", 1)
}

// Default returns the built-in settings.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		panic(err) // defaults are always valid
	}
	return cfg
}

// Load reads the YAML file at path, if any, and applies overrides keyed by
// setting name. The result is validated.
func Load(path string, overrides map[string]any) (*Config, error) {
	vp := viper.New()
	setDefaults(vp)
	if path != "" {
		vp.SetConfigFile(path)
		vp.SetConfigType("yaml")
		vp.AddConfigPath(filepath.Dir(path))
		if err := vp.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for k, v := range overrides {
		vp.Set(k, v)
	}

	cfg := &Config{}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every numeric bound and the renderer name.
func (c *Config) Validate() error {
	switch {
	case c.Renderer != RendererTUI && c.Renderer != RendererGUI:
		return fmt.Errorf("%w: renderer %q (want %s or %s)", ErrInvalid, c.Renderer, RendererTUI, RendererGUI)
	case !(c.FPS > 0):
		return fmt.Errorf("%w: fps must be positive, got %v", ErrInvalid, c.FPS)
	case c.TickDelay <= 0:
		return fmt.Errorf("%w: tickDelay must be positive, got %v", ErrInvalid, c.TickDelay)
	case c.QueueCapacity < 0:
		return fmt.Errorf("%w: queueCapacity must not be negative, got %d", ErrInvalid, c.QueueCapacity)
	case c.IdleThreshold <= 0:
		return fmt.Errorf("%w: idleThreshold must be positive, got %v", ErrInvalid, c.IdleThreshold)
	case !(c.ZoomStep > 1):
		return fmt.Errorf("%w: zoomStep must be greater than 1, got %v", ErrInvalid, c.ZoomStep)
	case !(c.PanStep > 0):
		return fmt.Errorf("%w: panStep must be positive, got %v", ErrInvalid, c.PanStep)
	case !(c.EnergyMax > 0):
		return fmt.Errorf("%w: energyMax must be positive, got %v", ErrInvalid, c.EnergyMax)
	case !(c.GaugeWidth > 0):
		return fmt.Errorf("%w: gaugeWidth must be positive, got %v", ErrInvalid, c.GaugeWidth)
	case !(c.ScreenWidth > 0) || !(c.ScreenHeight > 0):
		return fmt.Errorf("%w: screen size %vx%v", ErrInvalid, c.ScreenWidth, c.ScreenHeight)
	}
	return nil
}

// FrameInterval is the time between two render frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.FPS)
}

// Visualizer returns the visualizer settings. Screen size is in pixels for
// the window renderer; the terminal renderer resizes to its cell grid.
func (c *Config) Visualizer() visualizer.Config {
	return visualizer.Config{
		ScreenWidth:   c.ScreenWidth,
		ScreenHeight:  c.ScreenHeight,
		IdleThreshold: c.IdleThreshold,
		ZoomStep:      c.ZoomStep,
		PanStep:       c.PanStep,
		EnergyMax:     c.EnergyMax,
		GaugeWidth:    c.GaugeWidth,
	}
}
