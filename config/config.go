// Package config reads run configuration from YAML or TOML files and builds
// the logger and file watcher used by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Controller binds a tengo script to one axis of a joint.
type Controller struct {
	Model  string `yaml:"model" toml:"model"`
	Joint  string `yaml:"joint" toml:"joint"`
	Axis   int    `yaml:"axis" toml:"axis"`
	Script string `yaml:"script" toml:"script"`
}

type Config struct {
	World       string       `yaml:"world" toml:"world"`
	Engine      string       `yaml:"engine" toml:"engine"`
	StepSize    float64      `yaml:"step_size" toml:"step_size"`
	Iterations  int          `yaml:"iterations" toml:"iterations"`
	Steps       int          `yaml:"steps" toml:"steps"`
	ReportEvery int          `yaml:"report_every" toml:"report_every"`
	LogLevel    string       `yaml:"log_level" toml:"log_level"`
	Compare     []string     `yaml:"compare" toml:"compare"`
	Controllers []Controller `yaml:"controllers" toml:"controllers"`
}

const (
	DefaultWorld       = "hinge_stops.world"
	DefaultSteps       = 1000
	DefaultReportEvery = 100
	DefaultLogLevel    = "info"
)

// Default returns the configuration used without a file. Step size and
// iterations of zero leave the world file's values in place.
func Default() Config {
	return Config{
		World:       DefaultWorld,
		Steps:       DefaultSteps,
		ReportEvery: DefaultReportEvery,
		LogLevel:    DefaultLogLevel,
	}
}

// Load reads path as YAML or TOML by extension and applies defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or ".toml").
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: unmarshal yaml: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: unmarshal toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("config: unsupported format %q", ext)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.World == "" {
		c.World = d.World
	}
	if c.Steps == 0 {
		c.Steps = d.Steps
	}
	if c.ReportEvery == 0 {
		c.ReportEvery = d.ReportEvery
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.StepSize < 0:
		return fmt.Errorf("config: negative step_size %g", c.StepSize)
	case c.Iterations < 0:
		return fmt.Errorf("config: negative iterations %d", c.Iterations)
	case c.Steps < 0:
		return fmt.Errorf("config: negative steps %d", c.Steps)
	case c.ReportEvery < 0:
		return fmt.Errorf("config: negative report_every %d", c.ReportEvery)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for i, ctl := range c.Controllers {
		if ctl.Model == "" || ctl.Joint == "" || ctl.Script == "" {
			return fmt.Errorf("config: controller %d needs model, joint and script", i)
		}
		if ctl.Axis < 0 || ctl.Axis > 1 {
			return fmt.Errorf("config: controller %d: axis %d not in [0, 1]", i, ctl.Axis)
		}
	}
	return nil
}
