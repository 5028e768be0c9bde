package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/creachadair/lightsync"
	"github.com/goccy/go-yaml"
)

// Config is the contents of a lightsim configuration file.
// Durations are written in time.ParseDuration syntax, e.g. "50ms".
type Config struct {
	Poll      string   `yaml:"poll"`
	Intervals []string `yaml:"intervals"`
	Initial   string   `yaml:"initial"`
	Vehicles  int      `yaml:"vehicles"`
	Cross     string   `yaml:"cross"`
}

// LoadConfig reads a YAML configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// CyclerOptions converts the light settings of c into options for a cycler.
// Empty settings select the cycler defaults.
func (c *Config) CyclerOptions() (*lightsync.CyclerOptions, error) {
	var opts lightsync.CyclerOptions
	if c.Poll != "" {
		d, err := parseDuration("poll", c.Poll)
		if err != nil {
			return nil, err
		}
		opts.Poll = d
	}
	for _, s := range c.Intervals {
		d, err := parseDuration("interval", s)
		if err != nil {
			return nil, err
		}
		opts.Intervals = append(opts.Intervals, d)
	}
	if c.Initial != "" {
		p, err := lightsync.ParsePhase(c.Initial)
		if err != nil {
			return nil, err
		}
		opts.Initial = p
	}
	return &opts, nil
}

// CrossTime reports how long a vehicle takes to cross the intersection.
func (c *Config) CrossTime() (time.Duration, error) {
	if c.Cross == "" {
		return defaultCross, nil
	}
	return parseDuration("cross", c.Cross)
}

func parseDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	} else if d <= 0 {
		return 0, errors.New("invalid " + name + ": must be positive")
	}
	return d, nil
}
