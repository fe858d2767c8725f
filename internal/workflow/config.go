// Package workflow parses declarative workflow descriptions, validates them
// into immutable plans, and runs them.
package workflow

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EndpointConf names a loader or writer plus its free-form arguments.
type EndpointConf struct {
	Name string         `mapstructure:"name"`
	Args map[string]any `mapstructure:"args"`
}

// IndicatorConf is one indicator step as written in the workflow file.
type IndicatorConf struct {
	Name string         `mapstructure:"name"`
	Args map[string]any `mapstructure:"args"`
}

// CrossConf is one cross step. Orders defaults to [2] when omitted.
type CrossConf struct {
	Name   string         `mapstructure:"name"`
	Orders []int          `mapstructure:"orders"`
	Args   map[string]any `mapstructure:"args"`
}

type FactorConf struct {
	Indicators []IndicatorConf `mapstructure:"indicators"`
	Crosses    []CrossConf     `mapstructure:"crosses"`
}

type DataConf struct {
	Loader EndpointConf `mapstructure:"loader"`
	Writer EndpointConf `mapstructure:"writer"`
}

// Config is the decoded workflow file.
type Config struct {
	Name   string     `mapstructure:"name"`
	Data   DataConf   `mapstructure:"data"`
	Factor FactorConf `mapstructure:"factor"`
}

// LoadConfig reads a workflow file (YAML or TOML, by extension), checks it
// against the workflow schema, and decodes it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading workflow file failed (%s): %w", path, err)
	}
	raw := v.AllSettings()
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("workflow file %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing workflow file failed: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.Factor.Crosses {
		if len(c.Factor.Crosses[i].Orders) == 0 {
			c.Factor.Crosses[i].Orders = []int{2}
		}
	}
}
