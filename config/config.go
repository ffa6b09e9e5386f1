// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the engine configuration, loaded with viper from
// a config file, the environment, and flags.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aclements/go-markres/chart"
	"github.com/aclements/go-markres/spec"
)

// EnvPrefix is the prefix of environment variables that override
// configuration keys, such as MARKRES_ENGINE_CONCURRENCY.
const EnvPrefix = "MARKRES"

var envReplacer = strings.NewReplacer(".", "_")

// Config is the complete engine configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Area      AreaConfig      `mapstructure:"area" yaml:"area"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Force     ForceConfig     `mapstructure:"force" yaml:"force"`
	WordCloud WordCloudConfig `mapstructure:"wordcloud" yaml:"wordcloud"`
	Theme     ThemeConfig     `mapstructure:"theme" yaml:"theme"`
}

// LoggerConfig configures logging.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`

	// LogFile, if set, also writes JSON logs to a rotated file.
	// MaxSize is in megabytes and MaxAge in days.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// AreaConfig is the default plot area, in pixels.
type AreaConfig struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
}

// EngineConfig configures chart builds.
type EngineConfig struct {
	// Concurrency bounds the number of marks resolved at once. Zero
	// means GOMAXPROCS.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// Timeout bounds a whole chart build. Zero means no limit.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ForceConfig holds the default force simulation limits.
type ForceConfig struct {
	Seed            uint64        `mapstructure:"seed" yaml:"seed"`
	Iterations      int           `mapstructure:"iterations" yaml:"iterations"`
	TimeBudget      time.Duration `mapstructure:"time_budget" yaml:"time_budget"`
	EnergyThreshold float64       `mapstructure:"energy_threshold" yaml:"energy_threshold"`
}

// WordCloudConfig holds the default word cloud options.
type WordCloudConfig struct {
	FontSize  []float64 `mapstructure:"font_size" yaml:"font_size"`
	Padding   float64   `mapstructure:"padding" yaml:"padding"`
	Spiral    string    `mapstructure:"spiral" yaml:"spiral"`
	Rotations []float64 `mapstructure:"rotations" yaml:"rotations"`
}

// ThemeConfig holds theme tokens. Empty tokens take the default theme's.
type ThemeConfig struct {
	Categorical []string `mapstructure:"categorical" yaml:"categorical"`
	Sequential  []string `mapstructure:"sequential" yaml:"sequential"`
	Fill        string   `mapstructure:"fill" yaml:"fill"`
	Stroke      string   `mapstructure:"stroke" yaml:"stroke"`
	LineWidth   float64  `mapstructure:"line_width" yaml:"line_width"`
	Opacity     float64  `mapstructure:"opacity" yaml:"opacity"`
	FontFamily  string   `mapstructure:"font_family" yaml:"font_family"`
	FontSize    float64  `mapstructure:"font_size" yaml:"font_size"`
	TextFill    string   `mapstructure:"text_fill" yaml:"text_fill"`
}

// NewDefaultConfig returns the configuration with every default set.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers the default of every configuration key with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "markres")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("area.width", 640)
	v.SetDefault("area.height", 480)

	v.SetDefault("engine.concurrency", runtime.GOMAXPROCS(0))
	v.SetDefault("engine.timeout", "30s")

	v.SetDefault("force.seed", 1)
	v.SetDefault("force.iterations", 0)
	v.SetDefault("force.time_budget", "2s")
	v.SetDefault("force.energy_threshold", 0.0)

	v.SetDefault("wordcloud.font_size", []float64{10, 48})
	v.SetDefault("wordcloud.padding", 1.0)
	v.SetDefault("wordcloud.spiral", "archimedean")
	v.SetDefault("wordcloud.rotations", []float64{0})

	d := chart.DefaultTheme()
	v.SetDefault("theme.categorical", d.Categorical)
	v.SetDefault("theme.fill", d.Fill)
	v.SetDefault("theme.stroke", d.Stroke)
	v.SetDefault("theme.line_width", d.LineWidth)
	v.SetDefault("theme.opacity", d.Opacity)
	v.SetDefault("theme.font_family", d.FontFamily)
	v.SetDefault("theme.font_size", d.FontSize)
	v.SetDefault("theme.text_fill", d.TextFill)
}

// NewConfigFromViper unmarshals and validates the configuration held by
// v. Keys may be overridden by MARKRES_-prefixed environment variables.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", not %q", c.Logger.Format)
	}
	if c.Area.Width <= 0 || c.Area.Height <= 0 {
		return fmt.Errorf("area.width and area.height must be positive")
	}
	if c.Engine.Concurrency < 0 {
		return fmt.Errorf("engine.concurrency must not be negative")
	}
	if c.Engine.Timeout < 0 {
		return fmt.Errorf("engine.timeout must not be negative")
	}
	if c.Force.Iterations < 0 {
		return fmt.Errorf("force.iterations must not be negative")
	}
	if c.Force.TimeBudget < 0 {
		return fmt.Errorf("force.time_budget must not be negative")
	}
	if err := c.WordCloud.Validate(); err != nil {
		return fmt.Errorf("wordcloud configuration invalid: %w", err)
	}
	if err := c.Theme.chart().Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the word cloud configuration.
func (w *WordCloudConfig) Validate() error {
	if len(w.FontSize) != 0 {
		if len(w.FontSize) != 2 {
			return fmt.Errorf("font_size must be [min, max]")
		}
		if w.FontSize[0] <= 0 || w.FontSize[1] < w.FontSize[0] {
			return fmt.Errorf("font_size %v is not a valid range", w.FontSize)
		}
	}
	switch w.Spiral {
	case "", "archimedean", "rectangular":
	default:
		return fmt.Errorf("unknown spiral %q", w.Spiral)
	}
	if w.Padding < 0 {
		return fmt.Errorf("padding must not be negative")
	}
	return nil
}

func (t ThemeConfig) chart() chart.Theme {
	return chart.Theme{
		Categorical: t.Categorical,
		Sequential:  t.Sequential,
		Fill:        t.Fill,
		Stroke:      t.Stroke,
		LineWidth:   t.LineWidth,
		Opacity:     t.Opacity,
		FontFamily:  t.FontFamily,
		FontSize:    t.FontSize,
		TextFill:    t.TextFill,
	}
}

// Layouts returns the default layout options of the structured kinds
// that have configuration.
func (c *Config) Layouts() map[spec.Kind]spec.LayoutOptions {
	wc := &spec.WordCloudLayout{
		Padding:   c.WordCloud.Padding,
		Spiral:    c.WordCloud.Spiral,
		Rotations: append([]float64(nil), c.WordCloud.Rotations...),
	}
	if len(c.WordCloud.FontSize) == 2 {
		wc.FontSize = [2]float64{c.WordCloud.FontSize[0], c.WordCloud.FontSize[1]}
	}
	return map[spec.Kind]spec.LayoutOptions{
		spec.ForceGraph: &spec.ForceLayout{
			Seed:            c.Force.Seed,
			Iterations:      c.Force.Iterations,
			TimeBudget:      c.Force.TimeBudget,
			EnergyThreshold: c.Force.EnergyThreshold,
		},
		spec.WordCloud: wc,
	}
}

// ChartOptions returns the chart build options described by c.
func (c *Config) ChartOptions() chart.Options {
	return chart.Options{
		Area:        chart.Area{Width: c.Area.Width, Height: c.Area.Height},
		Theme:       c.Theme.chart(),
		Concurrency: c.Engine.Concurrency,
		Layouts:     c.Layouts(),
	}
}
