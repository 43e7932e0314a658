package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TREND_DATA_PATH.
const EnvPrefix = "TREND"

// Config holds all application configuration.
type Config struct {
	Data struct {
		Path string `yaml:"path" validate:"required"`
	} `yaml:"data"`
	Output struct {
		ChartsDir string `yaml:"charts_dir" split_words:"true"`
		Workbook  string `yaml:"workbook"`
	} `yaml:"output"`
	Database struct {
		SqlitePath string `yaml:"sqlite_path" split_words:"true"`
	} `yaml:"database"`
	Split struct {
		TestFraction float64 `yaml:"test_fraction" split_words:"true" validate:"gt=0,lt=1"`
		Seed         uint64  `yaml:"seed"`
	} `yaml:"split"`
	Scaler struct {
		FitOn string `yaml:"fit_on" split_words:"true" validate:"oneof=all train"`
	} `yaml:"scaler"`
	Explore struct {
		Skip    bool    `yaml:"skip"`
		ZoomMax float64 `yaml:"zoom_max" split_words:"true" validate:"gt=0"`
	} `yaml:"explore"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`
	Model ModelConfig `yaml:"model"`
}

// ModelConfig holds classifier hyperparameters. Zero values select the defaults.
type ModelConfig struct {
	Logistic struct {
		C       float64 `yaml:"c" validate:"gte=0"`
		MaxIter int     `yaml:"max_iter" split_words:"true" validate:"gte=0"`
	} `yaml:"logistic"`
	SVC struct {
		C      float64 `yaml:"c" validate:"gte=0"`
		Degree int     `yaml:"degree" validate:"gte=0"`
		Gamma  float64 `yaml:"gamma" validate:"gte=0"`
		Coef0  float64 `yaml:"coef0"`
	} `yaml:"svc"`
	Boosting struct {
		Rounds         int     `yaml:"rounds" validate:"gte=0"`
		MaxDepth       int     `yaml:"max_depth" split_words:"true" validate:"gte=0"`
		LearningRate   float64 `yaml:"learning_rate" split_words:"true" validate:"gte=0,lte=1"`
		Lambda         float64 `yaml:"lambda" validate:"gte=0"`
		MinChildWeight float64 `yaml:"min_child_weight" split_words:"true" validate:"gte=0"`
	} `yaml:"boosting"`
}

// DefaultChartsDir is used when output.charts_dir is absent. An explicit
// empty value disables charts.
const DefaultChartsDir = "charts"

// Load reads config from a YAML file, applies environment overrides and then defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Output.ChartsDir = DefaultChartsDir

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data.Path == "" {
		c.Data.Path = "bitcoin.csv"
	}
	if c.Split.TestFraction == 0 {
		c.Split.TestFraction = 0.1
	}
	if c.Split.Seed == 0 {
		c.Split.Seed = 2022
	}
	if c.Scaler.FitOn == "" {
		c.Scaler.FitOn = "all"
	}
	if c.Explore.ZoomMax == 0 {
		c.Explore.ZoomMax = 10000
	}
}

// Validate checks field constraints and the cron expression.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Schedule.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}
