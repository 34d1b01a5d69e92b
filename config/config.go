// Package config loads simbench settings from defaults, an optional
// simbench.yaml, a .env file, SIMBENCH_* environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weiihann/simbench/compare"
	"github.com/weiihann/simbench/dataset"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SIMBENCH"

// Config is the resolved configuration.
type Config struct {
	DataFile       string   `mapstructure:"data_file"`
	Suite          string   `mapstructure:"suite"`
	RepoURL        string   `mapstructure:"repo_url"`
	Tool           string   `mapstructure:"tool"`
	MaxItems       int      `mapstructure:"max_items"`
	AlertThreshold string   `mapstructure:"alert_threshold"`
	FailThreshold  string   `mapstructure:"fail_threshold"`
	IndexDir       string   `mapstructure:"index_dir"`
	Units          []string `mapstructure:"units"`
	LogLevel       string   `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "dev/sim-bench/data.js")
	v.SetDefault("suite", dataset.DefaultSuite)
	v.SetDefault("repo_url", "")
	v.SetDefault("tool", string(dataset.ToolCustomSmallerIsBetter))
	v.SetDefault("max_items", 0)
	v.SetDefault("alert_threshold", "200%")
	v.SetDefault("fail_threshold", "")
	v.SetDefault("index_dir", ".simbench/index")
	v.SetDefault("units", dataset.DefaultUnits())
	v.SetDefault("log_level", "info")
}

// Load resolves the configuration. cfgFile names an explicit config file;
// when empty, simbench.yaml is looked up in the working directory and is
// optional. Flags whose names match a key with '-' for '_' override every
// other source when set.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("simbench")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for _, key := range v.AllKeys() {
			f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil {
				continue
			}

			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late in a command.
func (c *Config) Validate() error {
	var errs []error

	if c.DataFile == "" {
		errs = append(errs, errors.New("data_file must not be empty"))
	}

	if c.Suite == "" {
		errs = append(errs, errors.New("suite must not be empty"))
	}

	if _, err := dataset.ParseTool(c.Tool); err != nil {
		errs = append(errs, fmt.Errorf("tool: %w", err))
	}

	if c.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("max_items must not be negative, got %d", c.MaxItems))
	}

	if _, err := compare.ParseThreshold(c.AlertThreshold); err != nil {
		errs = append(errs, fmt.Errorf("alert_threshold: %w", err))
	}

	if c.FailThreshold != "" {
		if _, err := compare.ParseThreshold(c.FailThreshold); err != nil {
			errs = append(errs, fmt.Errorf("fail_threshold: %w", err))
		}
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}

	return level, nil
}

// ToolKind returns the parsed Tool.
func (c *Config) ToolKind() dataset.Tool {
	t, _ := dataset.ParseTool(c.Tool)
	return t
}
