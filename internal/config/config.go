package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all querychain configuration
type Config struct {
	Builder   BuilderConfig   `mapstructure:"builder"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Log       LogConfig       `mapstructure:"log"`
}

type BuilderConfig struct {
	MaxLinks     int `mapstructure:"max_links"`
	DefaultLimit int `mapstructure:"default_limit"`
}

type TemplatesConfig struct {
	// Path is a CUE directory or a .yaml/.yml file.
	Path string `mapstructure:"path"`
}

type JournalConfig struct {
	// Path of the sqlite journal. Empty disables journaling.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// EnvPrefix prefixes environment overrides, e.g. QUERYCHAIN_BUILDER_MAX_LINKS.
const EnvPrefix = "QUERYCHAIN"

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		Builder: BuilderConfig{
			MaxLinks:     10,
			DefaultLimit: 10,
		},
		Templates: TemplatesConfig{
			Path: "templates",
		},
		Journal: JournalConfig{
			Path: "",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("builder.max_links", d.Builder.MaxLinks)
	v.SetDefault("builder.default_limit", d.Builder.DefaultLimit)
	v.SetDefault("templates.path", d.Templates.Path)
	v.SetDefault("journal.path", d.Journal.Path)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads querychain.yaml from the search path, or the file at path when
// path is not empty. A missing file on the search path is not an error; a
// missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("querychain")
		v.SetConfigType("yaml")

		// 1. User config directory
		if dir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(dir)
		}
		// 2. Current directory
		v.AddConfigPath(".")
		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the builder cannot run with.
func (c *Config) Validate() error {
	if c.Builder.MaxLinks < 1 {
		return fmt.Errorf("builder.max_links must be at least 1, got %d", c.Builder.MaxLinks)
	}
	if c.Builder.DefaultLimit < 1 {
		return fmt.Errorf("builder.default_limit must be at least 1, got %d", c.Builder.DefaultLimit)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the parsed log level, or warn if it does not parse.
func (c *Config) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "querychain"), nil
}
