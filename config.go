package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	Analyzer AnalyzerConfig `toml:"analyzer" yaml:"analyzer"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type AnalyzerConfig struct {
	Extension          string `toml:"extension" yaml:"extension"`
	StrictDeclarations bool   `toml:"strict_declarations" yaml:"strict_declarations"`
	Workers            int    `toml:"workers" yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Analyzer: AnalyzerConfig{
			Extension: ".jack",
			Workers:   4,
		},
	}
}

// LoadConfig reads a TOML file, or YAML when the extension says so, on top
// of the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("reading config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parsing config %q: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, &config); err != nil {
			return config, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	return config, config.Validate()
}

func (c Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q: want console or json", c.Log.Format)
	}
	if !strings.HasPrefix(c.Analyzer.Extension, ".") {
		return fmt.Errorf("invalid extension %q: must start with a dot", c.Analyzer.Extension)
	}
	if c.Analyzer.Workers < 0 {
		return fmt.Errorf("invalid worker count %d", c.Analyzer.Workers)
	}
	return nil
}

func parseLevel(text string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", text, err)
	}
	return level, nil
}

// NewLogger builds the process logger. Logs go to stderr so that analysis
// output on stdout stays machine readable.
func NewLogger(config LogConfig) (*zap.Logger, error) {
	level, err := parseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if config.Format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         config.Format,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build()
}
