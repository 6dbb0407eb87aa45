// Package config loads behaviors.yaml and applies it to hosts.
//
//	version: v1
//	log:
//	  level: debug
//	  development: true
//	metrics:
//	  namespace: clock
//	  addr: ":2112"
//	behaviors:
//	  Ticker:
//	    interval: 250ms
//
// Entries under behaviors are keyed by the name of the host member that
// holds the behavior.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/behaviors/pkg/core"
	"github.com/go-drift/behaviors/pkg/discovery"
	"github.com/go-drift/behaviors/pkg/errors"
	"github.com/go-drift/behaviors/pkg/logging"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "behaviors.yaml"

// SupportedMajor is the configuration format major version this package reads.
const SupportedMajor = "v1"

// ErrUnsupportedVersion is returned for configuration files of another
// major version.
var ErrUnsupportedVersion = stderrors.New("unsupported configuration version")

// Config represents the optional behaviors.yaml configuration.
type Config struct {
	Version   string                    `yaml:"version,omitempty"`
	Log       LogConfig                 `yaml:"log"`
	Metrics   MetricsConfig             `yaml:"metrics"`
	Behaviors map[string]map[string]any `yaml:"behaviors,omitempty"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace,omitempty"`
	Addr      string `yaml:"addr,omitempty"`
}

// Configurable is implemented by behaviors that accept options from
// configuration.
type Configurable interface {
	Configure(options map[string]any) error
}

// LoadOptional reads behaviors.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	cfg, err := Load(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the version and log level.
func (c *Config) Validate() error {
	if v := strings.TrimSpace(c.Version); v != "" {
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			return fmt.Errorf("version %q is not a valid semantic version", c.Version)
		}
		if major := semver.Major(v); major != SupportedMajor {
			return fmt.Errorf("%w: %s (want %s)", ErrUnsupportedVersion, major, SupportedMajor)
		}
	}
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	return nil
}

// Options returns the options configured for member, or nil.
func (c *Config) Options(member string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Behaviors[member]
}

// Apply configures the behaviors held by host from cfg. Behaviors are
// matched by member name; members without options are left alone. Apply
// may run before the host is mounted.
func Apply(cfg *Config, host core.Host) error {
	if cfg == nil || len(cfg.Behaviors) == 0 {
		return nil
	}

	log := logging.Named("config")
	seen := make(map[string]bool, len(cfg.Behaviors))
	for _, match := range discovery.FindInstances[Configurable](host) {
		options := cfg.Options(match.Name)
		if options == nil {
			continue
		}
		seen[match.Name] = true
		if err := match.Instance.Configure(options); err != nil {
			return &errors.BehaviorError{
				Op:     "config.Apply",
				Kind:   errors.KindConfig,
				Member: match.Name,
				Err:    err,
			}
		}
		log.Debug("behavior configured", zap.String("member", match.Name))
	}

	for member := range cfg.Behaviors {
		if !seen[member] {
			log.Warn("no configurable behavior for member", zap.String("member", member))
		}
	}
	return nil
}

// NewLogger builds a zap logger from the log section.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	return zc.Build()
}
