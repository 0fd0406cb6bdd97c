// Package config loads intakewizard settings with viper. Precedence is
// environment (INTAKE_*) over the config file over defaults; command line
// flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DraftMemory = "memory"
	DraftFile   = "file"
	DraftSQLite = "sqlite"
	DraftNATS   = "nats"

	GatewayHTTP = "http"
	GatewayNATS = "nats"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Draft     DraftConfig     `mapstructure:"draft" yaml:"draft"`
	NATS      NATSConfig      `mapstructure:"nats" yaml:"nats"`
	Gateway   GatewayConfig   `mapstructure:"gateway" yaml:"gateway"`
	Assistant AssistantConfig `mapstructure:"assistant" yaml:"assistant"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type DraftConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	Bucket     string `mapstructure:"bucket" yaml:"bucket"`
}

// NATSConfig points at an external server. With an empty URL an embedded
// server is started under DataDir when a component needs NATS.
type NATSConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
}

type GatewayConfig struct {
	Kind    string        `mapstructure:"kind" yaml:"kind"`
	URL     string        `mapstructure:"url" yaml:"url"`
	Subject string        `mapstructure:"subject" yaml:"subject"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type AssistantConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
	Lang    string `mapstructure:"lang" yaml:"lang"`
}

var defaults = map[string]any{
	"log.level":          "info",
	"log.format":         "text",
	"server.addr":        ":8080",
	"draft.backend":      DraftFile,
	"draft.dir":          ".intakewizard/drafts",
	"draft.sqlite_path":  ".intakewizard/drafts.db",
	"draft.bucket":       "intake_drafts",
	"nats.url":           "",
	"nats.data_dir":      ".intakewizard/nats",
	"gateway.kind":       GatewayHTTP,
	"gateway.url":        "http://localhost:9090/applications",
	"gateway.subject":    "intake.applications.submit",
	"gateway.timeout":    "15s",
	"assistant.enabled":  false,
	"assistant.api_key":  "",
	"assistant.base_url": "",
	"assistant.model":    "gpt-4o-mini",
	"assistant.lang":     "English",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Load reads path, or ProjectPath when path is empty and that file exists.
func Load(path string) (*Config, error) {
	v := newViper()

	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		env := "INTAKE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	case fileExists(ProjectPath()):
		v.SetConfigFile(ProjectPath())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", ProjectPath(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when neither a file nor the
// environment sets anything.
func Default() *Config {
	var cfg Config
	_ = newViper().Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Draft.Backend {
	case DraftMemory, DraftFile, DraftSQLite, DraftNATS:
	default:
		errs = append(errs, fmt.Errorf("draft.backend must be one of memory, file, sqlite, nats; got %q", c.Draft.Backend))
	}
	switch c.Gateway.Kind {
	case GatewayHTTP:
		if c.Gateway.URL == "" {
			errs = append(errs, errors.New("gateway.url is required for the http gateway"))
		}
	case GatewayNATS:
	default:
		errs = append(errs, fmt.Errorf("gateway.kind must be http or nats; got %q", c.Gateway.Kind))
	}
	if c.Gateway.Timeout < 0 {
		errs = append(errs, errors.New("gateway.timeout must not be negative"))
	}
	if c.Assistant.Enabled && c.Assistant.Model == "" {
		errs = append(errs, errors.New("assistant.model is required when the assistant is enabled"))
	}
	return errors.Join(errs...)
}

// NeedsNATS reports whether any configured component talks to NATS.
func (c *Config) NeedsNATS() bool {
	return c.Draft.Backend == DraftNATS || c.Gateway.Kind == GatewayNATS
}

// ProjectPath is the config file picked up from the working directory.
func ProjectPath() string {
	return "intakewizard.yml"
}

func Write(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := Encode(f, cfg); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes cfg as YAML.
func Encode(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return enc.Close()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
