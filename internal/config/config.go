package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultLogLevel  = "info"
	DefaultAddress   = "0.0.0.0:3000"
	DefaultExtractor = "jq"
)

// Config is the top-level gaugefetch configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// LogLevel controls log verbosity: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// Address is the host:port the /metrics HTTP server binds to.
	Address string `yaml:"address"`

	// ScrapeOnStartup scrapes every target once, synchronously, before the
	// listener and scheduler start. Any failure is fatal. Useful to verify a
	// config; not meant for production.
	ScrapeOnStartup bool `yaml:"scrape_on_startup"`

	// Targets is the list of HTTP resources to poll.
	Targets []Target `yaml:"targets"`
}

// Target describes one polled HTTP resource. Targets are immutable once
// loaded; scheduled firings borrow them read-only.
type Target struct {
	// Name uniquely identifies the target. It appears verbatim in logs and
	// must not contain newlines.
	Name string `yaml:"name"`

	// URL is fetched with a GET request on every firing.
	URL string `yaml:"url"`

	// Headers are sent with every request. A User-Agent header set here
	// overrides the default identifying one.
	Headers map[string]string `yaml:"headers"`

	// Cron is when the target is scraped. Standard 5-field cron, 6-field
	// with a leading seconds column, and descriptors like "@every 30s" or
	// "@hourly" are accepted.
	Cron string `yaml:"cron"`

	// Extractor selects how rules interpret the response: jq | regex.
	Extractor string `yaml:"extractor"`

	// Rules are the extraction rules run against every response.
	Rules []Rule `yaml:"rules"`
}

// Rule is one named extraction instruction within a target. The rule name is
// used as the metric family name and should be snake_case.
type Rule struct {
	Name    string `yaml:"name"`
	Extract string `yaml:"extract"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	for i := range cfg.Targets {
		if cfg.Targets[i].Extractor == "" {
			cfg.Targets[i].Extractor = DefaultExtractor
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Level parses the configured log level into a slog.Level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Address:  DefaultAddress,
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Address == "" {
		return fmt.Errorf("address is required")
	}

	seen := make(map[string]bool, len(cfg.Targets))
	for i, t := range cfg.Targets {
		if t.Name == "" {
			return fmt.Errorf("targets[%d]: name is required", i)
		}
		if strings.ContainsAny(t.Name, "\r\n") {
			return fmt.Errorf("targets[%d] %q: name must not contain newlines", i, t.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("targets[%d] %q: duplicate target name", i, t.Name)
		}
		seen[t.Name] = true

		if t.URL == "" {
			return fmt.Errorf("targets[%d] %q: url is required", i, t.Name)
		}
		if t.Cron == "" {
			return fmt.Errorf("targets[%d] %q: cron is required", i, t.Name)
		}
		switch t.Extractor {
		case "jq", "regex":
		default:
			return fmt.Errorf("targets[%d] %q: unknown extractor %q", i, t.Name, t.Extractor)
		}

		rules := make(map[string]bool, len(t.Rules))
		for j, r := range t.Rules {
			if r.Name == "" {
				return fmt.Errorf("targets[%d] %q: rules[%d]: name is required", i, t.Name, j)
			}
			if rules[r.Name] {
				return fmt.Errorf("targets[%d] %q: rules[%d] %q: duplicate rule name", i, t.Name, j, r.Name)
			}
			rules[r.Name] = true
			if r.Extract == "" {
				return fmt.Errorf("targets[%d] %q: rules[%d] %q: extract is required", i, t.Name, j, r.Name)
			}
		}
	}
	return nil
}
