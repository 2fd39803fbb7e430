package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/appengine-ltd/wildmons/internal/atlas"
	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/source"
)

const DefaultPath = "wildmons.yaml"

type Config struct {
	Source      SourceConfig `yaml:"source"`
	Parser      ParserConfig `yaml:"parser"`
	Search      SearchConfig `yaml:"search"`
	Server      ServerConfig `yaml:"server"`
	Concurrency int          `yaml:"concurrency"`
	Log         LogConfig    `yaml:"log"`
}

type SourceConfig struct {
	Kind         string   `yaml:"kind"`
	Root         string   `yaml:"root"`
	URL          string   `yaml:"url,omitempty"`
	Index        string   `yaml:"index"`
	MapsDir      string   `yaml:"maps_dir"`
	Extension    string   `yaml:"extension"`
	Maps         []string `yaml:"maps,omitempty"`
	CacheDir     string   `yaml:"cache_dir,omitempty"`
	AllowedHosts []string `yaml:"allowed_hosts,omitempty"`
	Timeout      string   `yaml:"timeout"`
}

type ParserConfig struct {
	Rates       []int  `yaml:"rates"`
	RateTotal   int    `yaml:"rate_total,omitempty"`
	SpeciesCase string `yaml:"species_case"`
	Delimiters  string `yaml:"delimiters"`
}

type SearchConfig struct {
	Mode        string `yaml:"mode"`
	Suggestions int    `yaml:"suggestions"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:      string(source.KindIndex),
			Root:      ".",
			Index:     source.DefaultIndexFile,
			MapsDir:   source.DefaultMapsDir,
			Extension: source.DefaultExtension,
			Timeout:   "20s",
		},
		Parser: ParserConfig{
			Rates:       parser.DefaultRateTable().Weights,
			SpeciesCase: string(parser.CasePreserve),
			Delimiters:  string(parser.DelimTolerant),
		},
		Search: SearchConfig{
			Mode:        string(parser.MatchExact),
			Suggestions: 3,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Concurrency: atlas.DefaultConcurrency,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WILDMONS_SOURCE"); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv("WILDMONS_ROOT"); v != "" {
		c.Source.Root = v
	}
	if v := os.Getenv("WILDMONS_URL"); v != "" {
		c.Source.URL = v
	}
	if v := os.Getenv("WILDMONS_CACHE_DIR"); v != "" {
		c.Source.CacheDir = v
	}
	if v := os.Getenv("WILDMONS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func (c *Config) Validate() error {
	if !source.ValidKind(source.Kind(strings.ToLower(c.Source.Kind))) {
		return fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind)
	}
	if _, err := c.Timeout(); err != nil {
		return fmt.Errorf("source.timeout: %w", err)
	}
	if _, err := c.CacheDir(); err != nil {
		return fmt.Errorf("source.cache_dir: %w", err)
	}
	if err := c.RateTable().Validate(); err != nil {
		return fmt.Errorf("parser.rates: %w", err)
	}
	switch parser.SpeciesCase(c.Parser.SpeciesCase) {
	case parser.CasePreserve, parser.CaseUpper:
	default:
		return fmt.Errorf("parser.species_case: must be preserve or upper, got %q", c.Parser.SpeciesCase)
	}
	switch parser.DelimiterPolicy(c.Parser.Delimiters) {
	case parser.DelimTolerant, parser.DelimStrict:
	default:
		return fmt.Errorf("parser.delimiters: must be tolerant or strict, got %q", c.Parser.Delimiters)
	}
	if !parser.ValidMatchMode(parser.MatchMode(c.Search.Mode)) {
		return fmt.Errorf("search.mode: must be exact or contains, got %q", c.Search.Mode)
	}
	if c.Search.Suggestions < 0 {
		return errors.New("search.suggestions: must not be negative")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency: must be at least 1")
	}
	return nil
}

func (c *Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.Source.Timeout) == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Source.Timeout)
}

func (c *Config) RateTable() parser.RateTable {
	return parser.NewRateTable(c.Parser.Rates, c.Parser.RateTotal)
}

func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Rates:       c.RateTable(),
		SpeciesCase: parser.SpeciesCase(c.Parser.SpeciesCase),
		Delimiters:  parser.DelimiterPolicy(c.Parser.Delimiters),
	}
}

func (c *Config) SourceOptions() source.Options {
	timeout, _ := c.Timeout()
	cacheDir, _ := c.CacheDir()
	return source.Options{
		Kind:         source.Kind(strings.ToLower(c.Source.Kind)),
		Root:         c.Source.Root,
		URL:          c.Source.URL,
		IndexFile:    c.Source.Index,
		MapsDir:      c.Source.MapsDir,
		Extension:    c.Source.Extension,
		Maps:         c.Source.Maps,
		CacheDir:     cacheDir,
		AllowedHosts: c.Source.AllowedHosts,
		Timeout:      timeout,
	}
}

func (c *Config) AtlasOptions() atlas.Options {
	return atlas.Options{
		Concurrency: c.Concurrency,
		Suggestions: c.Search.Suggestions,
	}
}

// Save writes the config atomically: temp file in the same directory, then
// rename over path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "wildmons-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	cleanup = false
	return nil
}
