package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/appengine-ltd/wildmons/internal/atlas"
	"github.com/appengine-ltd/wildmons/internal/config"
	"github.com/appengine-ltd/wildmons/internal/logging"
	"github.com/appengine-ltd/wildmons/internal/parser"
	"github.com/appengine-ltd/wildmons/internal/source"
)

// version, commit, date are injected at build time with -ldflags -X.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	// Global flags
	configPath string
	verbose    bool
	sourceKind string
	rootDir    string
	baseURL    string

	cfg    *config.Config
	logger *zap.Logger
)

// errNoMatches makes search exit non-zero without printing an error.
var errNoMatches = errors.New("no matches")

var rootCmd = &cobra.Command{
	Use:   "wildmons",
	Short: "Wild encounter tables from map assembly sources",
	Long: `wildmons reads map .asm files, extracts the def_grass_wildmons and
def_water_wildmons tables, and reports each slot's species, level and
encounter chance.

Maps come from a mapIndex.json, a directory, an HTTP directory listing,
or a fixed list in the config file.`,
	Version:       fmt.Sprintf("%s (%s) %s", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if sourceKind != "" {
			cfg.Source.Kind = sourceKind
		}
		if rootDir != "" {
			cfg.Source.Root = rootDir
		}
		if baseURL != "" {
			cfg.Source.URL = baseURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Verbose: verbose,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "wildmons %s (%s) %s\n", version, commit, date)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&sourceKind, "source", "", "map source: index, dir, listing or static")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "local root directory for maps")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "base URL for remote maps")

	rootCmd.AddCommand(versionCmd, initCmd, listCmd, showCmd, searchCmd, serveCmd, indexCmd, docsCmd)
}

// openAtlas wires the configured source behind a memory cache.
func openAtlas() (*atlas.Atlas, *source.MemoryCache, error) {
	src, err := source.Open(cfg.SourceOptions(), logger)
	if err != nil {
		return nil, nil, err
	}
	cache := source.NewMemoryCache(src)
	p := parser.New(cfg.ParserOptions(), logger)
	return atlas.New(cache, p, cfg.AtlasOptions(), logger), cache, nil
}

func matchMode(raw string) (parser.MatchMode, error) {
	if strings.TrimSpace(raw) == "" {
		return parser.MatchMode(cfg.Search.Mode), nil
	}
	mode := parser.MatchMode(strings.ToLower(strings.TrimSpace(raw)))
	if !parser.ValidMatchMode(mode) {
		return "", fmt.Errorf("--mode must be exact or contains, got %q", raw)
	}
	return mode, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNoMatches) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
