// Package main is the hdkg CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/hdkg/internal/cli"
	"github.com/hyperjump/hdkg/internal/config"
	"github.com/hyperjump/hdkg/internal/engine"
	"github.com/hyperjump/hdkg/internal/ingest"
	"github.com/hyperjump/hdkg/internal/metrics"
	"github.com/hyperjump/hdkg/internal/models"
	"github.com/hyperjump/hdkg/internal/preprocess"
	"github.com/hyperjump/hdkg/internal/symbol"
	"github.com/hyperjump/hdkg/internal/vsa"
	"github.com/hyperjump/hdkg/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/hdkg/config.yaml"

var errNoSeeds = errors.New("no valid seed symbol IDs provided")

// globals are the flags shared by every command.
type globals struct {
	configPath string
	dataDir    string
	debug      bool
}

// loadConfig loads config from path. When path is the default, config.yaml
// in the current directory wins if present, and a missing default file yields
// built-in defaults. Returns the config and the path actually loaded ("" for
// defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// defaultDataDir is used when neither the flag nor the config names one.
func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".hdkg")
	}
	return ".hdkg"
}

// env is what a command needs after flags and config are resolved.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	debug      bool
}

func (g *globals) setup() (*env, error) {
	cfg, resolved, err := loadConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.dataDir != "" {
		cfg.DataDir = g.dataDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	debug := cfg.Debug || g.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("debug", debug))
	return &env{cfg: cfg, configPath: resolved, logger: logger, debug: debug}, nil
}

// engineConfig maps file configuration onto the engine. dimension overrides
// the configured width when non-zero.
func engineConfig(cfg *config.Config, dimension int) engine.Config {
	ec := engine.FromConfig(cfg)
	if dimension != 0 {
		ec.Dimension = vsa.Dimension(dimension)
	}
	return ec
}

func (e *env) openEngine(ctx context.Context, dimension int, m *metrics.Metrics) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(e.logger)}
	if m != nil {
		opts = append(opts, engine.WithMetrics(m))
	}
	return engine.New(ctx, engineConfig(e.cfg, dimension), opts...)
}

// newPreprocessor builds the label registry and preprocessor over eng's item
// memory. The caller closes the returned registry.
func (e *env) newPreprocessor(eng *engine.Engine, m *metrics.Metrics) (*preprocess.Preprocessor, *preprocess.Registry, error) {
	reg, err := preprocess.NewRegistry(eng.Ops(),
		preprocess.WithThreshold(e.cfg.Preprocess.FuzzyThreshold),
		preprocess.WithCacheSize(e.cfg.Preprocess.CacheSize),
		preprocess.WithRegistryLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	opts := []preprocess.Option{preprocess.WithLogger(e.logger)}
	if m != nil {
		opts = append(opts, preprocess.WithMetrics(m))
	}
	return preprocess.New(eng.ItemMemory(), reg, opts...), reg, nil
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "hdkg",
		Short:         "Hyperdimensional knowledge graph engine",
		Long:          "hdkg stores symbol triples and answers similarity queries over their hypervector projections.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", defaultConfigPath, "config file path")
	pf.StringVar(&g.dataDir, "data-dir", "", "engine state directory (overrides config)")
	pf.BoolVar(&g.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(g),
		newIngestCmd(g),
		newQueryCmd(g),
		newInfoCmd(g),
		newServeCmd(g),
		newVersionCmd(),
	)
	return root
}

func newInitCmd(g *globals) *cobra.Command {
	var dimension int
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or open persisted engine state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			eng, err := e.openEngine(cmd.Context(), dimension, nil)
			if err != nil {
				return fmt.Errorf("initialize engine: %w", err)
			}
			defer eng.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Engine initialized at %s with dimension %d\n", e.cfg.DataDir, eng.Dimension())
			return cli.WriteInfo(out, eng.Info(), cli.OutputText)
		},
	}
	cmd.Flags().IntVar(&dimension, "dimension", int(vsa.DefaultDimension), "hypervector dimension")
	return cmd
}

func newIngestCmd(g *globals) *cobra.Command {
	var files []string
	var recursive bool
	cmd := &cobra.Command{
		Use:   "ingest [--file path]... [dir]...",
		Short: "Load JSON triple files or prose into the engine",
		Long: `Ingest reads JSON arrays of {"s","p","o"} triples; records with a zero
field are skipped. Other files allowed by watch.extensions (.txt, .pdf,
.rtf, .odt by default) are run through the preprocessor and every extracted claim becomes a triple.
Positional arguments may be files or directories.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(append([]string(nil), files...), args...)
			if len(paths) == 0 {
				return errors.New("nothing to ingest: pass --file or a path")
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()

			ctx := cmd.Context()
			eng, err := e.openEngine(ctx, 0, nil)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer eng.Close()
			pre, reg, err := e.newPreprocessor(eng, nil)
			if err != nil {
				return err
			}
			defer reg.Close()

			in := ingest.New(eng, ingest.WithExtractor(pre), ingest.WithLogger(e.logger))
			total, err := ingestPaths(ctx, in, paths, e.cfg.Watch.Extensions, recursive)
			out := cmd.OutOrStdout()
			cli.WriteIngestStats(out, total)
			if err != nil {
				return err
			}
			return cli.WriteInfo(out, eng.Info(), cli.OutputText)
		},
	}
	cmd.Flags().StringArrayVar(&files, "file", nil, "file to ingest (repeatable)")
	cmd.Flags().BoolVar(&recursive, "recursive", true, "descend into subdirectories")
	return cmd
}

// ingestPaths ingests files and directories in order. Explicitly named files
// are read whatever their extension; directories are filtered by exts.
func ingestPaths(ctx context.Context, in *ingest.Ingester, paths, exts []string, recursive bool) (ingest.Stats, error) {
	var total ingest.Stats
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return total, err
		}
		var st ingest.Stats
		if info.IsDir() {
			st, err = in.IngestDirectory(ctx, p, exts, recursive)
		} else {
			st, err = in.IngestFile(ctx, p, nil)
		}
		total.Merge(st)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// parseSeeds turns the --seeds list into a validated request. Entries that do
// not parse, and zero ids, are dropped.
func parseSeeds(list string, topK int) (*models.SearchRequest, []string, error) {
	valid, invalid := symbol.ParseList(list)
	req := &models.SearchRequest{TopK: topK}
	for _, s := range valid {
		req.Seeds = append(req.Seeds, s.Uint64())
	}
	if _, err := req.Validate(); err != nil {
		return nil, invalid, errNoSeeds
	}
	return req, invalid, nil
}

func newQueryCmd(g *globals) *cobra.Command {
	var (
		seeds  string
		topK   int
		output string
	)
	cmd := &cobra.Command{
		Use:   "query --seeds 1,2,3",
		Short: "Rank symbols by similarity to the bundle of seed vectors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			req, invalid, err := parseSeeds(seeds, topK)
			if err != nil {
				return err
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			if len(invalid) > 0 {
				e.logger.Warn("ignoring invalid seeds", zap.Strings("seeds", invalid))
			}

			ctx := cmd.Context()
			eng, err := e.openEngine(ctx, 0, nil)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer eng.Close()

			syms, _ := req.Validate()
			start := time.Now()
			hits, err := eng.SearchSeeds(ctx, syms, req.TopK)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), &models.SearchResponse{
				Seeds:     req.Seeds,
				Results:   models.NewSearchResults(hits),
				QueryTime: time.Since(start).Milliseconds(),
			}, format)
		},
	}
	cmd.Flags().StringVar(&seeds, "seeds", "", "comma-separated seed symbol ids")
	cmd.Flags().IntVar(&topK, "top-k", models.DefaultTopK, "number of results")
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("seeds")
	return cmd
}

func newInfoCmd(g *globals) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print engine counts and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			e, err := g.setup()
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			eng, err := e.openEngine(cmd.Context(), 0, nil)
			if err != nil {
				return fmt.Errorf("open engine: %w", err)
			}
			defer eng.Close()
			return cli.WriteInfo(cmd.OutOrStdout(), eng.Info(), format)
		},
	}
	cmd.Flags().StringVar(&output, "output", "text", "output format: text or json")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hdkg version %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
