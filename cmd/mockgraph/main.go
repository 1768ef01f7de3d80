package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/mockgraph"
	"github.com/jward/mockgraph/internal/config"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mockgraph",
	Short:         "Resolve Swift types into mockable descriptors",
	Long:          "mockgraph parses Swift modules with tree-sitter, flattens class and protocol hierarchies, and writes the mockable descriptors to a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: from the config file)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: nearest "+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(filesCmd)
}

var flagForce bool

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Index the configured modules and resolve their types",
	Long:  "Parses every configured module, resolves inheritance across modules, and replaces the descriptors stored in the database.",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database before resolving")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return outputError("resolve", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return outputError("resolve", err)
	}
	if flagDB != "" {
		cfg.Database, err = filepath.Abs(flagDB)
		if err != nil {
			return outputError("resolve", err)
		}
	}

	if flagForce {
		if err := os.Remove(cfg.Database); err != nil && !os.IsNotExist(err) {
			return outputError("resolve", fmt.Errorf("removing database for --force: %w", err))
		}
	}

	summary, err := resolveProject(cmd.Context(), cfg, newLogger(os.Stderr))
	if err != nil {
		return outputError("resolve", err)
	}
	return outputResult(CLIResult{Command: "resolve", Results: *summary})
}

// resolveProject indexes every module of cfg and resolves the result into
// cfg.Database.
func resolveProject(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*CLIResolveSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(cfg.Database), err)
	}

	opts := []mockgraph.Option{
		mockgraph.WithWorkers(cfg.Workers),
		mockgraph.WithLogger(logger),
	}
	if cfg.PolicyScript != "" {
		opts = append(opts, mockgraph.WithPolicyScript(cfg.PolicyScript))
	}
	engine, err := mockgraph.New(cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	summary := &CLIResolveSummary{Database: cfg.Database}
	for _, m := range cfg.Modules {
		engine.AddImports(m.Name, m.Imports...)
		for name, target := range m.Aliases {
			engine.AddAlias(m.Name, name, target)
		}
		stats, err := engine.IndexModule(ctx, m.Name, m.Sources, m.Mock)
		if err != nil {
			return nil, fmt.Errorf("indexing: %w", err)
		}
		summary.Modules = append(summary.Modules, CLIModuleStat{
			Name:         m.Name,
			Mock:         m.Mock,
			Files:        stats.Files,
			Unchanged:    stats.Unchanged,
			Declarations: stats.Declarations,
		})
	}

	res, err := engine.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving: %w", err)
	}
	summary.Types = len(res.Types)
	summary.Mocked = len(res.Mocked())
	summary.Opaque = res.Opaque
	for _, s := range res.Skipped {
		summary.Skipped = append(summary.Skipped, CLISkip{Type: s.FullyQualifiedName, Reason: s.Reason})
	}
	summary.ElapsedMS = time.Since(start).Milliseconds()
	return summary, nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveConfigPath returns the --config flag or the nearest config file
// above the working directory.
func resolveConfigPath() (string, error) {
	if flagConfig != "" {
		return filepath.Abs(flagConfig)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	path, ok := findConfigFile(cwd)
	if !ok {
		return "", fmt.Errorf("no %s found in %s or any parent directory", config.DefaultFileName, cwd)
	}
	return path, nil
}

// findConfigFile walks up from startDir looking for the config file.
func findConfigFile(startDir string) (string, bool) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, config.DefaultFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default in the working directory.
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return filepath.Abs(flagDB)
	}
	if path, err := resolveConfigPath(); err == nil {
		cfg, err := config.Load(path)
		if err != nil {
			return "", err
		}
		return cfg.Database, nil
	}
	return filepath.Abs(config.DefaultDatabase)
}
