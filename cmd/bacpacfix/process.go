package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mbreukel/BacpacCompatFixer/internal/config"
	"github.com/mbreukel/BacpacCompatFixer/internal/pipeline"
)

var processCommand = &cobra.Command{
	Use:   "process <archive>...",
	Short: "Clean and reseal one or more archives in place",
	Long: `Rewrites each archive so it imports on Azure SQL Database: reads model.xml and origin.xml, removes every element referencing AlwaysOn or XTP from the model, recomputes the model checksum into the origin manifest and writes both entries back. All other archive contents are preserved byte for byte.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcessCmd,
}

var (
	processConfigPath  string
	processNoBackup    bool
	processBackupDir   string
	processVerbose     bool
	processConcurrency int
	processDatabaseURL string
)

func init() {
	// Config file flag (processed first)
	processCommand.Flags().StringVar(&processConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	processCommand.Flags().BoolVar(&processNoBackup, "no-backup", false, "Skip the backup copy before rewriting")
	processCommand.Flags().StringVar(&processBackupDir, "backup-dir", "", "Directory for backup copies (default: alongside each archive)")
	processCommand.Flags().BoolVarP(&processVerbose, "verbose", "v", false, "Print detailed per-archive reports")
	processCommand.Flags().IntVar(&processConcurrency, "concurrency", 0, "Max archives processed in parallel (0 = number of CPUs)")

	// Database URL for run history persistence
	processCommand.Flags().StringVar(&processDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(processCommand)
}

func runProcessCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadMergedConfig(cmd, processConfigPath)
	if err != nil {
		return err
	}

	paths, err := resolvePaths(args)
	if err != nil {
		return err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	// Step output from parallel runs would interleave; keep it for the
	// single-archive case only.
	quiet := len(paths) > 1

	var mu sync.Mutex
	failed := 0

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)
	for _, archivePath := range paths {
		group.Go(func() error {
			report, err := pipeline.Run(groupCtx, pipeline.Options{
				ArchivePath: archivePath,
				NoBackup:    cfg.NoBackup,
				BackupDir:   cfg.BackupDir,
				Verbose:     cfg.Verbose,
				DatabaseURL: cfg.DatabaseURL,
				Quiet:       quiet,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%s: %v\n", archivePath, err)
				return nil
			}
			fmt.Printf("%s: %s\n", archivePath, report.Message)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed", failed, len(paths))
	}
	return nil
}

// loadMergedConfig loads the optional config file and applies CLI flag
// overrides. Only flags explicitly set on the command line win over the
// config file.
func loadMergedConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loadedCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loadedCfg
	}

	if cmd.Flags().Changed("no-backup") {
		cfg.NoBackup = processNoBackup
	}
	if cmd.Flags().Changed("backup-dir") {
		cfg.BackupDir = processBackupDir
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = processVerbose
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = processConcurrency
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = processDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, cfg.Validate()
}

// resolvePaths cleans and deduplicates the archive arguments so the same
// file is never rewritten twice in one invocation.
func resolvePaths(args []string) ([]string, error) {
	seen := make(map[string]bool, len(args))
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid archive path %q: %w", arg, err)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		paths = append(paths, abs)
	}
	return paths, nil
}
