package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mbreukel/BacpacCompatFixer/internal/observability"
	"github.com/mbreukel/BacpacCompatFixer/internal/pipeline"
)

var scanCommand = &cobra.Command{
	Use:   "scan <archive>...",
	Short: "Report what process would change, without modifying anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScanCmd,
}

var scanVerbose bool

func init() {
	scanCommand.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print detailed per-archive reports")
	rootCmd.AddCommand(scanCommand)
}

func runScanCmd(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	paths, err := resolvePaths(args)
	if err != nil {
		return err
	}

	failed := 0
	for _, archivePath := range paths {
		report, err := pipeline.Scan(ctx, pipeline.Options{ArchivePath: archivePath, Quiet: true})
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", archivePath, err)
			continue
		}
		fmt.Printf("%s: %s\n", archivePath, report.Message)
		if scanVerbose {
			observability.NewPrinter(os.Stdout).PrintReport(archivePath, report)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d archives failed", failed, len(paths))
	}
	return nil
}
