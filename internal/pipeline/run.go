// Package pipeline orchestrates the clean-and-reseal operation over a single
// archive: read the two XML entries, strip AlwaysOn/XTP references from the
// model, recompute the model checksum into the origin manifest, and rewrite
// both entries in place.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/mbreukel/BacpacCompatFixer/internal/backup"
	"github.com/mbreukel/BacpacCompatFixer/internal/bacpac"
	"github.com/mbreukel/BacpacCompatFixer/internal/db"
	"github.com/mbreukel/BacpacCompatFixer/internal/observability"
	"github.com/mbreukel/BacpacCompatFixer/internal/reseal"
	"github.com/mbreukel/BacpacCompatFixer/internal/sanitize"
	"github.com/mbreukel/BacpacCompatFixer/internal/types"
)

// Options configures one archive operation.
type Options struct {
	ArchivePath string
	NoBackup    bool
	BackupDir   string // empty = alongside the archive
	Verbose     bool
	DatabaseURL string // optional; enables run-history persistence
	Quiet       bool   // suppress step output (used by the HTTP layer)
}

// Run executes the full operation. When the model carries no AlwaysOn or XTP
// references the archive is left byte-for-byte untouched and no backup is
// created. The returned report is non-nil even on failure, carrying the
// error message with Success=false.
func Run(ctx context.Context, opts Options) (*types.Report, error) {
	recorder := newRecorder(ctx, opts)
	defer recorder.close()

	report, err := run(ctx, opts)
	recorder.finish(ctx, report)
	return report, err
}

func run(ctx context.Context, opts Options) (*types.Report, error) {
	if opts.ArchivePath == "" {
		return fail("archive path is required")
	}

	step(opts, "Step 1/4: Reading archive entries from %s...", opts.ArchivePath)
	entries, err := bacpac.ReadEntries(opts.ArchivePath)
	if err != nil {
		return failErr(err)
	}

	step(opts, "Step 2/4: Cleaning model document...")
	result, err := sanitize.Clean(entries.Model)
	if err != nil {
		return failErr(err)
	}

	if !result.Changed {
		report := &types.Report{
			Success: true,
			Changed: false,
			Message: "no changes needed",
		}
		step(opts, "No AlwaysOn/XTP references found; archive left untouched.")
		return report, nil
	}

	var backupPath string
	if !opts.NoBackup {
		backupPath, err = backup.Copy(opts.ArchivePath, opts.BackupDir)
		if err != nil {
			return failErr(fmt.Errorf("backup failed, archive not modified: %w", err))
		}
		step(opts, "Backed up original archive to %s", backupPath)
	}

	step(opts, "Step 3/4: Resealing origin checksum...")
	hash, origin, err := reseal.Reseal(result.Text, entries.Origin)
	if err != nil {
		return failErr(err)
	}

	step(opts, "Step 4/4: Rewriting archive entries...")
	if err := bacpac.ReplaceEntries(opts.ArchivePath, result.Text, origin); err != nil {
		return failErr(err)
	}

	report := &types.Report{
		Success:    true,
		Changed:    true,
		Message:    fmt.Sprintf("rewrote archive (removed %d elements)", len(result.Removed)),
		BackupPath: backupPath,
		ModelHash:  hash,
		Removed:    result.Removed,
	}
	if opts.Verbose {
		observability.NewPrinter(os.Stdout).PrintReport(opts.ArchivePath, report)
	}
	return report, nil
}

// Scan performs the read and clean stages only; the archive is never
// touched. The report carries the would-be model hash and the elements a
// full run would remove.
func Scan(_ context.Context, opts Options) (*types.Report, error) {
	if opts.ArchivePath == "" {
		return fail("archive path is required")
	}

	entries, err := bacpac.ReadEntries(opts.ArchivePath)
	if err != nil {
		return failErr(err)
	}

	result, err := sanitize.Clean(entries.Model)
	if err != nil {
		return failErr(err)
	}

	message := "no changes needed"
	if result.Changed {
		message = fmt.Sprintf("would remove %d elements", len(result.Removed))
	}
	return &types.Report{
		Success:   true,
		Changed:   result.Changed,
		Message:   message,
		ModelHash: reseal.ModelHash(result.Text),
		Removed:   result.Removed,
	}, nil
}

func fail(message string) (*types.Report, error) {
	return &types.Report{Success: false, Message: message}, fmt.Errorf("%s", message)
}

func failErr(err error) (*types.Report, error) {
	return &types.Report{Success: false, Message: err.Error()}, err
}

// step prints a progress line unless the caller asked for quiet operation.
func step(opts Options, format string, args ...any) {
	if opts.Quiet {
		return
	}
	fmt.Printf(format+"\n", args...)
}

// recorder persists run history when a database is configured. Persistence
// failures are warnings, never operation failures.
type recorder struct {
	database *db.DB
	runID    uuid.UUID
}

func newRecorder(ctx context.Context, opts Options) *recorder {
	r := &recorder{}
	if opts.DatabaseURL == "" {
		return r
	}

	database, err := db.Connect(ctx, opts.DatabaseURL)
	if err != nil {
		fmt.Printf("Warning: Failed to connect to database: %v\n", err)
		fmt.Printf("Continuing without run history...\n")
		return r
	}
	r.database = database

	runID, err := database.CreateRun(ctx, opts.ArchivePath)
	if err != nil {
		fmt.Printf("Warning: Failed to create database run: %v\n", err)
		return r
	}
	r.runID = runID
	return r
}

func (r *recorder) finish(ctx context.Context, report *types.Report) {
	if r.database == nil || r.runID == uuid.Nil || report == nil {
		return
	}

	status := db.StatusFailed
	switch {
	case report.Success && report.Changed:
		status = db.StatusCompleted
	case report.Success:
		status = db.StatusNoChange
	}
	_ = r.database.CompleteRun(ctx, r.runID, status, report.Changed, report.ModelHash, report.Message)
}

func (r *recorder) close() {
	if r.database != nil {
		r.database.Close()
	}
}
