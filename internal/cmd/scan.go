package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/scan"
	"github.com/hargabyte/tsig/internal/store"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Scan a project into the signature database",
	Long: `Walk a directory, extract exported function signatures from every
selected TypeScript file, and record them in the signature database.

Files are selected by scan.include and scan.exclude globs from
.tsig/config.yaml. Unless scan.auto_exclude is false, node_modules next to a
package.json and tsconfig.json outDir directories are excluded as well.

Scans are incremental: a file whose content hash matches the previous scan
is not parsed again. Stored paths are relative to the project root (the
directory holding .tsig), so scanning a subdirectory only refreshes that
part of the database. Files under the scanned directory that no longer exist
are removed.

Examples:
  tsig scan                  # Scan the current directory
  tsig scan packages/api     # Scan a subdirectory
  tsig scan --force          # Re-analyze every file
  tsig scan --exports        # Print the exports found instead of a summary`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var (
	scanForce   bool
	scanExports bool
	scanWorkers int
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanForce, "force", false, "Re-analyze files even when unchanged")
	scanCmd.Flags().BoolVar(&scanExports, "exports", false, "Print exports of analyzed files instead of a summary")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel workers (default: scan.workers from config)")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("scan %s: %w", target, err)
	}

	root, err := projectRoot(target)
	if err != nil {
		return err
	}
	sub, err := relToRoot(root, target)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	dbPath, err := cfg.StorePath(root)
	if err != nil {
		return err
	}
	storeDB, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer storeDB.Close()

	workers := cfg.Scan.Workers
	if scanWorkers > 0 {
		workers = scanWorkers
	}

	scanner := scan.New(scan.Options{
		Include:          cfg.Scan.Include,
		Exclude:          cfg.Scan.Exclude,
		Workers:          workers,
		KeepPlaceholders: cfg.Scan.KeepPlaceholders(),
		AutoExclude:      cfg.Scan.DetectExcludes(),
		Force:            scanForce,
		Logf:             logf,
	}, storeDB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logf("scanning %s (project: %s, workers: %d, store: %s)", target, root, workers, dbPath)

	result, err := scanner.ScanDir(ctx, root, sub)
	if err != nil {
		return err
	}

	summary, err := recordScan(storeDB, result, sub)
	if err != nil {
		return err
	}
	summary.Root = target

	if scanExports {
		var files []output.FileExports
		for _, f := range result.Changed() {
			files = append(files, output.FileExports{Path: f.Path, Exports: f.Exports})
		}
		return writeExports(cmd.OutOrStdout(), cfg, files)
	}
	return writeDocument(cmd.OutOrStdout(), cfg, summary)
}

// recordScan writes analyzed files to the store and prunes files under sub
// that were not selected on this scan.
func recordScan(storeDB *store.Store, result *scan.Result, sub string) (*output.ScanSummary, error) {
	summary := &output.ScanSummary{Files: len(result.Files) + len(result.Errors)}

	for _, f := range result.Files {
		if f.Unchanged {
			summary.Unchanged++
			continue
		}
		if err := storeDB.ReplaceFile(f.Path, f.Hash, f.Exports); err != nil {
			return nil, fmt.Errorf("record %s: %w", f.Path, err)
		}
		summary.Analyzed++
		summary.Exports += len(f.Exports)
	}

	pruned, err := storeDB.PruneMissing(sub, result.Paths())
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	summary.Pruned = pruned
	if pruned > 0 {
		logf("pruned %d files no longer selected", pruned)
	}

	for _, e := range result.Errors {
		summary.Errors = append(summary.Errors, e.Error())
	}

	return summary, nil
}
