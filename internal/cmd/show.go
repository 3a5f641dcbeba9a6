package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/store"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the stored exports of one file",
	Long: `Show the exported functions recorded for a file on the last scan.

The file path is resolved against the current directory and looked up
relative to the project root.

Examples:
  tsig show src/api.ts
  tsig show src/api.ts --density dense`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return err
	}

	storeDB, err := openStore(cwd)
	if err != nil {
		return err
	}
	defer storeDB.Close()

	root, err := projectRoot(cwd)
	if err != nil {
		return err
	}
	path, err := relToRoot(root, args[0])
	if err != nil {
		return err
	}
	if _, err := storeDB.FileHash(path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("file not scanned: %s", path)
		}
		return err
	}

	records, err := storeDB.Exports(path)
	if err != nil {
		return err
	}

	fns := make([]extract.ExportedFunction, 0, len(records))
	for _, r := range records {
		fns = append(fns, r.ExportedFunction)
	}

	return writeExports(cmd.OutOrStdout(), cfg, []output.FileExports{{Path: path, Exports: fns}})
}
