package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/config"
	"github.com/hargabyte/tsig/internal/output"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show signature database status",
	Long: `Show where the signature database lives and what it holds.

Examples:
  tsig status
  tsig status --format json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusOutput represents the status output structure
type StatusOutput struct {
	ConfigDir    string `json:"config_dir" yaml:"config_dir"`
	Store        string `json:"store" yaml:"store"`
	Files        int64  `json:"files" yaml:"files"`
	Exports      int64  `json:"exports" yaml:"exports"`
	Placeholders int64  `json:"placeholders" yaml:"placeholders"`
	LastScan     string `json:"last_scan,omitempty" yaml:"last_scan,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	stats, err := storeDB.Stats()
	if err != nil {
		return err
	}

	out := &StatusOutput{
		Store:        storeDB.Path(),
		Files:        stats.Files,
		Exports:      stats.Exports,
		Placeholders: stats.Placeholders,
	}
	if dir, err := config.FindConfigDir(cwd); err == nil {
		out.ConfigDir = dir
	}

	files, err := storeDB.Files()
	if err != nil {
		return err
	}
	var last time.Time
	for _, f := range files {
		if f.ScannedAt.After(last) {
			last = f.ScannedAt
		}
	}
	if !last.IsZero() {
		out.LastScan = last.Local().Format(time.DateTime)
	}

	// The text formatter only knows export listings and scan summaries.
	if f, _ := resolveFormat(cfg); f == output.FormatText {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "config:       %s\n", out.ConfigDir)
		fmt.Fprintf(w, "store:        %s\n", out.Store)
		fmt.Fprintf(w, "files:        %d\n", out.Files)
		fmt.Fprintf(w, "exports:      %d\n", out.Exports)
		fmt.Fprintf(w, "placeholders: %d\n", out.Placeholders)
		if out.LastScan != "" {
			fmt.Fprintf(w, "last scan:    %s\n", out.LastScan)
		}
		return nil
	}
	return writeDocument(cmd.OutOrStdout(), cfg, out)
}
