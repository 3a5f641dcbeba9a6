package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/store"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the signature database to a clean state",
	Long: `Clear the signature database so the next scan analyzes every file.

By default, the stored exports are written to a JSONL backup in .tsig
before the reset. Use --no-backup to skip.

Examples:
  tsig reset                  # Clear with confirmation and backup
  tsig reset --dry-run        # Show what would be cleared
  tsig reset --hard --force   # Delete the database file entirely`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var (
	resetForce    bool // Skip confirmation
	resetHard     bool // Delete database file entirely
	resetNoBackup bool // Skip backup
	resetDryRun   bool // Show what would happen
)

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVar(&resetForce, "force", false, "Skip confirmation prompt")
	resetCmd.Flags().BoolVar(&resetHard, "hard", false, "Delete database file entirely (requires --force)")
	resetCmd.Flags().BoolVar(&resetNoBackup, "no-backup", false, "Skip backup before reset")
	resetCmd.Flags().BoolVar(&resetDryRun, "dry-run", false, "Show what would be done without making changes")
}

func runReset(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	st, err := openStore(cwd)
	if err != nil {
		return err
	}
	dbPath := st.Path()

	stats, err := st.Stats()
	if err != nil {
		st.Close()
		return err
	}

	fmt.Fprintln(w, "# tsig reset")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Database: %s\n", dbPath)
	fmt.Fprintf(w, "Files: %d\n", stats.Files)
	fmt.Fprintf(w, "Exports: %d (%d placeholders)\n", stats.Exports, stats.Placeholders)
	fmt.Fprintln(w)

	if resetHard {
		fmt.Fprintln(w, "Mode: --hard (delete database file)")
	} else {
		fmt.Fprintln(w, "Mode: clear files and exports")
	}
	fmt.Fprintln(w)

	if resetDryRun {
		fmt.Fprintln(w, "[dry-run] No changes made")
		st.Close()
		return nil
	}

	if resetHard && !resetForce {
		st.Close()
		return fmt.Errorf("--hard requires --force flag to confirm deletion")
	}

	if !resetForce {
		fmt.Fprint(w, "Continue? [y/N] ")
		reader := bufio.NewReader(cmd.InOrStdin())
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			st.Close()
			fmt.Fprintln(w, "Reset cancelled")
			return nil
		}
	}

	if !resetNoBackup {
		backupPath := filepath.Join(filepath.Dir(dbPath), fmt.Sprintf("backup-%s.jsonl", time.Now().Format("20060102-150405")))
		n, err := backupExports(st, backupPath)
		if err != nil {
			st.Close()
			return err
		}
		fmt.Fprintf(w, "Backup created: %s (%d exports)\n", backupPath, n)
	}

	if resetHard {
		st.Close()
		for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to delete database: %w", err)
			}
		}
		fmt.Fprintln(w, "Database deleted")
		fmt.Fprintln(w, "Run 'tsig init && tsig scan' to rebuild it")
		return nil
	}

	defer st.Close()
	if err := st.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(w, "Database cleared")
	fmt.Fprintln(w, "Run 'tsig scan' to rebuild it")
	return nil
}

// backupExports writes every stored export to path, one JSON record per line.
func backupExports(st *store.Store, path string) (int, error) {
	records, err := st.FindByName("*")
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return 0, fmt.Errorf("write backup: %w", err)
		}
	}
	return len(records), f.Sync()
}
