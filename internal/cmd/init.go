package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/config"
	"github.com/hargabyte/tsig/internal/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .tsig directory, config and database",
	Long: `Initialize the .tsig directory in the current directory.

This writes .tsig/config.yaml with the default scan settings and creates
an empty signature database. Edit the config to change which files are
scanned.

Examples:
  tsig init          # Initialize in current directory
  tsig init --force  # Reinitialize (removes the existing database)`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if .tsig already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return initProject(cmd, cwd)
}

func initProject(cmd *cobra.Command, workDir string) error {
	w := cmd.OutOrStdout()
	configDir := filepath.Join(workDir, config.ConfigDirName)
	configFile := filepath.Join(configDir, config.ConfigFileName)

	if _, err := os.Stat(configFile); err == nil {
		if !initForce {
			fmt.Fprintf(w, "Already initialized at %s\n", config.ConfigDirName)
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	} else if _, err := config.SaveDefault(workDir); err != nil {
		return err
	}

	cfg, err := config.LoadFromPath(configFile)
	if err != nil {
		return err
	}
	dbPath, err := cfg.StorePath(workDir)
	if err != nil {
		return err
	}

	if initForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing existing database: %w", err)
		}
	}

	storeDB, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer storeDB.Close()

	fmt.Fprintf(w, "Initialized tsig at %s\n", config.ConfigDirName)
	return nil
}
