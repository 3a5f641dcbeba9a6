package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/mcp"
	"github.com/hargabyte/tsig/internal/store"
)

// findCmd represents the find command
var findCmd = &cobra.Command{
	Use:   "find <pattern>",
	Short: "Search scanned exported functions by name",
	Long: `Search the signature database for exported functions.

The pattern matches the whole function name; * matches any run of
characters and ? matches one character. With --hash the argument is a
signature hash instead, which finds functions sharing one signature.

Examples:
  tsig find parseConfig        # Exact name
  tsig find 'get*'             # Prefix search
  tsig find '*Handler' -n 10   # Limit results
  tsig find --hash 3f9a1c2b7d0e4f51`,
	Args: cobra.ExactArgs(1),
	RunE: runFind,
}

var (
	findLimit int
	findHash  bool
)

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 100, "Maximum results (0 for no limit)")
	findCmd.Flags().BoolVar(&findHash, "hash", false, "Treat the argument as a signature hash")
}

func runFind(cmd *cobra.Command, args []string) error {
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

	var records []store.Record
	if findHash {
		records, err = storeDB.FindBySigHash(args[0])
	} else {
		records, err = storeDB.FindByName(args[0])
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if findLimit > 0 && len(records) > findLimit {
		logf("showing %d of %d matches", findLimit, len(records))
		records = records[:findLimit]
	}

	return writeExports(cmd.OutOrStdout(), cfg, mcp.GroupRecords(records))
}
