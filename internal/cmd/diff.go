package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/scan"
	"github.com/hargabyte/tsig/internal/semdiff"
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Show exported signature changes since the last scan",
	Long: `Compare the working tree with the signature database.

The whole project (the directory holding .tsig) is compared unless a file or
directory is given; that path is resolved against the current directory.

Each exported function is reported as added, removed, signature_change or
body_change. A change is breaking when existing call sites may stop
compiling: removals, and signature changes other than appending optional,
defaulted or rest parameters. The database is not modified; run 'tsig scan'
to accept the changes.

Examples:
  tsig diff                    # All changes
  tsig diff src/api            # Changes under a directory
  tsig diff --fail-on-breaking # Exit non-zero on breaking changes (CI)`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

var diffFailOnBreaking bool

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().BoolVar(&diffFailOnBreaking, "fail-on-breaking", false, "Return an error when any change is breaking")
}

func runDiff(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	root, err := projectRoot(cwd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	storeDB, err := openStore(root)
	if err != nil {
		return err
	}
	defer storeDB.Close()

	scanner := scan.New(scan.Options{
		Include:          cfg.Scan.Include,
		Exclude:          cfg.Scan.Exclude,
		Workers:          cfg.Scan.Workers,
		KeepPlaceholders: cfg.Scan.KeepPlaceholders(),
		AutoExclude:      cfg.Scan.DetectExcludes(),
		Logf:             logf,
	}, storeDB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter := ""
	if len(args) > 0 {
		if filter, err = relToRoot(root, args[0]); err != nil {
			return err
		}
	}

	diff, err := semdiff.NewAnalyzer(storeDB, scanner).Analyze(ctx, root, filter)
	if err != nil {
		return err
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}
	if format == output.FormatText {
		writeDiffText(cmd, diff)
	} else if err := writeDocument(cmd.OutOrStdout(), cfg, diff); err != nil {
		return err
	}

	if diffFailOnBreaking && diff.Summary.BreakingChanges > 0 {
		return fmt.Errorf("%d breaking changes", diff.Summary.BreakingChanges)
	}
	return nil
}

func writeDiffText(cmd *cobra.Command, diff *semdiff.SemanticDiff) {
	w := cmd.OutOrStdout()
	if len(diff.Changes) == 0 {
		fmt.Fprintln(w, "No signature changes")
		return
	}
	for _, c := range diff.Changes {
		marker := " "
		if c.Breaking {
			marker = "!"
		}
		fmt.Fprintf(w, "%s %-16s %s %s\n", marker, c.ChangeType, c.Location, c.Name)
		if c.OldSignature != "" {
			fmt.Fprintf(w, "    - %s\n", c.OldSignature)
		}
		if c.NewSignature != "" {
			fmt.Fprintf(w, "    + %s\n", c.NewSignature)
		}
	}
	s := diff.Summary
	fmt.Fprintf(w, "\n%d changes (%d breaking): %d added, %d removed, %d signature, %d body\n",
		s.TotalChanges, s.BreakingChanges, s.Added, s.Removed, s.SignatureChanges, s.BodyChanges)
}
