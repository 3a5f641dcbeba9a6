package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/output"
	"github.com/hargabyte/tsig/internal/parser"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Print exported function signatures of files or stdin",
	Long: `Parse TypeScript files and print their exported function signatures.

Nothing is written to the signature database. Files ending in .tsx use the
TSX grammar; everything else is parsed as TypeScript. With --stdin the
source is read from standard input and --lang selects the grammar.

Examples:
  tsig analyze src/api.ts src/view.tsx
  tsig analyze src/api.ts --density sparse
  cat src/api.ts | tsig analyze --stdin --format json`,
	RunE: runAnalyze,
}

var (
	analyzeStdin bool
	analyzeLang  string
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeStdin, "stdin", false, "Read source from stdin")
	analyzeCmd.Flags().StringVar(&analyzeLang, "lang", "typescript", "Grammar for --stdin (typescript|tsx)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeStdin && len(args) > 0 {
		return fmt.Errorf("--stdin cannot be combined with file arguments")
	}
	if !analyzeStdin && len(args) == 0 {
		return fmt.Errorf("at least one file is required (or use --stdin)")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return err
	}

	analyzers := newAnalyzerSet()
	defer analyzers.close()

	var files []output.FileExports
	if analyzeStdin {
		source, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		a, err := analyzers.get(parser.Language(analyzeLang))
		if err != nil {
			return err
		}
		fns, err := a.AnalyzeBytes(source)
		if err != nil {
			return err
		}
		logSyntaxErrors(a, "<stdin>")
		files = append(files, output.FileExports{Path: "<stdin>", Exports: fns})
	} else {
		for _, path := range args {
			a, err := analyzers.get(parser.LanguageFromPath(path))
			if err != nil {
				return err
			}
			fns, err := a.AnalyzeFile(path)
			if err != nil {
				var readErr *parser.FileReadError
				if errors.As(err, &readErr) {
					return err
				}
				return fmt.Errorf("%s: %w", path, err)
			}
			logSyntaxErrors(a, path)
			logf("analyzed %s: %d exports", path, len(fns))
			files = append(files, output.FileExports{Path: filepath.ToSlash(path), Exports: fns})
		}
	}

	return writeExports(cmd.OutOrStdout(), cfg, files)
}

// analyzerSet holds one analyzer per grammar.
type analyzerSet map[parser.Language]*extract.Analyzer

func newAnalyzerSet() analyzerSet {
	return make(analyzerSet)
}

func (s analyzerSet) get(lang parser.Language) (*extract.Analyzer, error) {
	if a, ok := s[lang]; ok {
		return a, nil
	}
	a, err := extract.NewAnalyzerFor(lang)
	if err != nil {
		return nil, err
	}
	s[lang] = a
	return a, nil
}

func logSyntaxErrors(a *extract.Analyzer, name string) {
	if a.SyntaxErrors() {
		logf("%s: syntax errors, exports may be incomplete", name)
	}
}

func (s analyzerSet) close() {
	for _, a := range s {
		a.Close()
	}
}
