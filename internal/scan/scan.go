// Package scan walks a directory tree and extracts exported function
// signatures from every TypeScript file it selects, in parallel.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hargabyte/tsig/internal/exclude"
	"github.com/hargabyte/tsig/internal/extract"
	"github.com/hargabyte/tsig/internal/parser"
)

// HashSource compares a file's content hash with the one recorded on a
// previous scan. Unknown files count as changed.
type HashSource interface {
	IsFileChanged(path, hash string) (bool, error)
}

// Options controls file selection and parallelism.
type Options struct {
	Include          []string
	Exclude          []string
	Workers          int
	KeepPlaceholders bool
	AutoExclude      bool
	// Force analyzes every file even when its hash is unchanged.
	Force bool
	// Logf receives progress messages, one call at a time. It may be nil.
	Logf func(format string, args ...any)
}

// FileResult is the outcome for one selected file.
type FileResult struct {
	// Path is slash-separated and relative to the project root.
	Path     string
	Hash     string
	Language parser.Language
	Exports  []extract.ExportedFunction
	// Unchanged is set when the file matched the recorded hash and was not
	// analyzed; Exports is empty in that case.
	Unchanged bool
}

// FileError records a file that could not be read or analyzed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Result collects the per-file outcomes of a scan, sorted by path.
type Result struct {
	Files  []FileResult
	Errors []*FileError
}

// Paths returns the set of every selected file, including failed ones.
func (r *Result) Paths() map[string]bool {
	paths := make(map[string]bool, len(r.Files)+len(r.Errors))
	for _, f := range r.Files {
		paths[f.Path] = true
	}
	for _, e := range r.Errors {
		paths[e.Path] = true
	}
	return paths
}

// Changed returns the files that were analyzed on this scan.
func (r *Result) Changed() []FileResult {
	var changed []FileResult
	for _, f := range r.Files {
		if !f.Unchanged {
			changed = append(changed, f)
		}
	}
	return changed
}

// ExportCount returns the number of exports found on this scan.
func (r *Result) ExportCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Exports)
	}
	return n
}

// Scanner selects files by glob and analyzes them.
type Scanner struct {
	opts   Options
	hashes HashSource
	logMu  sync.Mutex
}

// New creates a scanner. hashes may be nil, in which case every file is
// analyzed.
func New(opts Options, hashes HashSource) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Scanner{opts: opts, hashes: hashes}
}

// Scan walks root and analyzes every selected file. Unreadable files are
// reported in Result.Errors and do not stop the scan. Cancelling ctx stops
// the walk and the workers and returns ctx's error.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	return s.ScanDir(ctx, root, "")
}

// ScanDir scans only sub, a slash-separated file or directory relative to
// root. Result paths stay relative to root and globs are matched against
// them. An empty sub scans all of root; a sub that does not exist yields an
// empty result.
func (s *Scanner) ScanDir(ctx context.Context, root, sub string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	start := root
	if sub = strings.Trim(sub, "/"); sub != "" && sub != "." {
		start = filepath.Join(root, filepath.FromSlash(sub))
		if _, err := os.Stat(start); errors.Is(err, fs.ErrNotExist) {
			return &Result{Files: []FileResult{}}, nil
		} else if err != nil {
			return nil, fmt.Errorf("scan %s: %w", sub, err)
		}
	}

	excludes := append([]string{}, s.opts.Exclude...)
	if s.opts.AutoExclude {
		detected := exclude.DetectAutoExcludes(root)
		for _, dir := range detected.Directories {
			s.logf("auto-excluding %s (%s)", dir, detected.Reasons[dir])
		}
		excludes = append(excludes, detected.Patterns()...)
	}

	paths, err := s.collect(ctx, root, start, excludes)
	if err != nil {
		return nil, err
	}
	s.logf("selected %d files", len(paths))

	files := make([]*FileResult, len(paths))
	fileErrs := make([]*FileError, len(paths))

	jobs := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range paths {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < s.opts.Workers; w++ {
		g.Go(func() error {
			wk := newWorker()
			defer wk.close()
			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				files[i], fileErrs[i] = s.scanFile(wk, root, paths[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Files: []FileResult{}}
	for i := range paths {
		if fileErrs[i] != nil {
			result.Errors = append(result.Errors, fileErrs[i])
			continue
		}
		result.Files = append(result.Files, *files[i])
	}
	return result, nil
}

// collect returns the selected files under start, slash-separated, relative
// to root and sorted.
func (s *Scanner) collect(ctx context.Context, root, start string, excludes []string) ([]string, error) {
	var paths []string
	supported := parser.SupportedExtensions()

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" || excludedDir(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if !slices.Contains(supported, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		if matchAny(s.opts.Include, rel) && !matchAny(excludes, rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// scanFile reads, hashes and analyzes one file.
func (s *Scanner) scanFile(wk *worker, root, rel string) (*FileResult, *FileError) {
	lang := parser.LanguageFromPath(rel)

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &FileError{Path: rel, Err: err}
	}

	fr := &FileResult{
		Path:     rel,
		Hash:     extract.FileHash(content),
		Language: lang,
		Exports:  []extract.ExportedFunction{},
	}

	if !s.opts.Force && s.hashes != nil {
		if changed, err := s.hashes.IsFileChanged(rel, fr.Hash); err == nil && !changed {
			fr.Unchanged = true
			return fr, nil
		}
	}

	a, err := wk.analyzer(lang)
	if err != nil {
		return nil, &FileError{Path: rel, Err: err}
	}

	fns, err := a.AnalyzeBytes(content)
	if err != nil {
		return nil, &FileError{Path: rel, Err: err}
	}
	if a.SyntaxErrors() {
		s.logf("%s: syntax errors, exports may be incomplete", rel)
	}

	if !s.opts.KeepPlaceholders {
		kept := fns[:0]
		for _, fn := range fns {
			if !fn.IsPlaceholder() {
				kept = append(kept, fn)
			}
		}
		fns = kept
	}
	fr.Exports = fns

	s.logf("%s: %d exports", rel, len(fns))
	return fr, nil
}

func (s *Scanner) logf(format string, args ...any) {
	if s.opts.Logf == nil {
		return
	}
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.opts.Logf(format, args...)
}

// worker holds one analyzer per language for a single goroutine.
type worker struct {
	analyzers map[parser.Language]*extract.Analyzer
}

func newWorker() *worker {
	return &worker{analyzers: make(map[parser.Language]*extract.Analyzer)}
}

func (w *worker) analyzer(lang parser.Language) (*extract.Analyzer, error) {
	if a, ok := w.analyzers[lang]; ok {
		return a, nil
	}
	a, err := extract.NewAnalyzerFor(lang)
	if err != nil {
		return nil, err
	}
	w.analyzers[lang] = a
	return a, nil
}

func (w *worker) close() {
	for _, a := range w.analyzers {
		a.Close()
	}
}

// matchAny reports whether rel matches any of the doublestar patterns.
// Patterns were validated when the config was loaded, so match errors are
// treated as non-matches.
func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// excludedDir reports whether every path beneath dir is excluded. Only
// patterns ending in "/**" can prune a whole directory.
func excludedDir(dir string, excludes []string) bool {
	for _, pattern := range excludes {
		if !strings.HasSuffix(pattern, "/**") {
			continue
		}
		if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), dir); ok {
			return true
		}
	}
	return false
}
