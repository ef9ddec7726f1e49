package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/testlens/core/pkg/domain"
)

const (
	// DefaultTimeout is the default scan timeout duration.
	DefaultTimeout = 5 * time.Minute
	// MaxWorkers is the maximum number of concurrent workers allowed.
	MaxWorkers = 1024
	// DefaultMaxFileSize is the default maximum file size for scanning (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// DefaultTestPatterns identifies test files the way jest-style runners do.
var DefaultTestPatterns = []string{
	"**/*.test.{js,jsx,ts,tsx,mjs,cjs}",
	"**/*.spec.{js,jsx,ts,tsx,mjs,cjs}",
	"**/__tests__/**/*.{js,jsx,ts,tsx,mjs,cjs}",
}

// DefaultSkipPatterns contains directory names that are skipped by default
// during scanning.
var DefaultSkipPatterns = []string{
	"node_modules",
	".git",
	"vendor",
	"dist",
	"build",
	".next",
	"coverage",
	".cache",
}

var (
	// ErrScanCancelled is returned when scanning is cancelled via context.
	ErrScanCancelled = errors.New("discovery: scan cancelled")
	// ErrScanTimeout is returned when scanning exceeds the timeout duration.
	ErrScanTimeout = errors.New("discovery: scan timeout")
)

// ScanError represents a non-fatal error for a single file or phase.
type ScanError struct {
	// Err is the underlying error.
	Err error

	// Path is the file path where the error occurred (may be empty).
	Path string

	// Phase indicates which phase the error occurred in.
	// Values: "discovery", "read", "parsing"
	Phase string
}

// Error implements the error interface.
func (e ScanError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Phase, e.Path, e.Err)
}

// ScanStats provides statistics about the scan operation.
type ScanStats struct {
	// FilesScanned is the total number of test file candidates discovered.
	FilesScanned int

	// FilesParsed is the number of files successfully parsed.
	FilesParsed int

	// FilesFailed is the number of files that failed to parse.
	FilesFailed int

	// Duration is the total scan duration.
	Duration time.Duration
}

// ScanResult contains the outcome of a scan operation.
type ScanResult struct {
	// Inventory contains one test tree per parsed file.
	Inventory *domain.Inventory

	// Errors contains non-fatal errors encountered during scanning.
	Errors []ScanError

	// Stats provides scan statistics.
	Stats ScanStats
}

// Scan discovers test files under root and parses each into a test tree.
// Parse failures are collected per file and never abort the scan.
func Scan(ctx context.Context, root string, opts ...ScanOption) (*ScanResult, error) {
	options := &ScanOptions{}
	for _, opt := range opts {
		opt(options)
	}
	applyDefaults(options)

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	result := &ScanResult{
		Inventory: &domain.Inventory{
			RootPath: root,
			Files:    []*domain.TestNode{},
		},
		Errors: []ScanError{},
	}

	candidates, errs := discoverTestFiles(ctx, root, options)
	result.Errors = append(result.Errors, errs...)
	result.Stats.FilesScanned = len(candidates)

	if len(candidates) > 0 {
		files, parseErrors := parseFilesParallel(ctx, root, candidates, options)
		result.Inventory.Files = files
		result.Errors = append(result.Errors, parseErrors...)
		result.Stats.FilesParsed = len(files)
		result.Stats.FilesFailed = len(parseErrors)
	}

	result.Stats.Duration = time.Since(startTime)

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return result, ErrScanTimeout
		}
		return result, ErrScanCancelled
	}

	return result, nil
}

// ParseFile parses a single file from disk into a test tree.
func ParseFile(ctx context.Context, path string) (*domain.TestNode, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(ctx, source, path)
}

func discoverTestFiles(ctx context.Context, root string, options *ScanOptions) ([]string, []ScanError) {
	skipSet := buildSkipSet(options.ExcludePatterns)
	var candidates []string
	var errs []ScanError

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			errs = append(errs, ScanError{Err: err, Path: path, Phase: "discovery"})
			return nil
		}
		if d.IsDir() {
			if path != root && skipSet[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range options.Patterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				candidates = append(candidates, path)
				break
			}
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, context.DeadlineExceeded) {
		errs = append(errs, ScanError{Err: walkErr, Phase: "discovery"})
	}

	sort.Strings(candidates)
	return candidates, errs
}

func parseFilesParallel(ctx context.Context, root string, paths []string, options *ScanOptions) ([]*domain.TestNode, []ScanError) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	var mu sync.Mutex
	parsed := make(map[string]*domain.TestNode, len(paths))
	var errs []ScanError

	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			info, err := os.Stat(path)
			if err != nil {
				mu.Lock()
				errs = append(errs, ScanError{Err: err, Path: path, Phase: "read"})
				mu.Unlock()
				return nil
			}
			if info.Size() > options.MaxFileSize {
				return nil
			}

			source, err := os.ReadFile(path)
			if err != nil {
				mu.Lock()
				errs = append(errs, ScanError{Err: err, Path: path, Phase: "read"})
				mu.Unlock()
				return nil
			}

			tree, err := Parse(gctx, source, relToRoot(root, path))
			if err != nil {
				mu.Lock()
				errs = append(errs, ScanError{Err: err, Path: path, Phase: "parsing"})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			parsed[path] = tree
			mu.Unlock()
			return nil
		})
	}

	// Per-file errors are collected, not returned; a group error only means
	// cancellation.
	_ = g.Wait()

	var files []*domain.TestNode
	for _, path := range paths {
		if tree, ok := parsed[path]; ok {
			files = append(files, tree)
		}
	}
	return files, errs
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func buildSkipSet(extra []string) map[string]bool {
	skip := make(map[string]bool, len(DefaultSkipPatterns)+len(extra))
	for _, name := range DefaultSkipPatterns {
		skip[name] = true
	}
	for _, name := range extra {
		skip[name] = true
	}
	return skip
}
