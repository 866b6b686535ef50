package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ppiankov/glosa/internal/model"
)

// ChapterExtensions are the file types audited by a directory batch
var ChapterExtensions = []string{".html", ".htm", ".md", ".txt"}

// Auditor audits a single chapter file
type Auditor interface {
	AuditFile(ctx context.Context, path string) (*model.AuditReport, error)
}

// AuditJob represents a chapter audit job
type AuditJob struct {
	Path    string
	Auditor Auditor
}

// Execute executes the audit job
func (j *AuditJob) Execute(ctx context.Context) Result {
	report, err := j.Auditor.AuditFile(ctx, j.Path)
	if err != nil {
		return &AuditResult{Path: j.Path, Error: err}
	}
	return &AuditResult{Path: j.Path, Report: report}
}

// AuditResult represents the result of an audit job
type AuditResult struct {
	Path   string
	Report *model.AuditReport
	Error  error
}

// GetError returns the error from the audit result
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple chapter files concurrently
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(auditor Auditor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
	}
}

// ProcessFiles audits files concurrently. Results keep the order of paths.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*AuditResult {
	if len(paths) == 0 {
		return []*AuditResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&AuditJob{Path: path, Auditor: b.auditor})
	}

	results := pool.Wait()

	auditResults := make([]*AuditResult, len(results))
	for i, result := range results {
		auditResults[i] = result.(*AuditResult)
	}

	return auditResults
}

// ProcessPath audits a directory of chapter files, or the files listed in
// a text file
func (b *BatchProcessor) ProcessPath(ctx context.Context, path string) ([]*AuditResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = ChapterFiles(path)
	} else {
		paths, err = ReadPathsFromFile(path)
	}
	if err != nil {
		return nil, err
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ChapterFiles lists the chapter files directly inside dir, sorted by name
func ChapterFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(ChapterExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)

	return paths, nil
}

// ReadPathsFromFile reads chapter paths from a file (one per line).
// Relative paths are resolved against the list file's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
