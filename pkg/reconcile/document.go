package reconcile

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/testlens/core/pkg/domain"
)

// Document is the structured result document emitted by jest-style runners
// with --json / --reporter=json.
type Document struct {
	TestResults []FileResult `json:"testResults"`
}

// FileResult groups the assertion results of one executed test file.
type FileResult struct {
	// Name is the file path the runner reports, usually absolute.
	Name string `json:"name"`
	// Status is the file-level status, when reported.
	Status string `json:"status,omitempty"`
	// Message carries file-level failure output (e.g. a module load error).
	Message string `json:"message,omitempty"`
	// AssertionResults holds one record per executed test.
	AssertionResults []domain.AssertionResult `json:"assertionResults"`
}

// ParseDocument decodes a structured result document. A decoding failure is
// the caller's cue to fall back to raw text scanning.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("reconcile: malformed result document: %w", err)
	}
	if doc.TestResults == nil {
		return nil, fmt.Errorf("reconcile: result document has no testResults")
	}
	return &doc, nil
}

// AssertionsForFile returns the assertion results belonging to the given
// source file. Runner paths are usually absolute while discovery paths are
// project-relative, so matching is by path suffix. An empty path returns
// every result in the document.
func (d *Document) AssertionsForFile(path string) []domain.AssertionResult {
	var results []domain.AssertionResult
	if path == "" {
		for _, fr := range d.TestResults {
			results = append(results, fr.AssertionResults...)
		}
		return results
	}

	want := filepath.ToSlash(path)
	for _, fr := range d.TestResults {
		name := filepath.ToSlash(fr.Name)
		if name == want || strings.HasSuffix(name, "/"+want) || strings.HasSuffix(want, "/"+name) {
			results = append(results, fr.AssertionResults...)
		}
	}
	return results
}
