package reconcile

import (
	"strings"

	"github.com/testlens/core/pkg/domain"
)

// failureMarkers are the symbols and words jest-style reporters put on a
// failing test's output line.
var failureMarkers = []string{"✕", "✗", "×", "✘", "not ok", "FAIL"}

// FallbackText degrades reconciliation to scanning raw output when the
// result document could not be decoded: a node whose display name (or last
// segment) appears on a failure-marker line is failed, every other node is
// assumed passed. This mode intentionally cannot detect skipped tests.
func FallbackText(leaves []*domain.TestNode, output string) map[*domain.TestNode]domain.Outcome {
	var markerLines []string
	for _, line := range strings.Split(output, "\n") {
		for _, marker := range failureMarkers {
			if strings.Contains(line, marker) {
				markerLines = append(markerLines, line)
				break
			}
		}
	}

	outcomes := make(map[*domain.TestNode]domain.Outcome, len(leaves))
	for _, leaf := range leaves {
		if leaf.Kind != domain.NodeCase {
			continue
		}
		outcomes[leaf] = domain.Outcome{Status: domain.RunStatusPassed}
		for _, line := range markerLines {
			if strings.Contains(line, leaf.Name) || strings.Contains(line, lastSegment(leaf)) {
				outcomes[leaf] = domain.Outcome{
					Status:      domain.RunStatusFailed,
					FailureText: strings.TrimSpace(line),
				}
				break
			}
		}
	}
	return outcomes
}
