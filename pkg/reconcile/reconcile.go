package reconcile

import (
	"strings"

	"github.com/testlens/core/pkg/domain"
)

// matchRecord tracks which result indices a reconciliation pass has already
// consumed, so no result is ever assigned to two different nodes.
type matchRecord map[int]bool

// Reconcile matches each discovered case node against the run's assertion
// results and produces a final outcome per node. One pass, no state kept
// between calls: reconciling the same inputs twice yields identical outcomes.
//
// Running Reconcile concurrently over disjoint files is safe; over the same
// file's data it must be serialized by the caller.
func Reconcile(leaves []*domain.TestNode, results []domain.AssertionResult) map[*domain.TestNode]domain.Outcome {
	outcomes := make(map[*domain.TestNode]domain.Outcome, len(leaves))
	consumed := make(matchRecord)

	for _, leaf := range leaves {
		if leaf.Kind != domain.NodeCase {
			continue
		}
		outcomes[leaf] = matchLeaf(leaf, results, consumed)
	}

	return outcomes
}

// ReconcileTree reconciles every case node under root.
func ReconcileTree(root *domain.TestNode, results []domain.AssertionResult) map[*domain.TestNode]domain.Outcome {
	return Reconcile(root.Cases(), results)
}

// ReconcileOutput reconciles against raw runner output: structured JSON when
// it decodes, raw text scanning otherwise. The path filters the document's
// results to one source file; empty means all.
func ReconcileOutput(leaves []*domain.TestNode, output []byte, path string) map[*domain.TestNode]domain.Outcome {
	doc, err := ParseDocument(output)
	if err != nil {
		return FallbackText(leaves, string(output))
	}
	return Reconcile(leaves, doc.AssertionsForFile(path))
}

func matchLeaf(leaf *domain.TestNode, results []domain.AssertionResult, consumed matchRecord) domain.Outcome {
	candidates := matchCandidates(leaf, results, consumed)
	if len(candidates) == 0 {
		// The run may have filtered the test out, or it never executed.
		return domain.Outcome{Status: domain.RunStatusSkipped}
	}

	if isTemplateHolding(leaf) && len(candidates) > 1 {
		return aggregate(candidates, results, consumed)
	}

	idx := candidates[0]
	if len(candidates) > 1 && leaf.Span != nil {
		// Runner locations point at the declaration statement, one line
		// below the recorded name position.
		wantLine := leaf.Span.StartLine + 1
		for _, c := range candidates {
			if loc := results[c].Location; loc != nil && loc.Line == wantLine {
				idx = c
				break
			}
		}
	}

	consumed[idx] = true
	return outcomeOf(results[idx])
}

// aggregate folds several runtime results of one parameterized declaration
// into a single outcome: failed if any failed, else passed if any passed,
// else skipped.
func aggregate(candidates []int, results []domain.AssertionResult, consumed matchRecord) domain.Outcome {
	anyPassed := false
	var failures []string

	for _, idx := range candidates {
		consumed[idx] = true
		r := results[idx]
		switch r.Status.RunStatus() {
		case domain.RunStatusFailed:
			failures = append(failures, r.Title+": "+strings.Join(r.FailureMessages, "\n"))
		case domain.RunStatusPassed:
			anyPassed = true
		}
	}

	switch {
	case len(failures) > 0:
		return domain.Outcome{Status: domain.RunStatusFailed, FailureText: strings.Join(failures, "\n")}
	case anyPassed:
		return domain.Outcome{Status: domain.RunStatusPassed}
	default:
		return domain.Outcome{Status: domain.RunStatusSkipped}
	}
}

// matchCandidates returns all unconsumed result indices matching the leaf at
// the highest applicable priority.
func matchCandidates(leaf *domain.TestNode, results []domain.AssertionResult, consumed matchRecord) []int {
	for priority := 1; priority <= 4; priority++ {
		var candidates []int
		for i := range results {
			if consumed[i] {
				continue
			}
			if matchesAt(priority, leaf, results[i]) {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

func matchesAt(priority int, leaf *domain.TestNode, r domain.AssertionResult) bool {
	switch priority {
	case 1:
		return compare(leaf.Name, r.Title)
	case 2:
		return compare(lastSegment(leaf), r.Title)
	case 3:
		return r.FullName != "" && compare(leaf.Name, r.FullName)
	case 4:
		return compare(leaf.Name, joinedTitle(r))
	}
	return false
}

// compare checks a node-side name against a candidate title. A name that
// still carries interpolation tokens matches as a compiled wildcard pattern
// instead of by equality.
func compare(name, candidate string) bool {
	if !HasInterpolation(name) {
		return name == candidate
	}
	pattern, err := CompilePattern(name)
	if err != nil {
		return name == candidate
	}
	return pattern.MatchString(candidate)
}

func isTemplateHolding(leaf *domain.TestNode) bool {
	return leaf.RawTemplate != "" || HasInterpolation(leaf.Name)
}

// lastSegment strips the inherited suite prefix from a display name that
// includes it.
func lastSegment(leaf *domain.TestNode) string {
	prefix := strings.Join(leaf.AncestorTitles(), " ")
	if prefix != "" && strings.HasPrefix(leaf.Name, prefix+" ") {
		return leaf.Name[len(prefix)+1:]
	}
	return leaf.Name
}

func joinedTitle(r domain.AssertionResult) string {
	if len(r.AncestorTitles) == 0 {
		return r.Title
	}
	return strings.Join(r.AncestorTitles, " ") + " " + r.Title
}

func outcomeOf(r domain.AssertionResult) domain.Outcome {
	status := r.Status.RunStatus()
	out := domain.Outcome{Status: status}
	if status == domain.RunStatusFailed {
		out.FailureText = strings.Join(r.FailureMessages, "\n")
	}
	return out
}
