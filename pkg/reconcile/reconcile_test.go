package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testlens/core/pkg/domain"
)

func caseNode(name string) *domain.TestNode {
	return &domain.TestNode{Kind: domain.NodeCase, Name: name}
}

func suiteWith(suite string, children ...*domain.TestNode) []*domain.TestNode {
	root := domain.NewRoot("sample.test.ts")
	s := &domain.TestNode{Kind: domain.NodeSuite, Name: suite}
	root.Add(s)
	for _, c := range children {
		s.Add(c)
	}
	return children
}

func passed(title string) domain.AssertionResult {
	return domain.AssertionResult{Title: title, Status: domain.AssertionPassed}
}

func failed(title string, messages ...string) domain.AssertionResult {
	return domain.AssertionResult{Title: title, Status: domain.AssertionFailed, FailureMessages: messages}
}

func TestReconcileExactTitle(t *testing.T) {
	t.Parallel()

	adds := caseNode("adds")
	divides := caseNode("divides")
	results := []domain.AssertionResult{
		passed("adds"),
		failed("divides", "expected 2, got 3"),
	}

	outcomes := Reconcile([]*domain.TestNode{adds, divides}, results)

	assert.Equal(t, domain.RunStatusPassed, outcomes[adds].Status)
	assert.Equal(t, domain.RunStatusFailed, outcomes[divides].Status)
	assert.Equal(t, "expected 2, got 3", outcomes[divides].FailureText)
}

func TestReconcileNoCandidateIsSkipped(t *testing.T) {
	t.Parallel()

	leaf := caseNode("never ran")

	outcomes := Reconcile([]*domain.TestNode{leaf}, []domain.AssertionResult{passed("other")})

	assert.Equal(t, domain.RunStatusSkipped, outcomes[leaf].Status)
}

func TestReconcileSkippedStatuses(t *testing.T) {
	t.Parallel()

	pending := caseNode("pending one")
	todo := caseNode("todo one")
	results := []domain.AssertionResult{
		{Title: "pending one", Status: domain.AssertionPending},
		{Title: "todo one", Status: domain.AssertionTodo},
	}

	outcomes := Reconcile([]*domain.TestNode{pending, todo}, results)

	assert.Equal(t, domain.RunStatusSkipped, outcomes[pending].Status)
	assert.Equal(t, domain.RunStatusSkipped, outcomes[todo].Status)
}

func TestReconcileIgnoresNonCaseLeaves(t *testing.T) {
	t.Parallel()

	suite := &domain.TestNode{Kind: domain.NodeSuite, Name: "group"}

	outcomes := Reconcile([]*domain.TestNode{suite}, []domain.AssertionResult{passed("group")})

	assert.Empty(t, outcomes)
}

func TestReconcileLastSegmentPriority(t *testing.T) {
	t.Parallel()

	children := suiteWith("math", caseNode("math adds"))
	leaf := children[0]

	outcomes := Reconcile([]*domain.TestNode{leaf}, []domain.AssertionResult{passed("adds")})

	assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
}

func TestReconcileFullNamePriority(t *testing.T) {
	t.Parallel()

	leaf := caseNode("math adds")
	results := []domain.AssertionResult{
		{Title: "adds numbers", FullName: "math adds", Status: domain.AssertionPassed},
	}

	outcomes := Reconcile([]*domain.TestNode{leaf}, results)

	assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
}

func TestReconcileJoinedTitlePriority(t *testing.T) {
	t.Parallel()

	leaf := caseNode("math adds")
	results := []domain.AssertionResult{
		{Title: "adds", AncestorTitles: []string{"math"}, Status: domain.AssertionFailed, FailureMessages: []string{"boom"}},
	}

	outcomes := Reconcile([]*domain.TestNode{leaf}, results)

	assert.Equal(t, domain.RunStatusFailed, outcomes[leaf].Status)
	assert.Equal(t, "boom", outcomes[leaf].FailureText)
}

func TestReconcileConsumesResultsOnce(t *testing.T) {
	t.Parallel()

	first := caseNode("duplicate")
	second := caseNode("duplicate")
	results := []domain.AssertionResult{
		passed("duplicate"),
		failed("duplicate", "second copy failed"),
	}

	outcomes := Reconcile([]*domain.TestNode{first, second}, results)

	assert.Equal(t, domain.RunStatusPassed, outcomes[first].Status)
	assert.Equal(t, domain.RunStatusFailed, outcomes[second].Status)
}

func TestReconcileLocationDisambiguation(t *testing.T) {
	t.Parallel()

	early := caseNode("duplicate")
	early.Span = &domain.Span{StartLine: 9, StartCol: 1, EndLine: 9, EndCol: 30}
	late := caseNode("duplicate")
	late.Span = &domain.Span{StartLine: 19, StartCol: 1, EndLine: 19, EndCol: 30}

	results := []domain.AssertionResult{
		{Title: "duplicate", Status: domain.AssertionFailed, FailureMessages: []string{"late copy"}, Location: &domain.ResultLocation{Line: 20, Column: 3}},
		{Title: "duplicate", Status: domain.AssertionPassed, Location: &domain.ResultLocation{Line: 10, Column: 3}},
	}

	// Reconcile the later declaration first so ordering alone cannot explain
	// the assignment.
	outcomes := Reconcile([]*domain.TestNode{late, early}, results)

	assert.Equal(t, domain.RunStatusFailed, outcomes[late].Status)
	assert.Equal(t, domain.RunStatusPassed, outcomes[early].Status)
}

func TestReconcileAggregatesTemplateNode(t *testing.T) {
	t.Parallel()

	leaf := caseNode("add $a + $b = $expected")
	leaf.RawTemplate = "add $a + $b = $expected"
	results := []domain.AssertionResult{
		passed("add 1 + 2 = 3"),
		failed("add 2 + 2 = 5", "expected 5, got 4"),
		passed("add 0 + 0 = 0"),
	}

	outcomes := Reconcile([]*domain.TestNode{leaf}, results)

	require.Equal(t, domain.RunStatusFailed, outcomes[leaf].Status)
	assert.Contains(t, outcomes[leaf].FailureText, "add 2 + 2 = 5")
	assert.Contains(t, outcomes[leaf].FailureText, "expected 5, got 4")
}

func TestReconcileAggregateAllPassed(t *testing.T) {
	t.Parallel()

	leaf := caseNode("test %s")
	leaf.RawTemplate = "test %s"
	results := []domain.AssertionResult{passed("test a"), passed("test b")}

	outcomes := Reconcile([]*domain.TestNode{leaf}, results)

	assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
}

func TestReconcileExpandedRowsMatchExactly(t *testing.T) {
	t.Parallel()

	// Expanded rows carry the template but a concrete name; they must each
	// claim their own result instead of one row swallowing all of them.
	one := caseNode("case 1")
	one.RawTemplate = "case %s"
	two := caseNode("case 2")
	two.RawTemplate = "case %s"

	results := []domain.AssertionResult{
		passed("case 1"),
		failed("case 2", "broke"),
	}

	outcomes := Reconcile([]*domain.TestNode{one, two}, results)

	assert.Equal(t, domain.RunStatusPassed, outcomes[one].Status)
	assert.Equal(t, domain.RunStatusFailed, outcomes[two].Status)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()

	leaves := []*domain.TestNode{caseNode("adds"), caseNode("test %s")}
	leaves[1].RawTemplate = "test %s"
	results := []domain.AssertionResult{
		passed("adds"),
		passed("test a"),
		failed("test b", "broke"),
	}

	first := Reconcile(leaves, results)
	second := Reconcile(leaves, results)

	assert.Equal(t, first, second)
}

func TestReconcileTree(t *testing.T) {
	t.Parallel()

	root := domain.NewRoot("sample.test.ts")
	suite := &domain.TestNode{Kind: domain.NodeSuite, Name: "math"}
	leaf := caseNode("adds")
	root.Add(suite)
	suite.Add(leaf)

	outcomes := ReconcileTree(root, []domain.AssertionResult{passed("adds")})

	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
}

func TestReconcileOutput(t *testing.T) {
	t.Parallel()

	t.Run("structured document", func(t *testing.T) {
		t.Parallel()

		leaf := caseNode("adds")
		output := []byte(`{
	"testResults": [{
		"name": "/project/src/calc.test.ts",
		"assertionResults": [{"title": "adds", "status": "passed"}]
	}]
}`)

		outcomes := ReconcileOutput([]*domain.TestNode{leaf}, output, "src/calc.test.ts")

		assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
	})

	t.Run("malformed document falls back to text", func(t *testing.T) {
		t.Parallel()

		good := caseNode("adds")
		bad := caseNode("divides")
		output := []byte("PASS src/calc.test.ts\n  ✓ adds\n  ✕ divides (3 ms)\n")

		outcomes := ReconcileOutput([]*domain.TestNode{good, bad}, output, "")

		assert.Equal(t, domain.RunStatusPassed, outcomes[good].Status)
		assert.Equal(t, domain.RunStatusFailed, outcomes[bad].Status)
		assert.Equal(t, "✕ divides (3 ms)", outcomes[bad].FailureText)
	})
}
