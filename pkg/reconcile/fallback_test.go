package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/testlens/core/pkg/domain"
)

func TestFallbackText(t *testing.T) {
	t.Parallel()

	t.Run("marker line marks the named node failed", func(t *testing.T) {
		t.Parallel()

		adds := caseNode("adds")
		divides := caseNode("divides")
		output := "  ✓ adds (1 ms)\n  ✕ divides (2 ms)\n"

		outcomes := FallbackText([]*domain.TestNode{adds, divides}, output)

		assert.Equal(t, domain.RunStatusPassed, outcomes[adds].Status)
		assert.Equal(t, domain.RunStatusFailed, outcomes[divides].Status)
		assert.Equal(t, "✕ divides (2 ms)", outcomes[divides].FailureText)
	})

	t.Run("tap not ok marker", func(t *testing.T) {
		t.Parallel()

		leaf := caseNode("parses input")

		outcomes := FallbackText([]*domain.TestNode{leaf}, "not ok 1 - parses input\n")

		assert.Equal(t, domain.RunStatusFailed, outcomes[leaf].Status)
	})

	t.Run("last segment matches when name carries the suite prefix", func(t *testing.T) {
		t.Parallel()

		children := suiteWith("math", caseNode("math adds"))
		leaf := children[0]

		outcomes := FallbackText([]*domain.TestNode{leaf}, "  ✗ adds\n")

		assert.Equal(t, domain.RunStatusFailed, outcomes[leaf].Status)
	})

	t.Run("no markers means everything passed", func(t *testing.T) {
		t.Parallel()

		leaf := caseNode("adds")

		outcomes := FallbackText([]*domain.TestNode{leaf}, "all 12 tests passing\n")

		assert.Equal(t, domain.RunStatusPassed, outcomes[leaf].Status)
	})

	t.Run("suite nodes are not assigned outcomes", func(t *testing.T) {
		t.Parallel()

		suite := &domain.TestNode{Kind: domain.NodeSuite, Name: "group"}

		outcomes := FallbackText([]*domain.TestNode{suite}, "✕ group\n")

		assert.Empty(t, outcomes)
	})
}
