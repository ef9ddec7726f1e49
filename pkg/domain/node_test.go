package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree() *TestNode {
	root := NewRoot("calc.test.ts")
	outer := &TestNode{Kind: NodeSuite, Name: "Calculator"}
	inner := &TestNode{Kind: NodeSuite, Name: "division"}
	adds := &TestNode{Kind: NodeCase, Name: "adds"}
	divides := &TestNode{Kind: NodeCase, Name: "divides"}

	root.Add(outer)
	outer.Add(adds)
	outer.Add(inner)
	inner.Add(divides)
	return root
}

func TestAddSetsParent(t *testing.T) {
	t.Parallel()

	root := buildTree()

	require.Len(t, root.Children, 1)
	outer := root.Children[0]
	assert.Same(t, root, outer.Parent)
	assert.Same(t, outer, outer.Children[0].Parent)
}

func TestAncestorTitles(t *testing.T) {
	t.Parallel()

	root := buildTree()
	divides := root.Children[0].Children[1].Children[0]

	assert.Equal(t, []string{"Calculator", "division"}, divides.AncestorTitles())
	assert.Empty(t, root.Children[0].AncestorTitles())
}

func TestFullName(t *testing.T) {
	t.Parallel()

	root := buildTree()
	divides := root.Children[0].Children[1].Children[0]
	adds := root.Children[0].Children[0]

	assert.Equal(t, "Calculator division divides", divides.FullName())
	assert.Equal(t, "Calculator adds", adds.FullName())
}

func TestCases(t *testing.T) {
	t.Parallel()

	root := buildTree()

	cases := root.Cases()
	require.Len(t, cases, 2)
	assert.Equal(t, "adds", cases[0].Name)
	assert.Equal(t, "divides", cases[1].Name)
	assert.Equal(t, 2, root.CountCases())
}

func TestInventoryCountCases(t *testing.T) {
	t.Parallel()

	inv := Inventory{
		Files:    []*TestNode{buildTree(), buildTree()},
		RootPath: "/project",
	}

	assert.Equal(t, 4, inv.CountCases())
}
