package domain

import "strings"

// NodeKind classifies a discovered test tree node.
type NodeKind string

const (
	// NodeRoot is the single synthetic node representing one source file.
	NodeRoot NodeKind = "root"
	// NodeSuite is a describe/context block grouping cases.
	NodeSuite NodeKind = "suite"
	// NodeCase is a runnable test declaration.
	NodeCase NodeKind = "case"
	// NodeAssertion is an expect(...) call recorded for navigation.
	NodeAssertion NodeKind = "assertion"
)

// Span is a one-based source range. Both lines and columns start at 1.
type Span struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// TestNode is one declaration found in source. A file produces exactly one
// root node; every suite and case below it carries a span. The whole tree is
// rebuilt from scratch on every parse, never mutated incrementally.
type TestNode struct {
	Kind NodeKind `json:"kind"`
	// Name is the display name: a resolved literal, a substituted template,
	// or the verbatim source text of the name argument when unresolvable.
	Name string `json:"name"`
	// RawTemplate holds the unexpanded title of a parameterized declaration
	// (with %s/$var placeholders) so reconciliation can rebuild a pattern.
	// Empty for nodes not produced by expansion.
	RawTemplate string `json:"rawTemplate,omitempty"`
	// Modifier is the trailing declaration modifier, if any (skip, only, ...).
	Modifier string      `json:"modifier,omitempty"`
	File     string      `json:"file,omitempty"`
	Span     *Span       `json:"span,omitempty"`
	Children []*TestNode `json:"children,omitempty"`
	Parent   *TestNode   `json:"-"`
}

// NewRoot creates the root node for one source file.
func NewRoot(file string) *TestNode {
	return &TestNode{Kind: NodeRoot, File: file}
}

// Add appends child in source order and sets its parent pointer.
func (n *TestNode) Add(child *TestNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AncestorTitles returns the names of enclosing suites, outermost first.
// The root node contributes nothing.
func (n *TestNode) AncestorTitles() []string {
	var titles []string
	for p := n.Parent; p != nil && p.Kind != NodeRoot; p = p.Parent {
		titles = append([]string{p.Name}, titles...)
	}
	return titles
}

// FullName joins the ancestor suite titles and the node's own name with
// spaces, matching the fullName convention of jest-style runners.
func (n *TestNode) FullName() string {
	parts := append(n.AncestorTitles(), n.Name)
	return strings.Join(parts, " ")
}

// Cases returns all case nodes in the subtree, in source order.
func (n *TestNode) Cases() []*TestNode {
	var cases []*TestNode
	if n.Kind == NodeCase {
		cases = append(cases, n)
	}
	for _, c := range n.Children {
		cases = append(cases, c.Cases()...)
	}
	return cases
}

// CountCases returns the number of case nodes in the subtree.
func (n *TestNode) CountCases() int {
	count := 0
	if n.Kind == NodeCase {
		count = 1
	}
	for _, c := range n.Children {
		count += c.CountCases()
	}
	return count
}

// Inventory represents the discovered test trees of a scanned project.
type Inventory struct {
	// Files contains one root node per parsed file.
	Files []*TestNode `json:"files"`
	// RootPath is the root directory path of the scanned project.
	RootPath string `json:"rootPath"`
}

// CountCases returns the total number of cases across all files.
func (inv Inventory) CountCases() int {
	count := 0
	for _, f := range inv.Files {
		count += f.CountCases()
	}
	return count
}
