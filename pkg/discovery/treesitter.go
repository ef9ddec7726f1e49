// Package discovery turns JavaScript/TypeScript source text into a tree of
// named test nodes without executing it. Parsing one file is a pure function
// of its text; the resulting tree is rebuilt wholesale on every call.
package discovery

import (
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/testlens/core/pkg/domain"
)

// DetectLanguage determines the source language based on file extension.
func DetectLanguage(filename string) domain.Language {
	switch filepath.Ext(filename) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return domain.LanguageJavaScript
	case ".tsx":
		return domain.LanguageTSX
	default:
		return domain.LanguageTypeScript
	}
}

// GetNodeText returns the source text for the given AST node.
// Returns empty string if the node's byte range exceeds the source length.
// Uses defensive bounds checking and panic recovery to handle edge cases.
func GetNodeText(node *sitter.Node, source []byte) (result string) {
	start := node.StartByte()
	end := node.EndByte()
	sourceLen := uint32(len(source))

	// Validate bounds before calling tree-sitter C code
	if start > sourceLen || end > sourceLen {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			result = ""
		}
	}()

	return node.Content(source)
}

// GetSpan converts a tree-sitter node position to a [domain.Span].
// Lines and columns are converted to 1-based indexing.
func GetSpan(node *sitter.Node) *domain.Span {
	start := node.StartPoint()
	end := node.EndPoint()

	return &domain.Span{
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

// FindChildByType returns the first direct child with the given node type.
func FindChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// argumentNodes returns the expression children of an arguments node,
// skipping punctuation and comments.
func argumentNodes(args *sitter.Node) []*sitter.Node {
	var exprs []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		exprs = append(exprs, child)
	}
	return exprs
}

// findCallback returns the last argument that is a function. Test helpers
// put the callback last (after the title and optional options object).
func findCallback(args *sitter.Node) *sitter.Node {
	var callback *sitter.Node
	for _, child := range argumentNodes(args) {
		switch child.Type() {
		case "arrow_function", "function_expression", "function", "function_declaration", "generator_function":
			callback = child
		}
	}
	return callback
}

// functionArguments returns every argument that is itself a function.
func functionArguments(args *sitter.Node) []*sitter.Node {
	var fns []*sitter.Node
	for _, child := range argumentNodes(args) {
		switch child.Type() {
		case "arrow_function", "function_expression", "function", "function_declaration", "generator_function":
			fns = append(fns, child)
		}
	}
	return fns
}
