package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/testlens/core/pkg/discovery/tspool"
	"github.com/testlens/core/pkg/domain"
)

// ErrSyntax is returned when a file cannot be parsed. The caller decides
// whether to keep a previously built tree for the file.
var ErrSyntax = errors.New("discovery: syntax error")

// Parse builds the test tree for one source file. The returned root node is
// a fresh tree; nothing is shared with previous parses of the same file.
// Unresolvable names degrade to source-text fallbacks, never errors; the
// only failure mode is a syntax error, scoped to this file.
func Parse(ctx context.Context, source []byte, filename string) (*domain.TestNode, error) {
	lang := DetectLanguage(filename)

	tree, err := tspool.Parse(ctx, lang, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w in %s", ErrSyntax, filename)
	}

	fileNode := domain.NewRoot(filename)
	w := &walker{source: source, file: filename}
	w.walkBlock(root, fileNode, Bindings{}, false)

	return fileNode, nil
}

type walker struct {
	source []byte
	file   string
	depth  int
}

// walkBlock iterates a statement block's direct statements in source order,
// extending a copied binding scope as declarations appear. The expanded flag
// marks blocks walked per-row under an expanded describe.each, where nested
// template titles fold row values into their raw templates.
func (w *walker) walkBlock(block *sitter.Node, parent *domain.TestNode, bindings Bindings, expanded bool) {
	if w.depth >= tspool.MaxTreeDepth {
		return
	}
	w.depth++
	defer func() { w.depth-- }()

	scope := bindings.Clone()
	for i := 0; i < int(block.NamedChildCount()); i++ {
		w.walkStatement(block.NamedChild(i), parent, scope, expanded)
	}
}

func (w *walker) walkStatement(stmt *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	switch stmt.Type() {
	case "class_declaration":
		w.bindClass(stmt, scope)
	case "lexical_declaration", "variable_declaration":
		w.handleDeclaration(stmt, parent, scope, expanded)
	case "expression_statement":
		w.handleExpression(stmt.NamedChild(0), parent, scope, expanded)
	case "return_statement":
		if expr := stmt.NamedChild(0); expr != nil {
			w.handleExpression(expr, parent, scope, expanded)
		}
	case "export_statement":
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			w.walkStatement(decl, parent, scope, expanded)
		} else if value := stmt.ChildByFieldName("value"); value != nil {
			w.handleExpression(value, parent, scope, expanded)
		}
	case "if_statement":
		w.walkBody(stmt.ChildByFieldName("consequence"), parent, scope, expanded)
		if alt := stmt.ChildByFieldName("alternative"); alt != nil {
			if alt.Type() == "else_clause" {
				alt = alt.NamedChild(0)
			}
			w.walkBody(alt, parent, scope, expanded)
		}
	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		// A loop body is walked once: the declarations inside exist at one
		// source location regardless of how often the loop would run.
		w.walkBody(stmt.ChildByFieldName("body"), parent, scope, expanded)
	case "statement_block":
		w.walkBlock(stmt, parent, scope, expanded)
	}
}

// walkBody walks a control-flow body, which is either a braced block or a
// single statement.
func (w *walker) walkBody(body *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	if body == nil {
		return
	}
	if body.Type() == "statement_block" {
		w.walkBlock(body, parent, scope, expanded)
		return
	}
	w.walkStatement(body, parent, scope, expanded)
}

// bindClass binds a class name to an object carrying its own name, so that
// later `MyClass.name` lookups resolve to "MyClass".
func (w *walker) bindClass(stmt *sitter.Node, scope Bindings) {
	nameNode := stmt.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := GetNodeText(nameNode, w.source)
	scope[name] = map[string]any{"name": name}
}

// handleDeclaration extends the scope with resolvable initializers and
// routes function- and call-valued declarators back into the walk.
func (w *walker) handleDeclaration(stmt *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		declarator := stmt.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		nameNode := declarator.ChildByFieldName("name")
		value := declarator.ChildByFieldName("value")
		if nameNode == nil || value == nil {
			continue
		}

		switch value.Type() {
		case "arrow_function", "function_expression", "function", "function_declaration", "generator_function":
			// const helper = () => { it(...) }: transparent nesting, the
			// declarations inside attach to the current parent.
			w.walkCallback(value, parent, scope, expanded)
			continue
		case "call_expression":
			w.handleCall(value, parent, scope, expanded)
			continue
		}

		switch nameNode.Type() {
		case "identifier":
			if v, ok := Resolve(value, w.source, scope); ok {
				scope[GetNodeText(nameNode, w.source)] = v
			}
		case "object_pattern":
			v, ok := Resolve(value, w.source, scope)
			if !ok {
				continue
			}
			if obj, isObj := v.(map[string]any); isObj {
				bindObjectPattern(nameNode, obj, scope, w.source)
			}
		}
	}
}

func (w *walker) handleExpression(expr *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	if expr == nil {
		return
	}
	switch expr.Type() {
	case "call_expression":
		w.handleCall(expr, parent, scope, expanded)
	case "await_expression", "parenthesized_expression":
		w.handleExpression(expr.NamedChild(0), parent, scope, expanded)
	case "assignment_expression":
		right := expr.ChildByFieldName("right")
		if right == nil {
			return
		}
		switch right.Type() {
		case "arrow_function", "function_expression", "function", "generator_function":
			w.walkCallback(right, parent, scope, expanded)
		case "call_expression":
			w.handleCall(right, parent, scope, expanded)
		}
	}
}

// handleCall classifies a call expression and builds the matching node.
func (w *walker) handleCall(call *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil {
		return
	}

	// Curried form: it.each(table)('title %s', fn). The each chain lives on
	// the inner call; the title and callback live on the outer one.
	if fn.Type() == "call_expression" {
		innerFn := fn.ChildByFieldName("function")
		innerArgs := fn.ChildByFieldName("arguments")
		if innerFn != nil && innerArgs != nil {
			shape, modifier := Classify(calleeChain(innerFn, w.source))
			if shape == ShapeSuiteEach || shape == ShapeCaseEach {
				if !w.expandEach(call, shape, modifier, innerArgs, args, parent, scope) {
					w.declinedEach(call, shape, modifier, args, parent, scope, expanded)
				}
				return
			}
		}
	}

	shape, modifier := Classify(calleeChain(fn, w.source))
	switch shape {
	case ShapeSuite:
		node := w.newNamedNode(domain.NodeSuite, call, args, modifier, scope, expanded)
		if node == nil {
			return
		}
		parent.Add(node)
		if callback := findCallback(args); callback != nil {
			w.walkCallback(callback, node, scope, expanded)
		}
	case ShapeCase:
		node := w.newNamedNode(domain.NodeCase, call, args, modifier, scope, expanded)
		if node == nil {
			return
		}
		parent.Add(node)
		for _, callback := range functionArguments(args) {
			w.walkCallback(callback, node, scope, expanded)
		}
	case ShapeSuiteEach, ShapeCaseEach:
		// Non-curried .each (tagged templates, partial application): decline.
		w.declinedEach(call, shape, modifier, args, parent, scope, expanded)
	case ShapeAssertion:
		parent.Add(&domain.TestNode{
			Kind: domain.NodeAssertion,
			Name: GetNodeText(fn, w.source),
			File: w.file,
			Span: GetSpan(call),
		})
	case ShapeIgnored:
		return
	default:
		// Hooks and custom wrappers (beforeEach, describeMatrix, ...) still
		// surface nested declarations through their callbacks.
		for _, callback := range functionArguments(args) {
			w.walkCallback(callback, parent, scope, expanded)
		}
	}
}

// newNamedNode creates a suite or case node from a declaration call,
// resolving the display name from the first argument. Returns nil when the
// call carries no name argument at all.
func (w *walker) newNamedNode(kind domain.NodeKind, call, args *sitter.Node, modifier string, scope Bindings, expanded bool) *domain.TestNode {
	exprs := argumentNodes(args)
	if len(exprs) == 0 {
		return nil
	}
	titleNode := exprs[0]

	node := &domain.TestNode{
		Kind:     kind,
		Modifier: modifier,
		File:     w.file,
		Span:     GetSpan(call),
	}

	switch titleNode.Type() {
	case "arrow_function", "function_expression", "function", "function_declaration":
		// Deno.test(function myTest() {...}) names the test after the function.
		nameNode := titleNode.ChildByFieldName("name")
		if nameNode == nil {
			return nil
		}
		node.Name = GetNodeText(nameNode, w.source)
		return node
	case "object":
		// Deno.test({name: "...", fn() {...}}) carries the name as a property.
		if v, ok := Resolve(titleNode, w.source, scope); ok {
			if obj, isObj := v.(map[string]any); isObj {
				if name, hasName := obj["name"].(string); hasName {
					node.Name = name
					return node
				}
			}
		}
		return nil
	}

	name, hadInterp := w.resolveTitle(titleNode, scope)
	if name == "" {
		return nil
	}
	node.Name = name
	if expanded && hadInterp {
		// Inside an expanded describe.each row, a template title that drew on
		// the row scope is itself the pattern reconciliation needs.
		node.RawTemplate = name
	}
	return node
}

// resolveTitle resolves a declaration's name argument as far as statically
// possible. Fully resolvable expressions yield their value; template
// literals with unresolvable segments keep those segments verbatim; anything
// else falls back to the argument's source text with template delimiters
// stripped. The second return reports whether the title was a template
// literal with interpolation.
func (w *walker) resolveTitle(node *sitter.Node, scope Bindings) (string, bool) {
	hadInterp := node.Type() == "template_string" && FindChildByType(node, "template_substitution") != nil

	if v, ok := Resolve(node, w.source, scope); ok {
		if s, isStr := v.(string); isStr {
			return s, hadInterp
		}
		return Stringify(v), hadInterp
	}

	if node.Type() == "template_string" {
		return w.partialTemplate(node, scope), true
	}

	return strings.TrimSpace(GetNodeText(node, w.source)), false
}

// partialTemplate substitutes the resolvable segments of a template literal
// and leaves unresolvable interpolations as verbatim ${...} tokens, so that
// reconciliation can later treat them as wildcards.
func (w *walker) partialTemplate(node *sitter.Node, scope Bindings) string {
	text, _ := renderTemplate(node, w.source, func(sub *sitter.Node) (string, bool) {
		if v, ok := Resolve(sub.NamedChild(0), w.source, scope); ok {
			return Stringify(v), true
		}
		return GetNodeText(sub, w.source), true
	})
	return text
}

// walkCallback walks a function body as a new block under parent. An
// expression-bodied arrow function routes its single expression directly.
func (w *walker) walkCallback(fn *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return
	}
	if body.Type() == "statement_block" {
		w.walkBlock(body, parent, scope, expanded)
		return
	}
	w.handleExpression(body, parent, scope.Clone(), expanded)
}

// bindObjectPattern destructures an object pattern against a resolved object
// value, binding each local name to the corresponding property.
func bindObjectPattern(pattern *sitter.Node, obj map[string]any, scope Bindings, source []byte) {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		prop := pattern.NamedChild(i)
		switch prop.Type() {
		case "shorthand_property_identifier_pattern":
			name := GetNodeText(prop, source)
			if v, ok := obj[name]; ok {
				scope[name] = v
			}
		case "pair_pattern":
			key := prop.ChildByFieldName("key")
			value := prop.ChildByFieldName("value")
			if key == nil || value == nil || value.Type() != "identifier" {
				continue
			}
			if v, ok := obj[GetNodeText(key, source)]; ok {
				scope[GetNodeText(value, source)] = v
			}
		case "object_assignment_pattern":
			left := prop.ChildByFieldName("left")
			if left == nil || left.Type() != "shorthand_property_identifier_pattern" {
				continue
			}
			name := GetNodeText(left, source)
			if v, ok := obj[name]; ok {
				scope[name] = v
			}
		}
	}
}
