package discovery

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/testlens/core/pkg/domain"
)

// printfPattern matches the printf-style specifiers jest supports in .each
// titles, plus %# (row index) and %% (literal percent).
var printfPattern = regexp.MustCompile(`%[sdifjoc#%]`)

// dollarPathPattern matches $prop and ${prop} placeholders, including
// dotted property paths ($a.b.c).
var dollarPathPattern = regexp.MustCompile(`\$\{([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)\}|\$([A-Za-z_$][A-Za-z0-9_$]*(?:\.[A-Za-z_$][A-Za-z0-9_$]*)*)`)

// FormatEachTitle expands one .each title template for a single table row.
// Printf specifiers are substituted positionally (from the row itself when
// the row is not an array), %# becomes the 0-based row index, and
// $prop/${prop} paths are looked up on object rows. Placeholders that
// cannot be satisfied are left untouched.
func FormatEachTitle(template string, row any, index int) string {
	args, isArray := row.([]any)
	if !isArray {
		args = []any{row}
	}
	argIndex := 0

	title := printfPattern.ReplaceAllStringFunc(template, func(match string) string {
		switch match {
		case "%%":
			return "%"
		case "%#":
			return strconv.Itoa(index)
		}
		if argIndex >= len(args) {
			return match
		}
		arg := args[argIndex]
		argIndex++
		if match == "%j" {
			data, err := json.Marshal(arg)
			if err != nil {
				return match
			}
			return string(data)
		}
		return Stringify(arg)
	})

	obj, isObject := row.(map[string]any)
	if !isObject {
		return title
	}

	return dollarPathPattern.ReplaceAllStringFunc(title, func(match string) string {
		path := match[1:]
		if strings.HasPrefix(path, "{") {
			path = strings.TrimSuffix(strings.TrimPrefix(path, "{"), "}")
		}
		v, ok := Bindings(obj).LookupPath(strings.Split(path, "."))
		if !ok {
			return match
		}
		return Stringify(v)
	})
}

// literalTemplate extracts the title template of an .each call. Only a plain
// string literal or a template literal without interpolation qualifies;
// anything else declines expansion.
func literalTemplate(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "string":
		return UnquoteString(GetNodeText(node, source)), true
	case "template_string":
		if FindChildByType(node, "template_substitution") != nil {
			return "", false
		}
		return UnquoteString(GetNodeText(node, source)), true
	default:
		return "", false
	}
}

// expandEach materializes one node per table row for a .each declaration.
// Returns false (declining) when the table does not statically resolve to an
// array or the title is not a literal template.
func (w *walker) expandEach(outerCall *sitter.Node, shape CallShape, modifier string, innerArgs, outerArgs *sitter.Node, parent *domain.TestNode, scope Bindings) bool {
	tableExprs := argumentNodes(innerArgs)
	if len(tableExprs) == 0 {
		return false
	}
	table, ok := Resolve(tableExprs[0], w.source, scope)
	if !ok {
		return false
	}
	rows, isArray := table.([]any)
	if !isArray {
		return false
	}

	outerExprs := argumentNodes(outerArgs)
	if len(outerExprs) == 0 {
		return false
	}
	template, ok := literalTemplate(outerExprs[0], w.source)
	if !ok {
		return false
	}

	kind := domain.NodeCase
	if shape == ShapeSuiteEach {
		kind = domain.NodeSuite
	}
	callback := findCallback(outerArgs)
	span := GetSpan(outerCall)

	// An empty table expands to zero nodes; that is not a fallback case.
	for i, row := range rows {
		node := &domain.TestNode{
			Kind:        kind,
			Name:        FormatEachTitle(template, row, i),
			RawTemplate: template,
			Modifier:    modifier,
			File:        w.file,
			Span:        span,
		}
		parent.Add(node)

		if shape == ShapeSuiteEach && callback != nil {
			rowScope := scope.Clone()
			bindEachParams(callback, row, rowScope, w.source)
			w.walkCallback(callback, node, rowScope, true)
		}
	}
	return true
}

// declinedEach produces the single fallback node for a .each declaration
// whose table could not be resolved. The display name is the title resolved
// as far as possible; the raw template is kept so reconciliation can
// aggregate the runtime results this one declaration will produce.
func (w *walker) declinedEach(call *sitter.Node, shape CallShape, modifier string, outerArgs *sitter.Node, parent *domain.TestNode, scope Bindings, expanded bool) {
	exprs := argumentNodes(outerArgs)
	if len(exprs) == 0 {
		return
	}
	switch exprs[0].Type() {
	case "string", "template_string", "identifier", "member_expression", "binary_expression", "call_expression":
	default:
		// A partially applied .each carries its table here, not a title.
		return
	}
	name, _ := w.resolveTitle(exprs[0], scope)
	if name == "" {
		return
	}

	kind := domain.NodeCase
	if shape == ShapeSuiteEach {
		kind = domain.NodeSuite
	}
	node := &domain.TestNode{
		Kind:        kind,
		Name:        name,
		RawTemplate: name,
		Modifier:    modifier,
		File:        w.file,
		Span:        GetSpan(call),
	}
	parent.Add(node)

	if shape == ShapeSuiteEach {
		if callback := findCallback(outerArgs); callback != nil {
			w.walkCallback(callback, node, scope, expanded)
		}
	}
}

// bindEachParams destructures a .each callback's declared parameters against
// one table row: a single identifier takes the whole row, a single object
// pattern takes named properties, and multiple parameters bind positionally
// against an array row.
func bindEachParams(callback *sitter.Node, row any, scope Bindings, source []byte) {
	params := callbackParams(callback)
	switch len(params) {
	case 0:
		return
	case 1:
		param := params[0]
		switch param.Type() {
		case "identifier":
			scope[GetNodeText(param, source)] = row
		case "object_pattern":
			if obj, ok := row.(map[string]any); ok {
				bindObjectPattern(param, obj, scope, source)
			}
		case "array_pattern":
			if elems, ok := row.([]any); ok {
				bindArrayPattern(param, elems, scope, source)
			}
		}
	default:
		if elems, ok := row.([]any); ok {
			bindPositional(params, elems, scope, source)
		}
	}
}

// callbackParams returns the declared parameter patterns of a function,
// unwrapping the TypeScript grammar's required/optional parameter wrappers.
func callbackParams(fn *sitter.Node) []*sitter.Node {
	if fn == nil {
		return nil
	}
	if single := fn.ChildByFieldName("parameter"); single != nil {
		return []*sitter.Node{single}
	}
	formal := fn.ChildByFieldName("parameters")
	if formal == nil {
		return nil
	}
	var params []*sitter.Node
	for i := 0; i < int(formal.NamedChildCount()); i++ {
		param := formal.NamedChild(i)
		switch param.Type() {
		case "required_parameter", "optional_parameter":
			if pattern := param.ChildByFieldName("pattern"); pattern != nil {
				params = append(params, pattern)
			}
		case "identifier", "object_pattern", "array_pattern":
			params = append(params, param)
		}
	}
	return params
}

func bindArrayPattern(pattern *sitter.Node, elems []any, scope Bindings, source []byte) {
	var params []*sitter.Node
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		params = append(params, pattern.NamedChild(i))
	}
	bindPositional(params, elems, scope, source)
}

func bindPositional(params []*sitter.Node, elems []any, scope Bindings, source []byte) {
	for i, param := range params {
		if i >= len(elems) {
			return
		}
		switch param.Type() {
		case "identifier":
			scope[GetNodeText(param, source)] = elems[i]
		case "object_pattern":
			if obj, ok := elems[i].(map[string]any); ok {
				bindObjectPattern(param, obj, scope, source)
			}
		}
	}
}
