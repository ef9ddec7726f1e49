package discovery

import (
	"encoding/json"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Resolve attempts to produce a concrete value for an expression node using
// the given bindings. The second return is false when the expression is not
// statically resolvable.
//
// The evaluator is deliberately incomplete: function calls, conditionals and
// anything else requiring execution are never resolved. Correctness requires
// that it never fabricates a plausible-looking but wrong value, so every
// unknown shape reports unresolvable instead of guessing.
func Resolve(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	if node == nil {
		return nil, false
	}

	switch node.Type() {
	case "string":
		return UnquoteString(GetNodeText(node, source)), true
	case "template_string":
		return resolveTemplate(node, source, b)
	case "number":
		return resolveNumber(GetNodeText(node, source))
	case "true":
		return true, true
	case "false":
		return false, true
	case "null", "undefined":
		return nil, true
	case "array":
		return resolveArray(node, source, b)
	case "object":
		return resolveObject(node, source, b)
	case "identifier":
		return b.Lookup(GetNodeText(node, source))
	case "member_expression":
		return resolveMember(node, source, b)
	case "subscript_expression":
		return resolveSubscript(node, source, b)
	case "binary_expression":
		return resolveConcat(node, source, b)
	case "parenthesized_expression", "as_expression", "non_null_expression", "satisfies_expression":
		if inner := node.NamedChild(0); inner != nil {
			return Resolve(inner, source, b)
		}
		return nil, false
	case "unary_expression":
		return resolveUnary(node, source, b)
	default:
		return nil, false
	}
}

func resolveNumber(text string) (any, bool) {
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	// Hex, octal and binary literals are valid JS numbers.
	if i, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64); err == nil {
		return float64(i), true
	}
	return nil, false
}

func resolveUnary(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	op := node.ChildByFieldName("operator")
	arg := node.ChildByFieldName("argument")
	if op == nil || arg == nil || GetNodeText(op, source) != "-" {
		return nil, false
	}
	v, ok := Resolve(arg, source, b)
	if !ok {
		return nil, false
	}
	f, isNum := v.(float64)
	if !isNum {
		return nil, false
	}
	return -f, true
}

// resolveTemplate concatenates template quasis with resolved substitutions.
// A template with zero substitutions resolves to its literal text. Any
// unresolvable substitution makes the whole template unresolvable.
//
// Quasi text is reconstructed from byte offsets between substitutions, so
// the shape of the grammar's fragment nodes does not matter.
func resolveTemplate(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	render := func(sub *sitter.Node) (string, bool) {
		v, ok := Resolve(sub.NamedChild(0), source, b)
		if !ok {
			return "", false
		}
		return Stringify(v), true
	}
	return renderTemplate(node, source, render)
}

// renderTemplate rebuilds a template literal's text, delegating each
// ${...} substitution to render. Fails when render does.
func renderTemplate(node *sitter.Node, source []byte, render func(*sitter.Node) (string, bool)) (string, bool) {
	start := int(node.StartByte())
	end := int(node.EndByte())
	if start >= len(source) || end > len(source) || end-start < 2 {
		return "", false
	}

	var sb strings.Builder
	last := start + 1 // skip the opening backtick
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "template_substitution" {
			continue
		}
		sb.Write(source[last:int(child.StartByte())])
		text, ok := render(child)
		if !ok {
			return "", false
		}
		sb.WriteString(text)
		last = int(child.EndByte())
	}
	if last < end-1 {
		sb.Write(source[last : end-1])
	}
	return sb.String(), true
}

func resolveArray(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	var elems []any
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		v, ok := Resolve(child, source, b)
		if !ok {
			return nil, false
		}
		elems = append(elems, v)
	}
	if elems == nil {
		elems = []any{}
	}
	return elems, true
}

// resolveObject resolves an object literal. Computed and unresolvable keys
// or values are skipped rather than failing the whole object.
func resolveObject(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	obj := make(map[string]any)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "pair":
			key, ok := objectKey(child.ChildByFieldName("key"), source)
			if !ok {
				continue
			}
			v, ok := Resolve(child.ChildByFieldName("value"), source, b)
			if !ok {
				continue
			}
			obj[key] = v
		case "shorthand_property_identifier":
			name := GetNodeText(child, source)
			if v, ok := b.Lookup(name); ok {
				obj[name] = v
			}
		}
	}
	return obj, true
}

func objectKey(key *sitter.Node, source []byte) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Type() {
	case "property_identifier", "number":
		return GetNodeText(key, source), true
	case "string":
		return UnquoteString(GetNodeText(key, source)), true
	default:
		// computed_property_name and friends
		return "", false
	}
}

func resolveMember(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	objNode := node.ChildByFieldName("object")
	propNode := node.ChildByFieldName("property")
	if objNode == nil || propNode == nil {
		return nil, false
	}
	obj, ok := Resolve(objNode, source, b)
	if !ok {
		return nil, false
	}
	prop := GetNodeText(propNode, source)
	switch v := obj.(type) {
	case map[string]any:
		val, ok := v[prop]
		return val, ok
	case []any:
		if prop == "length" {
			return float64(len(v)), true
		}
	}
	return nil, false
}

func resolveSubscript(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	objNode := node.ChildByFieldName("object")
	idxNode := node.ChildByFieldName("index")
	if objNode == nil || idxNode == nil {
		return nil, false
	}
	obj, ok := Resolve(objNode, source, b)
	if !ok {
		return nil, false
	}
	idx, ok := Resolve(idxNode, source, b)
	if !ok {
		return nil, false
	}
	switch container := obj.(type) {
	case []any:
		i, isNum := idx.(float64)
		if !isNum || i != float64(int(i)) || int(i) < 0 || int(i) >= len(container) {
			return nil, false
		}
		return container[int(i)], true
	case map[string]any:
		key, isStr := idx.(string)
		if !isStr {
			return nil, false
		}
		val, ok := container[key]
		return val, ok
	}
	return nil, false
}

// resolveConcat handles binary + where either operand is a string. Numeric
// addition and every other operator stay unresolvable.
func resolveConcat(node *sitter.Node, source []byte, b Bindings) (any, bool) {
	op := node.ChildByFieldName("operator")
	if op == nil || GetNodeText(op, source) != "+" {
		return nil, false
	}
	left, ok := Resolve(node.ChildByFieldName("left"), source, b)
	if !ok {
		return nil, false
	}
	right, ok := Resolve(node.ChildByFieldName("right"), source, b)
	if !ok {
		return nil, false
	}
	_, leftStr := left.(string)
	_, rightStr := right.(string)
	if !leftStr && !rightStr {
		return nil, false
	}
	return Stringify(left) + Stringify(right), true
}

// Stringify formats a resolved value the way JavaScript string interpolation
// would: numbers without a trailing .0, null for nil, JSON for containers.
func Stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// UnquoteString strips JS string delimiters and unescapes the content.
// Backtick-delimited text is returned verbatim between the delimiters.
func UnquoteString(text string) string {
	if len(text) < 2 {
		return text
	}

	if text[0] == '`' && text[len(text)-1] == '`' {
		return text[1 : len(text)-1]
	}

	// Handle single-quoted JavaScript strings.
	// Go's strconv.Unquote only handles double-quoted strings, so we need to
	// convert single-quoted strings to double-quoted format first:
	// 1. Remove outer single quotes and get the inner content
	// 2. Unescape JavaScript's escaped single quotes (\' -> ')
	// 3. Escape any double quotes for Go's strconv.Unquote
	// 4. Wrap in double quotes and parse with strconv.Unquote
	if text[0] == '\'' && text[len(text)-1] == '\'' {
		inner := text[1 : len(text)-1]
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		escaped := strings.ReplaceAll(inner, `"`, `\"`)
		converted := `"` + escaped + `"`
		if s, err := strconv.Unquote(converted); err == nil {
			return s
		}
		return text
	}

	if s, err := strconv.Unquote(text); err == nil {
		return s
	}

	return text
}
