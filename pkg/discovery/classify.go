package discovery

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// CallShape is the closed classification of a test-declaration call,
// keyed on the callee's root identifier and its trailing property.
// New runner-specific call shapes are additive variants here, not
// conditionals scattered through the walker.
type CallShape int

const (
	ShapeUnrecognized CallShape = iota
	ShapeSuite
	ShapeCase
	ShapeSuiteEach
	ShapeCaseEach
	ShapeAssertion
	ShapeIgnored
)

const (
	funcDescribe = "describe"
	funcIt       = "it"
	funcTest     = "test"
	funcContext  = "context"
	funcSpecify  = "specify"
	funcSuite    = "suite"
	funcExpect   = "expect"
	funcDeno     = "Deno"

	modifierEach = "each"
	modifierStep = "step"
)

// skippedAliases maps x-prefixed declaration aliases to their base name.
var skippedAliases = map[string]string{
	"xdescribe": funcDescribe,
	"xit":       funcIt,
	"xtest":     funcTest,
	"xcontext":  funcContext,
	"xspecify":  funcSpecify,
}

// focusedAliases maps f-prefixed declaration aliases to their base name.
var focusedAliases = map[string]string{
	"fdescribe": funcDescribe,
	"fit":       funcIt,
	"fcontext":  funcContext,
	"fspecify":  funcSpecify,
}

// chainModifiers are properties that refine a declaration without changing
// what it declares (test.only, it.skip.each, test.describe.serial, ...).
var chainModifiers = map[string]bool{
	"only":       true,
	"skip":       true,
	"todo":       true,
	"serial":     true,
	"parallel":   true,
	"fixme":      true,
	"failing":    true,
	"concurrent": true,
	"sequential": true,
	"ignore":     true,
	"runIf":      true,
	"skipIf":     true,
}

// markerModifiers are the chain modifiers worth surfacing on the node.
var markerModifiers = map[string]bool{
	"only":    true,
	"skip":    true,
	"todo":    true,
	"fixme":   true,
	"failing": true,
	"ignore":  true,
}

// calleeChain flattens a callee expression into its identifier parts, root
// first: it.skip.each -> [it skip each], expect(x).toBe -> [expect toBe].
// Returns nil for callees that are not identifier/member chains.
func calleeChain(fn *sitter.Node, source []byte) []string {
	if fn == nil {
		return nil
	}
	switch fn.Type() {
	case "identifier":
		return []string{GetNodeText(fn, source)}
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return nil
		}
		head := calleeChain(obj, source)
		if head == nil {
			return nil
		}
		return append(head, GetNodeText(prop, source))
	case "call_expression":
		// expect(x).toBe: the chain root is the inner call's callee.
		return calleeChain(fn.ChildByFieldName("function"), source)
	case "parenthesized_expression", "non_null_expression":
		return calleeChain(fn.NamedChild(0), source)
	default:
		return nil
	}
}

// Classify maps a flattened callee chain onto a call shape plus the marker
// modifier (skip/only/todo/...) carried by the chain, if any.
func Classify(chain []string) (CallShape, string) {
	if len(chain) == 0 {
		return ShapeUnrecognized, ""
	}

	root := chain[0]
	rest := chain[1:]

	if base, ok := skippedAliases[root]; ok {
		shape, _ := Classify(append([]string{base}, rest...))
		if shape == ShapeUnrecognized {
			return ShapeUnrecognized, ""
		}
		return shape, "skip"
	}
	if base, ok := focusedAliases[root]; ok {
		shape, _ := Classify(append([]string{base}, rest...))
		if shape == ShapeUnrecognized {
			return ShapeUnrecognized, ""
		}
		return shape, "only"
	}

	if root == funcExpect {
		return ShapeAssertion, ""
	}

	isSuite := false
	isCase := false
	switch root {
	case funcDescribe, funcContext, funcSuite:
		isSuite = true
	case funcIt, funcTest, funcSpecify:
		isCase = true
	case funcDeno:
		// Deno.test('name', fn); Deno.test.ignore and friends keep the shape.
		if len(rest) == 0 || rest[0] != funcTest {
			return ShapeUnrecognized, ""
		}
		isCase = true
		rest = rest[1:]
	default:
		return ShapeUnrecognized, ""
	}

	hasEach := false
	modifier := ""
	for _, part := range rest {
		switch {
		case part == modifierEach:
			hasEach = true
		case part == modifierStep:
			// test.step is a nested runtime step, not a declaration.
			return ShapeIgnored, ""
		case part == funcDescribe:
			// Playwright's test.describe declares a suite.
			isSuite = true
			isCase = false
		case chainModifiers[part]:
			if markerModifiers[part] {
				modifier = part
			}
		default:
			return ShapeUnrecognized, ""
		}
	}

	switch {
	case isSuite && hasEach:
		return ShapeSuiteEach, modifier
	case isSuite:
		return ShapeSuite, modifier
	case isCase && hasEach:
		return ShapeCaseEach, modifier
	case isCase:
		return ShapeCase, modifier
	}
	return ShapeUnrecognized, ""
}
