package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		chain        []string
		wantShape    CallShape
		wantModifier string
	}{
		{name: "describe", chain: []string{"describe"}, wantShape: ShapeSuite},
		{name: "context", chain: []string{"context"}, wantShape: ShapeSuite},
		{name: "suite", chain: []string{"suite"}, wantShape: ShapeSuite},
		{name: "it", chain: []string{"it"}, wantShape: ShapeCase},
		{name: "test", chain: []string{"test"}, wantShape: ShapeCase},
		{name: "specify", chain: []string{"specify"}, wantShape: ShapeCase},
		{name: "it.only", chain: []string{"it", "only"}, wantShape: ShapeCase, wantModifier: "only"},
		{name: "it.skip", chain: []string{"it", "skip"}, wantShape: ShapeCase, wantModifier: "skip"},
		{name: "test.todo", chain: []string{"test", "todo"}, wantShape: ShapeCase, wantModifier: "todo"},
		{name: "test.fixme", chain: []string{"test", "fixme"}, wantShape: ShapeCase, wantModifier: "fixme"},
		{name: "describe.serial", chain: []string{"describe", "serial"}, wantShape: ShapeSuite},
		{name: "describe.parallel", chain: []string{"describe", "parallel"}, wantShape: ShapeSuite},
		{name: "test.concurrent", chain: []string{"test", "concurrent"}, wantShape: ShapeCase},
		{name: "it.each", chain: []string{"it", "each"}, wantShape: ShapeCaseEach},
		{name: "test.each", chain: []string{"test", "each"}, wantShape: ShapeCaseEach},
		{name: "describe.each", chain: []string{"describe", "each"}, wantShape: ShapeSuiteEach},
		{name: "it.skip.each", chain: []string{"it", "skip", "each"}, wantShape: ShapeCaseEach, wantModifier: "skip"},
		{name: "test.concurrent.each", chain: []string{"test", "concurrent", "each"}, wantShape: ShapeCaseEach},
		{name: "test.describe", chain: []string{"test", "describe"}, wantShape: ShapeSuite},
		{name: "test.describe.serial", chain: []string{"test", "describe", "serial"}, wantShape: ShapeSuite},
		{name: "test.describe.each", chain: []string{"test", "describe", "each"}, wantShape: ShapeSuiteEach},
		{name: "test.step ignored", chain: []string{"test", "step"}, wantShape: ShapeIgnored},
		{name: "Deno.test", chain: []string{"Deno", "test"}, wantShape: ShapeCase},
		{name: "Deno.test.ignore", chain: []string{"Deno", "test", "ignore"}, wantShape: ShapeCase, wantModifier: "ignore"},
		{name: "Deno without test", chain: []string{"Deno", "bench"}, wantShape: ShapeUnrecognized},
		{name: "expect chain", chain: []string{"expect", "toBe"}, wantShape: ShapeAssertion},
		{name: "xit alias", chain: []string{"xit"}, wantShape: ShapeCase, wantModifier: "skip"},
		{name: "xdescribe alias", chain: []string{"xdescribe"}, wantShape: ShapeSuite, wantModifier: "skip"},
		{name: "fit alias", chain: []string{"fit"}, wantShape: ShapeCase, wantModifier: "only"},
		{name: "fdescribe alias", chain: []string{"fdescribe"}, wantShape: ShapeSuite, wantModifier: "only"},
		{name: "beforeEach unrecognized", chain: []string{"beforeEach"}, wantShape: ShapeUnrecognized},
		{name: "custom wrapper unrecognized", chain: []string{"describeMatrix"}, wantShape: ShapeUnrecognized},
		{name: "unknown property unrecognized", chain: []string{"it", "retry"}, wantShape: ShapeUnrecognized},
		{name: "empty chain", chain: nil, wantShape: ShapeUnrecognized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shape, modifier := Classify(tt.chain)

			assert.Equal(t, tt.wantShape, shape)
			assert.Equal(t, tt.wantModifier, modifier)
		})
	}
}
