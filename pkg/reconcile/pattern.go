// Package reconcile matches statically discovered test nodes against the
// results produced by an actual test run.
package reconcile

import (
	"regexp"
	"strings"
)

// interpolationPattern matches the tokens a display name can still carry
// when discovery could not resolve an interpolation: ${expr}, $path and
// printf-style specifiers.
var interpolationPattern = regexp.MustCompile(`\$\{[^}]*\}|\$[A-Za-z_$][A-Za-z0-9_$.]*|%[sdifjoc#]`)

// HasInterpolation reports whether a name still contains unresolved
// interpolation tokens.
func HasInterpolation(name string) bool {
	return interpolationPattern.MatchString(name)
}

// CompilePattern converts a name with interpolation tokens into an anchored
// regular expression: every token becomes a non-greedy wildcard group and
// everything else is matched literally.
func CompilePattern(name string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString(`^`)

	last := 0
	for _, loc := range interpolationPattern.FindAllStringIndex(name, -1) {
		sb.WriteString(regexp.QuoteMeta(name[last:loc[0]]))
		sb.WriteString(`(.*?)`)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(name[last:]))
	sb.WriteString(`$`)

	return regexp.Compile(sb.String())
}
