package discovery

// Bindings maps identifier names to statically resolved values. A scope is
// created once per lexical block as a copy of its parent, so mutations made
// while walking a block never leak upward or into siblings.
//
// Values are the resolver's concrete types: string, float64, bool, nil,
// []any and map[string]any.
type Bindings map[string]any

// Clone returns an independent copy. The copy is shallow: resolved values
// are never mutated after creation, only rebound.
func (b Bindings) Clone() Bindings {
	clone := make(Bindings, len(b))
	for k, v := range b {
		clone[k] = v
	}
	return clone
}

// Lookup returns the bound value for name.
func (b Bindings) Lookup(name string) (any, bool) {
	v, ok := b[name]
	return v, ok
}

// LookupPath resolves a dotted path (e.g. "a.b.c") through nested objects.
func (b Bindings) LookupPath(path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := b[path[0]]
	if !ok {
		return nil, false
	}
	return followPath(v, path[1:])
}

// followPath walks property names into nested map values.
func followPath(v any, path []string) (any, bool) {
	for _, key := range path {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return v, true
}
