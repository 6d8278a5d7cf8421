package optimizer

import (
	"golang.org/x/exp/maps"

	"github.com/cythanc/cythanc/pkg/mir"
)

// factKind distinguishes the three states a cell's abstract value can
// be in: unknown (bottom), a known immediate, or "currently mirrors
// another cell" (spec §4.2, glossary "Fact store").
type factKind uint8

const (
	factUnknown factKind = iota
	factValue
	factRef
)

type fact struct {
	kind  factKind
	value mir.Immediate
	ref   mir.Cell
}

func (a fact) equal(b fact) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case factValue:
		return a.value == b.value
	case factRef:
		return a.ref == b.ref
	default:
		return true
	}
}

// store is the propagator's abstract state: cell -> {Value(n) | Ref(other) | unknown}.
// It is deliberately conservative: writing to a cell invalidates its
// entire reverse-reference tree rather than rewriting aliases in
// place (spec §9, "equivalence-class facts").
type store struct {
	facts map[mir.Cell]fact
}

func newStore() *store {
	return &store{facts: make(map[mir.Cell]fact)}
}

func (s *store) clone() *store {
	return &store{facts: maps.Clone(s.facts)}
}

// set writes fact f for c, first invalidating every transitive Ref
// chain pointing at c (spec §4.2).
func (s *store) set(c mir.Cell, f fact) {
	s.invalidate(c)
	s.facts[c] = f
}

// drop removes any fact for c, invalidating its reverse-reference
// tree the same way set would, but without installing a replacement
// (used by Loop's conservative writes(body) drop, spec §4.2).
func (s *store) drop(c mir.Cell) {
	s.invalidate(c)
	delete(s.facts, c)
}

// invalidate removes every cell k whose fact is Ref(c), recursing for
// cells pointing at such k. It does not touch c's own fact.
func (s *store) invalidate(c mir.Cell) {
	var dependents []mir.Cell
	for k, f := range s.facts {
		if f.kind == factRef && f.ref == c {
			dependents = append(dependents, k)
		}
	}
	for _, k := range dependents {
		delete(s.facts, k)
		s.invalidate(k)
	}
}

// flat follows Ref links to the deepest non-Ref fact, returning the
// terminal Ref (pointing at the last cell in the chain) if the chain
// bottoms out at an unknown cell (spec §4.2 get_flat).
func (s *store) flat(c mir.Cell) fact {
	seen := map[mir.Cell]bool{}
	cur := c
	for {
		if seen[cur] {
			return fact{kind: factRef, ref: cur}
		}
		seen[cur] = true
		f, ok := s.facts[cur]
		if !ok {
			return fact{kind: factRef, ref: cur}
		}
		if f.kind != factRef {
			return f
		}
		cur = f.ref
	}
}

// value follows Ref links to return a concrete immediate, or nothing
// (spec §4.2 get_value).
func (s *store) value(c mir.Cell) (mir.Immediate, bool) {
	f := s.flat(c)
	if f.kind == factValue {
		return f.value, true
	}
	return 0, false
}

// merge is the intersection used at the join of an If0's two arms or
// a Match's arms: a fact survives only if both sides agree exactly
// (spec §4.2).
func merge(a, b *store) *store {
	out := newStore()
	for c, fa := range a.facts {
		if fb, ok := b.facts[c]; ok && fa.equal(fb) {
			out.facts[c] = fa
		}
	}
	return out
}

// mergeAll folds merge across any number of stores (used for Match's
// multi-arm join); zero stores merge to the empty (fully unknown) store.
func mergeAll(stores []*store) *store {
	if len(stores) == 0 {
		return newStore()
	}
	out := stores[0]
	for _, s := range stores[1:] {
		out = merge(out, s)
	}
	return out
}
