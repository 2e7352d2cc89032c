package objectspace

import "github.com/edirooss/objectspace/pkg/objectspace/ordered"

// domain tags which of the four scalar indexer implementations a path is
// bound to, once the first value at that path has fixed it.
type domain int

const (
	domainInt domain = iota
	domainFloat
	domainBool
	domainString
)

// pathIndex is the per-path secondary index: a bucket of slot ids keyed by
// scalar value. It's implemented once, generically, over the concrete
// scalar type (scalarIndex[K]), rather than as four hand-duplicated
// int/float/bool/string containers.
//
// The indexer as a whole is a flat map[path]pathIndex rather than a Branch
// tree mirroring arbitrary nesting depth: Canonicalize+flatten run before a
// value ever reaches the indexer, so by the time insert/remove see a value,
// every indexable field already lives at a top-level dotted path (or at
// path "" for a scalar-typed write with no fields at all). A field left
// as a nested Object after flatten (3+ levels deep, see codec.go) simply
// isn't a scalar at its dotted path and is skipped, matching the "Array and
// Object leaves are not indexed" rule.
type pathIndex interface {
	domain() domain
	insertSlot(v Value, id uint64) error
	removeSlot(v Value, id uint64)
	lookupEq(v Value) (uint64, bool, error)
	lookupAllEq(v Value) ([]uint64, error)
	lookupRange(r valueRange) (uint64, bool, error)
	lookupAllRange(r valueRange) ([]uint64, error)
}

// scalarIndex is the one generic implementation behind all four domains.
// extract pulls the domain-typed key out of a Value, returning ok=false if
// v isn't of this domain.
type scalarIndex[K comparable] struct {
	tag     domain
	m       *ordered.Map[K, *ordered.Set[uint64]]
	extract func(Value) (K, bool)
}

func newScalarIndex[K comparable](tag domain, less func(a, b K) bool, extract func(Value) (K, bool)) *scalarIndex[K] {
	return &scalarIndex[K]{tag: tag, m: ordered.NewMap[K, *ordered.Set[uint64]](less), extract: extract}
}

func (s *scalarIndex[K]) domain() domain { return s.tag }

func (s *scalarIndex[K]) insertSlot(v Value, id uint64) error {
	k, ok := s.extract(v)
	if !ok {
		return ErrDomainMismatch
	}
	set, exists := s.m.Get(k)
	if !exists {
		set = ordered.NewSet[uint64]()
		s.m.Upsert(k, set)
	}
	set.Add(id)
	return nil
}

func (s *scalarIndex[K]) removeSlot(v Value, id uint64) {
	k, ok := s.extract(v)
	if !ok {
		return
	}
	set, exists := s.m.Get(k)
	if !exists {
		return
	}
	set.Remove(id)
	if set.Len() == 0 {
		s.m.Delete(k)
	}
}

func (s *scalarIndex[K]) lookupEq(v Value) (uint64, bool, error) {
	k, ok := s.extract(v)
	if !ok {
		return 0, false, ErrDomainMismatch
	}
	set, exists := s.m.Get(k)
	if !exists {
		return 0, false, nil
	}
	return set.First()
}

func (s *scalarIndex[K]) lookupAllEq(v Value) ([]uint64, error) {
	k, ok := s.extract(v)
	if !ok {
		return nil, ErrDomainMismatch
	}
	set, exists := s.m.Get(k)
	if !exists {
		return nil, nil
	}
	return set.All(), nil
}

func (s *scalarIndex[K]) lookupRange(r valueRange) (uint64, bool, error) {
	ids, err := s.lookupAllRange(r)
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

func (s *scalarIndex[K]) lookupAllRange(r valueRange) ([]uint64, error) {
	var lo, hi K
	var hasLo, hasHi bool
	if r.hasLower {
		k, ok := s.extract(r.lower)
		if !ok {
			return nil, ErrDomainMismatch
		}
		lo, hasLo = k, true
	}
	if r.hasUpper {
		k, ok := s.extract(r.upper)
		if !ok {
			return nil, ErrDomainMismatch
		}
		hi, hasHi = k, true
	}

	startOK := func(k K) bool {
		if !hasLo {
			return true
		}
		if r.lowerInclusive {
			return !s.m.Less(k, lo) // k >= lo
		}
		return s.m.Less(lo, k) // k > lo
	}
	stopOK := func(k K) bool {
		if !hasHi {
			return true
		}
		if r.upperInclusive {
			return !s.m.Less(hi, k) // k <= hi
		}
		return s.m.Less(k, hi) // k < hi
	}

	from := s.m.LowerBoundIndex(startOK)
	var out []uint64
	s.m.Ascend(from, stopOK, func(_ K, set *ordered.Set[uint64]) {
		out = append(out, set.All()...)
	})
	return out, nil
}

func extractInt(v Value) (int64, bool) {
	if v.Kind == KindInt {
		return v.Int, true
	}
	return 0, false
}

func extractBool(v Value) (bool, bool) {
	if v.Kind == KindBool {
		return v.Bool, true
	}
	return false, false
}

func extractString(v Value) (string, bool) {
	if v.Kind == KindString {
		return v.Str, true
	}
	return "", false
}

func extractFinite(v Value) (ordered.Finite, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	f, err := ordered.NewFinite(v.Float)
	if err != nil {
		return 0, false
	}
	return f, true
}

func lessBool(a, b bool) bool { return !a && b }

func newPathIndex(tag domain) pathIndex {
	switch tag {
	case domainInt:
		return newScalarIndex[int64](domainInt, func(a, b int64) bool { return a < b }, extractInt)
	case domainFloat:
		return newScalarIndex[ordered.Finite](domainFloat, ordered.Finite.Less, extractFinite)
	case domainBool:
		return newScalarIndex[bool](domainBool, lessBool, extractBool)
	case domainString:
		return newScalarIndex[string](domainString, func(a, b string) bool { return a < b }, extractString)
	default:
		panic("objectspace: unknown domain")
	}
}

func domainOf(k Kind) (domain, bool) {
	switch k {
	case KindInt:
		return domainInt, true
	case KindFloat:
		return domainFloat, true
	case KindBool:
		return domainBool, true
	case KindString:
		return domainString, true
	default:
		return 0, false
	}
}

// indexableLeaf is one (path, scalar value) pair extracted from an
// already-flattened Value.
type indexableLeaf struct {
	Path string
	Val  Value
}

// indexableLeaves returns every scalar leaf in v addressable for indexing.
// A scalar root value indexes at path "". An Object's direct scalar fields
// index at their (already-dotted) key; Array and Object fields are skipped.
func indexableLeaves(v Value) []indexableLeaf {
	switch v.Kind {
	case KindInt, KindFloat, KindBool, KindString:
		return []indexableLeaf{{Path: "", Val: v}}
	case KindObject:
		out := make([]indexableLeaf, 0, len(v.Obj))
		for _, f := range v.Obj {
			if f.Value.Kind.IsScalar() {
				out = append(out, indexableLeaf{Path: f.Key, Val: f.Value})
			}
		}
		return out
	default:
		return nil
	}
}
