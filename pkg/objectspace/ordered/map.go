// Package ordered provides generic, slice-backed ordered containers used to
// index scalar values. Map keeps its entries in ascending key order using a
// sort.Search-driven insert; Set keeps its members in insertion order. Both
// are generic rather than hand-duplicated once per scalar type.
package ordered

import "sort"

// Map is an ordered key/value map keyed by a caller-supplied comparator
// rather than a constrained key type, so it can back domains (bool, string,
// int64, Finite) that don't share a single ordering trait.
//
// Mutable state (keys/vals/pos) is not synchronized; callers needing
// concurrent access must provide their own locking.
type Map[K comparable, V any] struct {
	less func(a, b K) bool
	keys []K
	vals []V
	pos  map[K]int
}

// NewMap constructs an empty Map ordered by less.
func NewMap[K comparable, V any](less func(a, b K) bool) *Map[K, V] {
	return &Map[K, V]{less: less, pos: make(map[K]int)}
}

// Less exposes the map's comparator so callers can build compatible
// range predicates without duplicating the ordering rule.
func (m *Map[K, V]) Less(a, b K) bool { return m.less(a, b) }

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.keys) }

// Get returns (value, true) if k is present.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if idx, ok := m.pos[k]; ok {
		return m.vals[idx], true
	}
	var zero V
	return zero, false
}

// Upsert inserts k/v, or overwrites the value if k is already present.
//
// Strategy mirrors objectstore.Upsert: overwrite in place, append when k
// sorts after the current maximum, otherwise binary-search for the
// insertion point and shift the tail.
func (m *Map[K, V]) Upsert(k K, v V) {
	if idx, exists := m.pos[k]; exists {
		m.vals[idx] = v
		return
	}

	if n := len(m.keys); n == 0 || m.less(m.keys[n-1], k) {
		m.keys = append(m.keys, k)
		m.vals = append(m.vals, v)
		m.pos[k] = n
		return
	}

	idx := sort.Search(len(m.keys), func(i int) bool { return !m.less(m.keys[i], k) })

	var zeroK K
	m.keys = append(m.keys, zeroK)
	copy(m.keys[idx+1:], m.keys[idx:])
	m.keys[idx] = k

	var zeroV V
	m.vals = append(m.vals, zeroV)
	copy(m.vals[idx+1:], m.vals[idx:])
	m.vals[idx] = v

	for i := idx; i < len(m.keys); i++ {
		m.pos[m.keys[i]] = i
	}
}

// Delete removes k if present; no-op otherwise.
func (m *Map[K, V]) Delete(k K) {
	idx, ok := m.pos[k]
	if !ok {
		return
	}

	copy(m.keys[idx:], m.keys[idx+1:])
	m.keys = m.keys[:len(m.keys)-1]

	copy(m.vals[idx:], m.vals[idx+1:])
	m.vals = m.vals[:len(m.vals)-1]

	delete(m.pos, k)
	for i := idx; i < len(m.keys); i++ {
		m.pos[m.keys[i]] = i
	}
}

// First returns the smallest key and its value, if any.
func (m *Map[K, V]) First() (K, V, bool) {
	var zk K
	var zv V
	if len(m.keys) == 0 {
		return zk, zv, false
	}
	return m.keys[0], m.vals[0], true
}

// LowerBoundIndex returns the first index i in ascending key order for
// which ok(keys[i]) holds, assuming ok is monotonic (false...false,
// true...true) over the ascending sequence. Used to seed range scans.
func (m *Map[K, V]) LowerBoundIndex(ok func(k K) bool) int {
	return sort.Search(len(m.keys), func(i int) bool { return ok(m.keys[i]) })
}

// Ascend visits (key, value) pairs starting at index from, in ascending
// order, stopping at the first key for which while returns false.
func (m *Map[K, V]) Ascend(from int, while func(k K) bool, visit func(k K, v V)) {
	for i := from; i < len(m.keys); i++ {
		if !while(m.keys[i]) {
			return
		}
		visit(m.keys[i], m.vals[i])
	}
}
