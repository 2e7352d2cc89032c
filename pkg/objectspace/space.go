// Package objectspace implements a concurrent, process-local, type-
// partitioned associative store: values are written by type, and read or
// taken back either unconditionally, by exact-field match, or by range over
// a scalar field, blocking when asked to wait for a match that doesn't
// exist yet.
package objectspace

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// Space holds one Entry per distinct Go type ever written to or queried
// from it. Entries are created lazily on first access (a write or any read
// or take) and never removed, so a type's index
// structure (and any waiters blocked on it) stays valid for the lifetime of
// the Space.
//
// Partition lookup (entries.Load) is lock-free; partition creation is
// serialized by sync.Map's own LoadOrStore, the same pattern
// datastore.go uses for its per-key state registry.
type Space struct {
	log     *zap.Logger
	entries sync.Map // reflect.Type -> *Entry
}

// Option configures a Space at construction.
type Option func(*Space)

// WithLogger attaches a *zap.Logger; a nil logger (the default) behaves as
// zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(s *Space) { s.log = log }
}

// NewSpace constructs a ready-to-use, empty Space.
func NewSpace(opts ...Option) *Space {
	s := &Space{log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Space) entryFor(t reflect.Type) *Entry {
	if v, ok := s.entries.Load(t); ok {
		return v.(*Entry)
	}
	e := newEntry(newTypeKey(t), s.log)
	actual, loaded := s.entries.LoadOrStore(t, e)
	if !loaded {
		s.log.Debug("objectspace: partition created", zap.Stringer("type", e.key))
	}
	return actual.(*Entry)
}

// Write canonicalizes v, flattens it, and inserts it into T's partition,
// waking any blocked Read or Take against that partition.
func Write[T any](s *Space, v T) error {
	cv, err := Canonicalize(v)
	if err != nil {
		return err
	}
	flat := flatten(cv)
	e := s.entryFor(typeOf[T]())
	_, err = e.insert(flat)
	return err
}

// decodeInto decodes v into a new T, returning the error from Decode if
// the stored shape doesn't match T (which should not normally happen,
// since only T-shaped values are ever written to T's partition).
func decodeInto[T any](v Value) (T, error) {
	var out T
	err := Decode(v, &out)
	return out, err
}

// TryRead returns the earliest-written, still-present T without removing
// it, or ok=false if T's partition is empty.
func TryRead[T any](s *Space) (T, bool, error) {
	e := s.entryFor(typeOf[T]())
	v, ok := e.peekAny()
	if !ok {
		var zero T
		return zero, false, nil
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// ReadAll returns every currently-present T, earliest-written first.
func ReadAll[T any](s *Space) ([]T, error) {
	e := s.entryFor(typeOf[T]())
	vs := e.peekAll()
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TryReadKey returns the earliest-written T whose field at path equals
// key, without removing it.
func TryReadKey[T any](s *Space, path string, key any) (T, bool, error) {
	var zero T
	kv, err := scalarValue(key)
	if err != nil {
		return zero, false, err
	}
	e := s.entryFor(typeOf[T]())
	v, ok, err := e.peekByKey(path, kv)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// ReadAllKey returns every present T whose field at path equals key.
func ReadAllKey[T any](s *Space, path string, key any) ([]T, error) {
	kv, err := scalarValue(key)
	if err != nil {
		return nil, err
	}
	e := s.entryFor(typeOf[T]())
	vs, err := e.peekAllByKey(path, kv)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TryReadRange returns the smallest-keyed T whose field at path falls
// inside r, without removing it.
func TryReadRange[T any](s *Space, path string, r Range) (T, bool, error) {
	var zero T
	vr, err := resolveRange(r)
	if err != nil {
		return zero, false, err
	}
	e := s.entryFor(typeOf[T]())
	v, ok, err := e.peekByRange(path, vr)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// ReadAllRange returns every present T whose field at path falls inside r,
// ascending by that field.
func ReadAllRange[T any](s *Space, path string, r Range) ([]T, error) {
	vr, err := resolveRange(r)
	if err != nil {
		return nil, err
	}
	e := s.entryFor(typeOf[T]())
	vs, err := e.peekAllByRange(path, vr)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Read blocks until a T is present, returning the earliest-written one
// without removing it, or the ctx error if ctx is done first.
func Read[T any](ctx context.Context, s *Space) (T, error) {
	var zero T
	e := s.entryFor(typeOf[T]())
	v, err := e.waitAny(ctx)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// ReadKey blocks until a T whose field at path equals key is present.
func ReadKey[T any](ctx context.Context, s *Space, path string, key any) (T, error) {
	var zero T
	kv, err := scalarValue(key)
	if err != nil {
		return zero, err
	}
	e := s.entryFor(typeOf[T]())
	v, err := e.waitByKey(ctx, path, kv)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// ReadRange blocks until a T whose field at path falls inside r is
// present.
func ReadRange[T any](ctx context.Context, s *Space, path string, r Range) (T, error) {
	var zero T
	vr, err := resolveRange(r)
	if err != nil {
		return zero, err
	}
	e := s.entryFor(typeOf[T]())
	v, err := e.waitByRange(ctx, path, vr)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// TryTake removes and returns the earliest-written T, or ok=false if T's
// partition is empty.
func TryTake[T any](s *Space) (T, bool, error) {
	e := s.entryFor(typeOf[T]())
	v, ok := e.removeAny()
	if !ok {
		var zero T
		return zero, false, nil
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// TakeAll removes and returns every currently-present T, earliest-written
// first.
func TakeAll[T any](s *Space) ([]T, error) {
	e := s.entryFor(typeOf[T]())
	vs := e.removeAll()
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TryTakeKey removes and returns the earliest-written T whose field at
// path equals key.
func TryTakeKey[T any](s *Space, path string, key any) (T, bool, error) {
	var zero T
	kv, err := scalarValue(key)
	if err != nil {
		return zero, false, err
	}
	e := s.entryFor(typeOf[T]())
	v, ok, err := e.removeByKey(path, kv)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// TakeAllKey removes and returns every present T whose field at path
// equals key.
func TakeAllKey[T any](s *Space, path string, key any) ([]T, error) {
	kv, err := scalarValue(key)
	if err != nil {
		return nil, err
	}
	e := s.entryFor(typeOf[T]())
	vs, err := e.removeAllByKey(path, kv)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TryTakeRange removes and returns the smallest-keyed T whose field at
// path falls inside r.
func TryTakeRange[T any](s *Space, path string, r Range) (T, bool, error) {
	var zero T
	vr, err := resolveRange(r)
	if err != nil {
		return zero, false, err
	}
	e := s.entryFor(typeOf[T]())
	v, ok, err := e.removeByRange(path, vr)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := decodeInto[T](v)
	return out, true, err
}

// TakeAllRange removes and returns every present T whose field at path
// falls inside r, ascending by that field.
func TakeAllRange[T any](s *Space, path string, r Range) ([]T, error) {
	vr, err := resolveRange(r)
	if err != nil {
		return nil, err
	}
	e := s.entryFor(typeOf[T]())
	vs, err := e.removeAllByRange(path, vr)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		t, err := decodeInto[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Take blocks until a T is present, removing and returning the
// earliest-written one, or the ctx error if ctx is done first.
func Take[T any](ctx context.Context, s *Space) (T, error) {
	var zero T
	e := s.entryFor(typeOf[T]())
	v, err := e.waitTakeAny(ctx)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// TakeKey blocks until a T whose field at path equals key is present,
// removing and returning it.
func TakeKey[T any](ctx context.Context, s *Space, path string, key any) (T, error) {
	var zero T
	kv, err := scalarValue(key)
	if err != nil {
		return zero, err
	}
	e := s.entryFor(typeOf[T]())
	v, err := e.waitTakeByKey(ctx, path, kv)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}

// TakeRange blocks until a T whose field at path falls inside r is
// present, removing and returning it.
func TakeRange[T any](ctx context.Context, s *Space, path string, r Range) (T, error) {
	var zero T
	vr, err := resolveRange(r)
	if err != nil {
		return zero, err
	}
	e := s.entryFor(typeOf[T]())
	v, err := e.waitTakeByRange(ctx, path, vr)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](v)
}
