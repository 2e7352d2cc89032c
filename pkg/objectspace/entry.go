package objectspace

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// slot is one stored value, tagged with a monotonically assigned id used
// only to resolve index buckets back to their value and to support
// removal; ids are never reused within an Entry's lifetime.
type slot struct {
	id    uint64
	value Value
}

// Entry is the per-type partition of a Space: an ordered list of slots plus
// a secondary index per indexable dotted path, guarded by a single mutex,
// with a condition variable broadcast on every insert so blocking
// read/take calls can recheck their predicate.
//
// The mutex/cond pairing and broadcast-on-write, loop-recheck-on-wake
// protocol mirrors slotPool's acquire/release/updateLimit shape; slots and
// their positional bookkeeping mirror objectstore's ids/vals/pos slices.
//
// Each Entry owns its own path indices, so the same dotted path bound to
// different scalar domains in Entries of different types never interacts.
type Entry struct {
	key TypeKey
	log *zap.Logger

	mu   sync.Mutex
	cond *sync.Cond

	nextSlot    uint64
	everWritten bool
	slots       []slot
	slotPos     map[uint64]int
	paths       map[string]pathIndex
}

func newEntry(key TypeKey, log *zap.Logger) *Entry {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Entry{
		key:     key,
		log:     log,
		slotPos: make(map[uint64]int),
		paths:   make(map[string]pathIndex),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// insert appends v as a new slot, indexing every scalar leaf it carries,
// and wakes any goroutine blocked in a Read or Take against this Entry.
//
// Indexing happens in two passes so a rejected write never leaves a
// partial id behind in some but not all of its indexed paths: the first
// pass only checks each leaf's domain against its path's existing index
// (if any), mutating nothing; only once every leaf has passed does the
// second pass actually insert into the indices and append the slot. A
// single struct field can legitimately carry a different domain across
// two writes of the same type (e.g. a float64 field serializes as an
// integer-shaped number on one write and a fractional one on another),
// so this isn't a can't-happen case — it's ordinary, spec-compliant data.
func (e *Entry) insert(v Value) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	leaves := indexableLeaves(v)
	if err := e.validateLeafDomains(leaves); err != nil {
		return 0, err
	}

	id := e.nextSlot
	e.nextSlot++

	for _, lv := range leaves {
		idx, err := e.pathIndexFor(lv.Path, lv.Val)
		if err != nil {
			return 0, err
		}
		if err := idx.insertSlot(lv.Val, id); err != nil {
			return 0, err
		}
	}

	e.slots = append(e.slots, slot{id: id, value: v})
	e.slotPos[id] = len(e.slots) - 1
	e.everWritten = true

	e.log.Debug("objectspace: insert",
		zap.Stringer("type", e.key),
		zap.Uint64("slot_id", id),
		zap.Int("indexed_paths", len(leaves)),
	)

	e.cond.Broadcast()
	return id, nil
}

// validateLeafDomains checks, without mutating anything, that every leaf's
// domain matches its path's already-established index domain (a path with
// no index yet always passes, since insert will create one bound to this
// leaf's domain). Assumes e.mu is held.
func (e *Entry) validateLeafDomains(leaves []indexableLeaf) error {
	for _, lv := range leaves {
		tag, ok := domainOf(lv.Val.Kind)
		if !ok {
			return ErrDomainMismatch
		}
		if existing, ok := e.paths[lv.Path]; ok && existing.domain() != tag {
			return ErrDomainMismatch
		}
	}
	return nil
}

// pathIndexFor returns the index bound to path, creating it (bound to v's
// domain) on first use. Assumes e.mu is held.
func (e *Entry) pathIndexFor(path string, v Value) (pathIndex, error) {
	if existing, ok := e.paths[path]; ok {
		return existing, nil
	}
	tag, ok := domainOf(v.Kind)
	if !ok {
		return nil, ErrDomainMismatch
	}
	idx := newPathIndex(tag)
	e.paths[path] = idx
	return idx, nil
}

// lookupPath returns the index bound to path, or ErrFieldNotFound if
// nothing has ever been written there. Assumes e.mu is held.
func (e *Entry) lookupPath(path string) (pathIndex, error) {
	idx, ok := e.paths[path]
	if !ok {
		return nil, ErrFieldNotFound
	}
	return idx, nil
}

// lookupPathWait is lookupPath's blocking-predicate counterpart: a path
// that has never been indexed because T itself has never been written
// simply hasn't arrived yet (the blocking query should keep waiting, same
// as any other miss), whereas a path that's absent despite other T values
// already having been written is a genuine field-path error. Assumes e.mu
// is held.
func (e *Entry) lookupPathWait(path string) (pathIndex, bool, error) {
	idx, ok := e.paths[path]
	if ok {
		return idx, true, nil
	}
	if !e.everWritten {
		return nil, false, nil
	}
	return nil, false, ErrFieldNotFound
}

// valueForID returns the value stored at id. Assumes e.mu is held and id is
// present.
func (e *Entry) valueForID(id uint64) Value {
	return e.slots[e.slotPos[id]].value
}

// removeByID deletes the slot with id, removing it from every index bucket
// it was inserted into, and compacts the slots slice. Assumes e.mu is
// held.
func (e *Entry) removeByID(id uint64) (Value, bool) {
	idx, ok := e.slotPos[id]
	if !ok {
		return Value{}, false
	}
	v := e.slots[idx].value
	for _, lv := range indexableLeaves(v) {
		if pi, ok := e.paths[lv.Path]; ok {
			pi.removeSlot(lv.Val, id)
		}
	}

	copy(e.slots[idx:], e.slots[idx+1:])
	e.slots = e.slots[:len(e.slots)-1]
	delete(e.slotPos, id)
	for i := idx; i < len(e.slots); i++ {
		e.slotPos[e.slots[i].id] = i
	}

	e.log.Debug("objectspace: remove", zap.Stringer("type", e.key), zap.Uint64("slot_id", id))
	return v, true
}

// --- non-blocking reads ---

func (e *Entry) peekAny() (Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.slots) == 0 {
		return Value{}, false
	}
	return e.slots[0].value, true
}

func (e *Entry) peekAll() []Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Value, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.value
	}
	return out
}

func (e *Entry) peekByKey(path string, key Value) (Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return Value{}, false, err
	}
	id, ok, err := pi.lookupEq(key)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return e.valueForID(id), true, nil
}

func (e *Entry) peekAllByKey(path string, key Value) ([]Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return nil, err
	}
	ids, err := pi.lookupAllEq(key)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.valueForID(id))
	}
	return out, nil
}

func (e *Entry) peekByRange(path string, r valueRange) (Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return Value{}, false, err
	}
	id, ok, err := pi.lookupRange(r)
	if err != nil || !ok {
		return Value{}, false, err
	}
	return e.valueForID(id), true, nil
}

func (e *Entry) peekAllByRange(path string, r valueRange) ([]Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return nil, err
	}
	ids, err := pi.lookupAllRange(r)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.valueForID(id))
	}
	return out, nil
}

// --- non-blocking removal ---

func (e *Entry) removeAny() (Value, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.slots) == 0 {
		return Value{}, false
	}
	return e.removeByID(e.slots[0].id)
}

func (e *Entry) removeAll() []Value {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]uint64, len(e.slots))
	for i, s := range e.slots {
		ids[i] = s.id
	}
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		if v, ok := e.removeByID(id); ok {
			out = append(out, v)
		}
	}
	return out
}

func (e *Entry) removeByKey(path string, key Value) (Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return Value{}, false, err
	}
	id, ok, err := pi.lookupEq(key)
	if err != nil || !ok {
		return Value{}, false, err
	}
	v, _ := e.removeByID(id)
	return v, true, nil
}

func (e *Entry) removeAllByKey(path string, key Value) ([]Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return nil, err
	}
	ids, err := pi.lookupAllEq(key)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		if v, ok := e.removeByID(id); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (e *Entry) removeByRange(path string, r valueRange) (Value, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return Value{}, false, err
	}
	id, ok, err := pi.lookupRange(r)
	if err != nil || !ok {
		return Value{}, false, err
	}
	v, _ := e.removeByID(id)
	return v, true, nil
}

func (e *Entry) removeAllByRange(path string, r valueRange) ([]Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pi, err := e.lookupPath(path)
	if err != nil {
		return nil, err
	}
	ids, err := pi.lookupAllRange(r)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(ids))
	for _, id := range ids {
		if v, ok := e.removeByID(id); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- blocking reads/takes ---

// waitFor blocks, re-evaluating predicate under e.mu each time it's woken,
// until predicate reports a match, returns an error, or ctx is done.
// Apart from the cancellation watcher below, broadcasting happens only on
// insert, so wake-ups never reflect removal;
// a woken waiter that finds the predicate still false simply waits again.
//
// sync.Cond has no native context support, so when ctx can actually be
// cancelled (its Done channel is non-nil) a watcher goroutine is started to
// translate cancellation into a Broadcast that un-blocks the Wait loop;
// the watcher exits via the done channel as soon as waitFor returns.
func (e *Entry) waitFor(ctx context.Context, predicate func() (Value, bool, error)) (Value, error) {
	var watcherDone chan struct{}
	if ctx != nil && ctx.Done() != nil {
		watcherDone = make(chan struct{})
		defer close(watcherDone)
		go func() {
			select {
			case <-ctx.Done():
				e.mu.Lock()
				e.cond.Broadcast()
				e.mu.Unlock()
			case <-watcherDone:
			}
		}()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		v, ok, err := predicate()
		if err != nil {
			return Value{}, err
		}
		if ok {
			return v, nil
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				return Value{}, context.Cause(ctx)
			default:
			}
		}
		e.cond.Wait()
	}
}

func (e *Entry) waitAny(ctx context.Context) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		if len(e.slots) == 0 {
			return Value{}, false, nil
		}
		return e.slots[0].value, true, nil
	})
}

func (e *Entry) waitByKey(ctx context.Context, path string, key Value) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		pi, indexed, err := e.lookupPathWait(path)
		if err != nil || !indexed {
			return Value{}, false, err
		}
		id, ok, err := pi.lookupEq(key)
		if err != nil || !ok {
			return Value{}, false, err
		}
		return e.valueForID(id), true, nil
	})
}

func (e *Entry) waitByRange(ctx context.Context, path string, r valueRange) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		pi, indexed, err := e.lookupPathWait(path)
		if err != nil || !indexed {
			return Value{}, false, err
		}
		id, ok, err := pi.lookupRange(r)
		if err != nil || !ok {
			return Value{}, false, err
		}
		return e.valueForID(id), true, nil
	})
}

func (e *Entry) waitTakeAny(ctx context.Context) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		if len(e.slots) == 0 {
			return Value{}, false, nil
		}
		v, _ := e.removeByID(e.slots[0].id)
		return v, true, nil
	})
}

func (e *Entry) waitTakeByKey(ctx context.Context, path string, key Value) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		pi, indexed, err := e.lookupPathWait(path)
		if err != nil || !indexed {
			return Value{}, false, err
		}
		id, ok, err := pi.lookupEq(key)
		if err != nil || !ok {
			return Value{}, false, err
		}
		v, _ := e.removeByID(id)
		return v, true, nil
	})
}

func (e *Entry) waitTakeByRange(ctx context.Context, path string, r valueRange) (Value, error) {
	return e.waitFor(ctx, func() (Value, bool, error) {
		pi, indexed, err := e.lookupPathWait(path)
		if err != nil || !indexed {
			return Value{}, false, err
		}
		id, ok, err := pi.lookupRange(r)
		if err != nil || !ok {
			return Value{}, false, err
		}
		v, _ := e.removeByID(id)
		return v, true, nil
	})
}
