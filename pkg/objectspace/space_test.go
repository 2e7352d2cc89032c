package objectspace

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type account struct {
	ID      int64   `json:"id"`
	Owner   string  `json:"owner"`
	Balance float64 `json:"balance"`
	Active  bool    `json:"active"`
}

func TestWriteTryReadTryTake(t *testing.T) {
	s := NewSpace()
	a := account{ID: 1, Owner: "alice", Balance: 10.5, Active: true}
	if err := Write(s, a); err != nil {
		t.Fatalf("Write() err = %v", err)
	}

	got, ok, err := TryRead[account](s)
	if err != nil || !ok {
		t.Fatalf("TryRead() = (%+v, %v, %v), want ok", got, ok, err)
	}
	if diff := cmp.Diff(a, got); diff != "" {
		t.Fatalf("TryRead() mismatch (-want +got):\n%s", diff)
	}

	// Read doesn't remove; Take does.
	taken, ok, err := TryTake[account](s)
	if err != nil || !ok {
		t.Fatalf("TryTake() = (%+v, %v, %v), want ok", taken, ok, err)
	}
	if diff := cmp.Diff(a, taken); diff != "" {
		t.Fatalf("TryTake() mismatch (-want +got):\n%s", diff)
	}

	if _, ok, _ := TryRead[account](s); ok {
		t.Fatalf("TryRead() after TryTake ok = true, want false")
	}
}

func TestTryReadOnEmptyTypeIsAbsentNotError(t *testing.T) {
	s := NewSpace()
	_, ok, err := TryRead[account](s)
	if err != nil {
		t.Fatalf("TryRead() on never-written type err = %v, want nil", err)
	}
	if ok {
		t.Fatalf("TryRead() on never-written type ok = true, want false")
	}
}

func TestByKeyExactMatch(t *testing.T) {
	s := NewSpace()
	Write(s, account{ID: 1, Owner: "alice", Balance: 5, Active: true})
	Write(s, account{ID: 2, Owner: "bob", Balance: 7, Active: false})

	got, ok, err := TryReadKey[account](s, "owner", "bob")
	if err != nil || !ok {
		t.Fatalf("TryReadKey() = (%+v, %v, %v), want ok", got, ok, err)
	}
	if got.ID != 2 {
		t.Fatalf("TryReadKey() ID = %d, want 2", got.ID)
	}

	taken, ok, err := TryTakeKey[account](s, "id", int64(1))
	if err != nil || !ok {
		t.Fatalf("TryTakeKey() = (%+v, %v, %v), want ok", taken, ok, err)
	}
	if taken.Owner != "alice" {
		t.Fatalf("TryTakeKey() Owner = %q, want alice", taken.Owner)
	}

	if _, ok, _ := TryReadKey[account](s, "id", int64(1)); ok {
		t.Fatalf("TryReadKey() after take ok = true, want false")
	}
}

func TestByKeyUnknownFieldReturnsError(t *testing.T) {
	s := NewSpace()
	Write(s, account{ID: 1, Owner: "alice", Balance: 5, Active: true})

	_, _, err := TryReadKey[account](s, "nickname", "al")
	if !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("TryReadKey(unknown field) err = %v, want ErrFieldNotFound", err)
	}
}

func TestReadAllRangeAscending(t *testing.T) {
	s := NewSpace()
	Write(s, account{ID: 1, Owner: "a", Balance: 30, Active: true})
	Write(s, account{ID: 2, Owner: "b", Balance: 10, Active: true})
	Write(s, account{ID: 3, Owner: "c", Balance: 20, Active: true})

	got, err := ReadAllRange[account](s, "balance", Between(10.0, 30.0))
	if err != nil {
		t.Fatalf("ReadAllRange() err = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAllRange() len = %d, want 2 (upper bound exclusive)", len(got))
	}
	if got[0].Balance != 10 || got[1].Balance != 20 {
		t.Fatalf("ReadAllRange() balances = [%v, %v], want ascending [10, 20]", got[0].Balance, got[1].Balance)
	}

	atLeast, err := ReadAllRange[account](s, "balance", AtLeast(20.0))
	if err != nil {
		t.Fatalf("ReadAllRange(AtLeast) err = %v", err)
	}
	if len(atLeast) != 2 {
		t.Fatalf("ReadAllRange(AtLeast(20)) len = %d, want 2", len(atLeast))
	}
}

func TestTakeAllRemovesEverything(t *testing.T) {
	s := NewSpace()
	Write(s, account{ID: 1, Owner: "a"})
	Write(s, account{ID: 2, Owner: "b"})

	got, err := TakeAll[account](s)
	if err != nil {
		t.Fatalf("TakeAll() err = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("TakeAll() len = %d, want 2", len(got))
	}
	remaining, err := ReadAll[account](s)
	if err != nil {
		t.Fatalf("ReadAll() err = %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("ReadAll() after TakeAll len = %d, want 0", len(remaining))
	}
}

func TestTakeBlocksUntilWrite(t *testing.T) {
	s := NewSpace()
	result := make(chan account, 1)
	errc := make(chan error, 1)

	go func() {
		a, err := Take[account](context.Background(), s)
		if err != nil {
			errc <- err
			return
		}
		result <- a
	}()

	time.Sleep(30 * time.Millisecond)
	select {
	case <-result:
		t.Fatalf("Take() returned before any write")
	default:
	}

	if err := Write(s, account{ID: 9, Owner: "zoe"}); err != nil {
		t.Fatalf("Write() err = %v", err)
	}

	select {
	case a := <-result:
		if a.Owner != "zoe" {
			t.Fatalf("Take() Owner = %q, want zoe", a.Owner)
		}
	case err := <-errc:
		t.Fatalf("Take() err = %v", err)
	case <-time.After(time.Second):
		t.Fatalf("Take() never woke up")
	}
}

func TestTakeRespectsContextDeadline(t *testing.T) {
	s := NewSpace()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Take[account](ctx, s)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Take() err = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Take() took %v, want well under 1s", elapsed)
	}
}

func TestWriteRejectsNaN(t *testing.T) {
	type reading struct {
		Value float64 `json:"value"`
	}
	s := NewSpace()
	err := Write(s, reading{Value: math.NaN()})
	if !errors.Is(err, ErrNaN) {
		t.Fatalf("Write(NaN) err = %v, want ErrNaN", err)
	}
}

// TestConcurrentWritersAndReaders drives many goroutines writing and taking
// concurrently against one Space, checking that every written value is
// taken exactly once and none are lost or duplicated.
func TestConcurrentWritersAndReaders(t *testing.T) {
	s := NewSpace()
	const n = 200

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			Write(s, account{ID: int64(i), Owner: "w"})
		}(i)
	}

	seen := make([]bool, n)
	var mu sync.Mutex
	var takers sync.WaitGroup
	takers.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer takers.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			a, err := Take[account](ctx, s)
			if err != nil {
				t.Errorf("Take() err = %v", err)
				return
			}
			mu.Lock()
			if seen[a.ID] {
				t.Errorf("account ID %d taken more than once", a.ID)
			}
			seen[a.ID] = true
			mu.Unlock()
		}()
	}

	wg.Wait()
	takers.Wait()

	for i, ok := range seen {
		if !ok {
			t.Errorf("account ID %d was never taken", i)
		}
	}
}
