package points

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRecorder counts calls and fails on demand.
type fakeRecorder struct {
	mu          sync.Mutex
	addCalls    int
	deleteCalls int
	addErr      error
	deleteErr   error
	block       chan struct{} // when set, AddPoint waits until closed
}

func (f *fakeRecorder) AddPoint(ctx context.Context, childID int64, userID string) error {
	f.mu.Lock()
	f.addCalls++
	block := f.block
	err := f.addErr
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakeRecorder) DeletePoint(ctx context.Context, childID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeRecorder) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls, f.deleteCalls
}

func TestAddAtCeilingIsNoOp(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)
	ledger.Seed(map[int64]int{7: MaxPerChild})

	if err := ledger.Add(context.Background(), 7, "42"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if got := ledger.Count(7); got != MaxPerChild {
		t.Errorf("Count(7) = %d, want %d", got, MaxPerChild)
	}
	if adds, _ := recorder.calls(); adds != 0 {
		t.Errorf("AddPoint called %d times at ceiling, want 0", adds)
	}
}

func TestRemoveAtZeroIsNoOp(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)

	if err := ledger.Remove(context.Background(), 7); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if got := ledger.Count(7); got != 0 {
		t.Errorf("Count(7) = %d, want 0", got)
	}
	if _, deletes := recorder.calls(); deletes != 0 {
		t.Errorf("DeletePoint called %d times at zero, want 0", deletes)
	}
}

func TestAddWithoutSession(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)

	err := ledger.Add(context.Background(), 7, "")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Add() error = %v, want ErrNoSession", err)
	}
	if got := ledger.Count(7); got != 0 {
		t.Errorf("Count(7) = %d, want 0", got)
	}
	if adds, _ := recorder.calls(); adds != 0 {
		t.Errorf("AddPoint called %d times without session, want 0", adds)
	}
}

func TestAddRollsBackOnFailure(t *testing.T) {
	backendErr := errors.New("limite diário atingido")
	recorder := &fakeRecorder{addErr: backendErr}
	ledger := NewLedger(recorder)
	ledger.Seed(map[int64]int{7: 2})

	err := ledger.Add(context.Background(), 7, "42")
	if !errors.Is(err, backendErr) {
		t.Fatalf("Add() error = %v, want wrapped backend error", err)
	}

	if got := ledger.Count(7); got != 2 {
		t.Errorf("Count(7) after rollback = %d, want 2", got)
	}
}

func TestAddRollbackFloorsAtZero(t *testing.T) {
	recorder := &fakeRecorder{addErr: errors.New("boom")}
	ledger := NewLedger(recorder)

	_ = ledger.Add(context.Background(), 7, "42")

	if got := ledger.Count(7); got != 0 {
		t.Errorf("Count(7) = %d, want 0", got)
	}
}

func TestRemoveRestoresOnFailure(t *testing.T) {
	recorder := &fakeRecorder{deleteErr: errors.New("boom")}
	ledger := NewLedger(recorder)
	ledger.Seed(map[int64]int{7: 3})

	if err := ledger.Remove(context.Background(), 7); err == nil {
		t.Fatal("Remove() error = nil, want error")
	}

	if got := ledger.Count(7); got != 3 {
		t.Errorf("Count(7) after restore = %d, want 3", got)
	}
}

func TestAddTriggersConfirmHook(t *testing.T) {
	var confirmed atomic.Int32
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder, WithConfirmHook(func() { confirmed.Add(1) }))

	if err := ledger.Add(context.Background(), 7, "42"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if confirmed.Load() != 1 {
		t.Errorf("confirm hook ran %d times, want 1", confirmed.Load())
	}

	// failures must not trigger a reload
	recorder.mu.Lock()
	recorder.addErr = errors.New("boom")
	recorder.mu.Unlock()
	_ = ledger.Add(context.Background(), 7, "42")
	if confirmed.Load() != 1 {
		t.Errorf("confirm hook ran after failure, count = %d", confirmed.Load())
	}
}

func TestRapidClicksNeverExceedCeiling(t *testing.T) {
	block := make(chan struct{})
	recorder := &fakeRecorder{block: block}
	ledger := NewLedger(recorder)
	ledger.Seed(map[int64]int{7: 3})

	// three clicks racing while the network is slower than the UI
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ledger.Add(context.Background(), 7, "42")
		}()
	}

	// let the goroutines hit the ceiling check before any request settles
	time.Sleep(50 * time.Millisecond)
	if got := ledger.Count(7); got != MaxPerChild {
		t.Errorf("Count(7) mid-flight = %d, want %d", got, MaxPerChild)
	}

	close(block)
	wg.Wait()

	if got := ledger.Count(7); got != MaxPerChild {
		t.Errorf("Count(7) = %d, want %d", got, MaxPerChild)
	}
	if adds, _ := recorder.calls(); adds != 1 {
		t.Errorf("AddPoint called %d times, want 1", adds)
	}
}

func TestAnimationFlagClearsAfterWindow(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)

	if err := ledger.Add(context.Background(), 7, "42"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !ledger.Animating(7) {
		t.Error("Animating(7) = false right after Add")
	}

	deadline := time.Now().Add(2 * time.Second)
	for ledger.Animating(7) {
		if time.Now().After(deadline) {
			t.Fatal("animation flag never cleared")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSeedDoesNotOverwriteTouchedCounts(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)

	if err := ledger.Add(context.Background(), 7, "42"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ledger.Seed(map[int64]int{7: 0, 9: 2})

	if got := ledger.Count(7); got != 1 {
		t.Errorf("Count(7) = %d, want 1 (session value kept)", got)
	}
	if got := ledger.Count(9); got != 2 {
		t.Errorf("Count(9) = %d, want 2 (seeded)", got)
	}
}

func TestResetDropsOverlay(t *testing.T) {
	recorder := &fakeRecorder{}
	ledger := NewLedger(recorder)
	ledger.Seed(map[int64]int{7: 2, 9: 1})

	ledger.Reset()

	if counts := ledger.Counts(); len(counts) != 0 {
		t.Errorf("Counts() after Reset = %v, want empty", counts)
	}
}
