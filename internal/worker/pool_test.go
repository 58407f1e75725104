package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	p := NewPool(2, 4)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if got := p.InFlight(); got != 2 {
		t.Fatalf("in flight %d, want 2", got)
	}

	p.Release()
	p.Release()
	if got := p.InFlight(); got != 0 {
		t.Fatalf("in flight %d after release, want 0", got)
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p := NewPool(1, 4)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	acquired := make(chan error, 1)
	go func() { acquired <- p.Acquire(ctx) }()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded with no free slot")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release()
	select {
	case err := <-acquired:
		if err != nil {
			t.Fatalf("acquire after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("acquire did not wake after release")
	}
}

func TestAcquireBusyWhenWaiterCapHit(t *testing.T) {
	p := NewPool(1, 1)
	ctx := context.Background()

	if err := p.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	waiting := make(chan struct{})
	go func() {
		defer wg.Done()
		close(waiting)
		p.Acquire(ctx) // fills the single waiter slot
	}()
	<-waiting
	time.Sleep(20 * time.Millisecond)

	if err := p.Acquire(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("got %v, want ErrBusy", err)
	}

	p.Release()
	wg.Wait()
	p.Release()
}

func TestAcquireHonorsContext(t *testing.T) {
	p := NewPool(1, 4)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}
