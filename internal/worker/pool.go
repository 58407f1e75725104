package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy signals that every completion slot is taken and the waiter cap is
// reached; the relay surfaces it as a 429.
var ErrBusy = errors.New("all completion slots busy")

const defaultMaxWaiters = 16

// Pool bounds the number of in-flight completion calls. The provider round
// trip is the relay's only contended resource, so the pool hands out plain
// slots rather than worker goroutines.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	max     int
	running int
	waiting int
	maxWait int
}

// NewPool creates a pool with the given slot count. maxWaiters <= 0 selects
// the default cap.
func NewPool(maxSlots, maxWaiters int) *Pool {
	if maxSlots <= 0 {
		maxSlots = 1
	}
	if maxWaiters <= 0 {
		maxWaiters = defaultMaxWaiters
	}
	p := &Pool{
		max:     maxSlots,
		maxWait: maxWaiters,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Acquire takes a slot, blocking until one frees, the waiter cap is hit, or
// the context ends.
func (p *Pool) Acquire(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.mu.Unlock()
		p.cond.Broadcast()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running >= p.max && p.waiting >= p.maxWait {
		return ErrBusy
	}

	p.waiting++
	for p.running >= p.max {
		if err := ctx.Err(); err != nil {
			p.waiting--
			return err
		}
		p.cond.Wait()
	}
	p.waiting--
	p.running++
	return nil
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	p.mu.Lock()
	if p.running > 0 {
		p.running--
	}
	p.mu.Unlock()
	p.cond.Signal()
}

// InFlight reports the number of held slots.
func (p *Pool) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
