package stackalloc

import "sync"

// Pool recycles Stack regions of a fixed size, avoiding a syscall on every
// spawn/terminate cycle. Grounded on the original Rust crate's
// FixedsizeStack, which is sized once and reused; here the reuse is
// explicit (a freelist) rather than implicit (the type always being the
// same size), since Go allocators are not parameterized by stack size.
type Pool struct {
	alloc Allocator
	size  uintptr

	mu   sync.Mutex
	free []Stack
}

// NewPool creates a pool that hands out regions of exactly size (rounded up
// by alloc.Allocate), backed by alloc for misses.
func NewPool(alloc Allocator, size uintptr) *Pool {
	if alloc == nil {
		alloc = DefaultAllocator
	}
	if size == 0 {
		size = DefaultSize
	}
	return &Pool{alloc: alloc, size: size}
}

// Get returns a recycled Stack if one is available, else allocates a new one.
func (p *Pool) Get() (Stack, error) {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()
	return p.alloc.Allocate(p.size)
}

// Put returns a Stack to the pool for reuse. It must not be referenced
// again by the caller after Put.
func (p *Pool) Put(s Stack) {
	p.mu.Lock()
	p.free = append(p.free, s)
	p.mu.Unlock()
}

// Release implements reclaim.Releaser by returning s to the pool.
func (p *Pool) Release(s Stack) error {
	p.Put(s)
	return nil
}

// Close releases every pooled region back to the underlying allocator.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, s := range p.free {
		if err := p.alloc.Deallocate(s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.free = nil
	return firstErr
}
