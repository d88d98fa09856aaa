package fiber

// Generator presents a fiber as a pull-based iterator instead of a raw
// Spawn/Handle pair, grounded on the original crate's generator sugar: a
// producer fiber pushes values through a Yielder, and a consumer pulls them
// one at a time with Next.
type Generator[T any] struct {
	ch   *Channel[T]
	done *Handle[struct{}]
	err  error
}

// Yielder is the capability a generator's body uses to publish values.
type Yielder[T any] struct {
	s  Sched
	ch *Channel[T]
}

// Yield blocks until v is accepted by the consumer (or the generator's
// channel buffer has room).
func (y *Yielder[T]) Yield(v T) { _ = y.ch.Send(y.s, v) }

// NewGenerator spawns fn as a fiber on s's scheduler and returns a
// Generator that pulls its yielded values. buffer sets how many produced
// values may queue ahead of the consumer before Yield blocks.
func NewGenerator[T any](s Sched, buffer int, fn func(s Sched, y *Yielder[T])) *Generator[T] {
	if buffer < 1 {
		buffer = 1
	}
	ch := NewChannel[T](buffer)
	g := &Generator[T]{ch: ch}
	g.done = Spawn(s, func(s Sched) struct{} {
		defer func() { _ = ch.Close(s) }() // also runs if fn panics
		fn(s, &Yielder[T]{s: s, ch: ch})
		return struct{}{}
	})
	return g
}

// Next blocks until the generator produces a value, reporting ok=false
// once it has finished (check Err afterward for a panic/failure).
func (g *Generator[T]) Next(s Sched) (v T, ok bool) {
	v, err := g.ch.Recv(s)
	if err != nil {
		_, g.err = g.done.Join(s)
		var zero T
		return zero, false
	}
	return v, true
}

// Err returns the generator body's panic, if Next has returned ok=false and
// the body panicked. Safe to call at any time; returns nil while the
// generator is still running or finished cleanly.
func (g *Generator[T]) Err() error { return g.err }
