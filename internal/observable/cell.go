// Package observable provides a single-value store with change notification.
package observable

import "sync"

// Cell holds one value of type T. Reads are synchronous; writers replace the
// value wholesale and every subscriber is notified of the latest value.
//
// Values are treated as immutable once stored. Writers that need to change a
// slice or map build a new one instead of mutating what Get returned.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[uint64]chan T
	next  uint64
}

// New creates a cell holding initial.
func New[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial, subs: make(map[uint64]chan T)}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the current value and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.notify()
}

// Update atomically replaces the value with fn(current) and notifies
// subscribers. fn runs under the cell lock and must not touch the cell.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	c.notify()
}

// Subscribe returns a channel that receives the current value immediately and
// the latest value after every change. Slow receivers only ever see the most
// recent value; intermediate values are dropped. The returned func stops the
// subscription and closes the channel.
func (c *Cell[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)

	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = ch
	ch <- c.value
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// notify must be called with c.mu held.
func (c *Cell[T]) notify() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.value
	}
}
