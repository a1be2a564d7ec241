// Package event provides a synchronous observer list.
//
// Handlers run on the goroutine that calls Fire, in the order they were
// added. A handler may remove itself (or any other handler) while the list
// is firing; the removal takes effect on the next Fire.
package event

// List is an ordered set of handlers for events of type T.
// The zero value is ready to use. List is not safe for concurrent use; it
// belongs to the goroutine that owns the emitting object.
type List[T any] struct {
	handlers []entry[T]
	nextID   uint64
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns a function that unregisters it.
// Calling the returned function more than once is a no-op.
func (l *List[T]) Add(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.handlers = append(l.handlers, entry[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

func (l *List[T]) remove(id uint64) {
	for i, h := range l.handlers {
		if h.id == id {
			// Copy-on-remove keeps a snapshot taken by an in-progress Fire intact.
			next := make([]entry[T], 0, len(l.handlers)-1)
			next = append(next, l.handlers[:i]...)
			l.handlers = append(next, l.handlers[i+1:]...)
			return
		}
	}
}

// Fire invokes every handler with v.
func (l *List[T]) Fire(v T) {
	for _, h := range l.handlers {
		h.fn(v)
	}
}

// Len returns the number of registered handlers.
func (l *List[T]) Len() int {
	return len(l.handlers)
}

// Clear removes all handlers.
func (l *List[T]) Clear() {
	l.handlers = nil
}
