package resource

import "github.com/gogpu/nle/internal/event"

// Link is a typed reference to a resource by key. The zero value is an
// unset link.
//
// A link follows renames of its resource and forwards every change to the
// handlers added with OnChanged.
type Link[T any] struct {
	mgr     Manager
	key     string
	cancel  func()
	changed event.List[Event]
}

// NewLink returns a link to key in mgr.
func NewLink[T any](mgr Manager, key string) *Link[T] {
	l := &Link[T]{}
	l.mgr = mgr
	l.key = key
	l.subscribe()
	return l
}

// Key returns the referenced key. Empty means unset.
func (l *Link[T]) Key() string { return l.key }

// Manager returns the manager the link resolves against.
func (l *Link[T]) Manager() Manager { return l.mgr }

// SetManager points the link at a different manager.
func (l *Link[T]) SetManager(mgr Manager) {
	if l.mgr == mgr {
		return
	}
	l.unsubscribe()
	l.mgr = mgr
	l.subscribe()
	l.changed.Fire(Event{Kind: EventReplaced, Key: l.key})
}

// SetKey changes the referenced key.
func (l *Link[T]) SetKey(key string) {
	if l.key == key {
		return
	}
	old := l.key
	l.unsubscribe()
	l.key = key
	l.subscribe()
	l.changed.Fire(Event{Kind: EventReplaced, Key: key, OldKey: old})
}

// TryGet resolves the link. It reports false when the link is unset, the
// resource is missing or offline, or the value is not a T.
func (l *Link[T]) TryGet() (T, bool) {
	var zero T
	if l.mgr == nil || l.key == "" {
		return zero, false
	}
	v, ok := l.mgr.TryGet(l.key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// IsOnline reports whether TryGet would succeed.
func (l *Link[T]) IsOnline() bool {
	_, ok := l.TryGet()
	return ok
}

// OnChanged registers fn for changes to the referenced resource.
func (l *Link[T]) OnChanged(fn func(Event)) (remove func()) {
	return l.changed.Add(fn)
}

// Close drops the subscription and all handlers.
func (l *Link[T]) Close() {
	l.unsubscribe()
	l.changed.Clear()
}

func (l *Link[T]) subscribe() {
	if l.mgr == nil || l.key == "" {
		return
	}
	l.cancel = l.mgr.Subscribe(l.key, l.handle)
}

func (l *Link[T]) unsubscribe() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Link[T]) handle(ev Event) {
	if ev.Kind == EventRenamed {
		l.key = ev.Key
	}
	l.changed.Fire(ev)
}
