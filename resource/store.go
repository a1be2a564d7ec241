package resource

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/gogpu/nle"
	"github.com/gogpu/nle/internal/event"
)

// EventKind says what happened to a resource.
type EventKind uint8

const (
	// EventAdded fires when a key becomes registered.
	EventAdded EventKind = iota + 1
	// EventRemoved fires when a key is removed.
	EventRemoved
	// EventRenamed fires on the old key; Event.Key is the new key.
	EventRenamed
	// EventReplaced fires when the value under a key changes.
	EventReplaced
	// EventOnline fires when a resource becomes available again.
	EventOnline
	// EventOffline fires when a resource becomes unavailable.
	EventOffline
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventRenamed:
		return "renamed"
	case EventReplaced:
		return "replaced"
	case EventOnline:
		return "online"
	case EventOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Event describes a change to one key.
type Event struct {
	Kind   EventKind
	Key    string
	OldKey string
}

// Manager resolves keys to live resources.
type Manager interface {
	// TryGet returns the resource under key. It reports false when the key
	// is unknown or the resource is offline.
	TryGet(key string) (any, bool)

	// Subscribe registers fn for changes to key. Renames move the
	// subscription along with the resource.
	Subscribe(key string, fn func(Event)) (cancel func())
}

type entry struct {
	value  any
	online bool
	origin Origin
}

// Origin records where a resource came from so it can be reloaded.
type Origin struct {
	Kind Kind
	// Path is the file or glob pattern for file-backed resources.
	Path string
	// FrameRate is used by image sequence media.
	FrameRate float64
}

// Store is an in-memory Manager.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	subs    map[string]*event.List[Event]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*entry),
		subs:    make(map[string]*event.List[Event]),
	}
}

// Register adds v under key, online.
func (s *Store) Register(key string, v any) error {
	return s.register(key, v, Origin{Kind: kindOf(v)})
}

func (s *Store) register(key string, v any, origin Origin) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	if _, ok := s.entries[key]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	s.entries[key] = &entry{value: v, online: v != nil, origin: origin}
	s.mu.Unlock()
	s.fire(key, Event{Kind: EventAdded, Key: key})
	return nil
}

// Replace swaps the value under key.
func (s *Store) Replace(key string, v any) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	e.value = v
	e.online = v != nil
	if k := kindOf(v); k != KindUnknown {
		e.origin.Kind = k
	}
	s.mu.Unlock()
	s.fire(key, Event{Kind: EventReplaced, Key: key})
	return nil
}

// Rename moves a resource to a new key. Subscribers of the old key are
// notified and carried over to the new one.
func (s *Store) Rename(oldKey, newKey string) error {
	if newKey == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	e, ok := s.entries[oldKey]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, oldKey)
	}
	if _, taken := s.entries[newKey]; taken {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateKey, newKey)
	}
	delete(s.entries, oldKey)
	s.entries[newKey] = e
	subs := s.subs[oldKey]
	delete(s.subs, oldKey)
	if subs != nil {
		s.subs[newKey] = subs
	}
	s.mu.Unlock()
	if subs != nil {
		subs.Fire(Event{Kind: EventRenamed, Key: newKey, OldKey: oldKey})
	}
	return nil
}

// Remove deletes key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	delete(s.entries, key)
	s.mu.Unlock()
	s.fire(key, Event{Kind: EventRemoved, Key: key})
	return nil
}

// SetOnline marks a resource available or unavailable. Going online with a
// nil value is refused.
func (s *Store) SetOnline(key string, online bool) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if online && e.value == nil {
		s.mu.Unlock()
		return fmt.Errorf("resource: %q has no value to bring online", key)
	}
	changed := e.online != online
	e.online = online
	s.mu.Unlock()
	if !changed {
		return nil
	}
	kind := EventOffline
	if online {
		kind = EventOnline
	} else {
		nle.Logger().Warn("resource: offline", "key", key)
	}
	s.fire(key, Event{Kind: kind, Key: key})
	return nil
}

// TryGet implements Manager.
func (s *Store) TryGet(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || !e.online {
		return nil, false
	}
	return e.value, true
}

// IsOnline reports whether key is registered and online.
func (s *Store) IsOnline(key string) bool {
	_, ok := s.TryGet(key)
	return ok
}

// Has reports whether key is registered, online or not.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Origin returns how key was created.
func (s *Store) Origin(key string) (Origin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Origin{}, false
	}
	return e.origin, true
}

// Keys returns the registered keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := lo.Keys(s.entries)
	s.mu.RUnlock()
	slices.Sort(keys)
	return keys
}

// Len returns the number of registered keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe implements Manager.
func (s *Store) Subscribe(key string, fn func(Event)) (cancel func()) {
	s.mu.Lock()
	l, ok := s.subs[key]
	if !ok {
		l = &event.List[Event]{}
		s.subs[key] = l
	}
	remove := l.Add(fn)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		remove()
		if l.Len() == 0 {
			for k, cur := range s.subs {
				if cur == l {
					delete(s.subs, k)
				}
			}
		}
	}
}

func (s *Store) fire(key string, ev Event) {
	s.mu.RLock()
	l := s.subs[key]
	s.mu.RUnlock()
	if l != nil {
		l.Fire(ev)
	}
}
