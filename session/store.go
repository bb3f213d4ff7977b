package session

import "sync"

type listener struct {
	fn func(Action)
}

// Store owns the session State. The zero value is not usable, use NewStore.
type Store struct {
	mu        sync.RWMutex
	state     State
	version   uint64
	listeners []*listener
}

// NewStore returns a store holding the empty session.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch runs the reducer and then calls every subscriber, in subscription
// order, on the dispatching goroutine. Subscribers may dispatch.
func (s *Store) Dispatch(action Action) {
	s.mu.Lock()
	s.notify(s.reduce(action), action)
}

// Version counts the actions dispatched so far.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// CompareAndDispatch dispatches action only when no other action was
// dispatched since Version returned version.
func (s *Store) CompareAndDispatch(version uint64, action Action) bool {
	s.mu.Lock()
	if s.version != version {
		s.mu.Unlock()
		return false
	}
	s.notify(s.reduce(action), action)
	return true
}

// reduce applies action and returns the listeners to notify. It expects s.mu
// held and leaves it held.
func (s *Store) reduce(action Action) []*listener {
	s.state = Reduce(s.state, action)
	s.version++
	listeners := make([]*listener, len(s.listeners))
	copy(listeners, s.listeners)
	return listeners
}

// notify releases s.mu and calls listeners.
func (s *Store) notify(listeners []*listener, action Action) {
	s.mu.Unlock()
	for _, l := range listeners {
		l.fn(action)
	}
}

// Subscribe registers fn for every dispatched action and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Action)) (unsubscribe func()) {
	l := &listener{fn: fn}

	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, existing := range s.listeners {
				if existing == l {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}
