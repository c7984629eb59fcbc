package filter

import "sync"

// Navigator is the navigable location a Store keeps in sync with its state.
type Navigator interface {
	// Location returns the current location, e.g. "/?search=ann".
	Location() string
	// Push records a new location.
	Push(location string)
}

// listener is implemented by navigators that can report location changes the
// Store did not cause, such as back/forward.
type listener interface {
	Listen(fn func(location string))
}

// Store owns the current filter State. Every mutation re-encodes the state
// and pushes the resulting location to the Navigator, so the location always
// reflects the active filters.
type Store struct {
	mu    sync.Mutex
	nav   Navigator
	path  string
	state State
}

// NewStore creates a Store whose initial state is decoded from the
// navigator's current location. If the navigator reports external location
// changes, the Store re-derives its state on each one.
func NewStore(nav Navigator) *Store {
	loc := nav.Location()
	s := &Store{
		nav:   nav,
		path:  PathOf(loc),
		state: Decode(loc),
	}
	if l, ok := nav.(listener); ok {
		l.Listen(func(string) { s.Sync() })
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Location returns the location that encodes the current state.
func (s *Store) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Location(s.path, s.state)
}

// SetFilters replaces the whole state and pushes the new location. No push
// happens when the location is unchanged.
func (s *Store) SetFilters(next State) {
	s.update(func(State) State { return next.Clone() })
}

// RemoveFilter drops one filter (see State.Without) in a single update.
func (s *Store) RemoveFilter(key Key, value string) {
	s.update(func(cur State) State { return cur.Without(key, value) })
}

// ResetFilters restores every field to its default in a single update.
func (s *Store) ResetFilters() {
	s.update(func(State) State { return State{} })
}

// Sync re-derives the state from the navigator's current location. It is
// called after back/forward navigation.
func (s *Store) Sync() {
	loc := s.nav.Location()
	s.mu.Lock()
	s.path = PathOf(loc)
	s.state = Decode(loc)
	s.mu.Unlock()
}

func (s *Store) update(fn func(State) State) {
	s.mu.Lock()
	s.state = fn(s.state)
	loc := Location(s.path, s.state)
	s.mu.Unlock()

	if loc != s.nav.Location() {
		s.nav.Push(loc)
	}
}
