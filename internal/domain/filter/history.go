package filter

import "sync"

// History is an in-memory Navigator with back/forward support. Pushing a
// location discards any forward entries.
type History struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners []func(string)
}

// NewHistory creates a History positioned at location.
func NewHistory(location string) *History {
	if location == "" {
		location = DefaultPath
	}
	return &History{entries: []string{location}}
}

func (h *History) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index]
}

func (h *History) Push(location string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], location)
	h.index++
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Listen registers fn to be called after Back and Forward move the position.
func (h *History) Listen(fn func(location string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Back moves one entry back. It returns false at the first entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward. It returns false at the last entry.
func (h *History) Forward() bool {
	return h.move(1)
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	loc := h.entries[next]
	listeners := append([]func(string){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
	return true
}
