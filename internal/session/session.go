// Package session tracks per-session flags, such as whether the intro has
// already been shown.
package session

import "sync"

// Visits records whether the user has been here before in this session.
type Visits interface {
	HasVisited() bool
	MarkVisited()
}

// MemoryVisits keeps the flag for the lifetime of the process, the desktop
// counterpart of a browser tab's session storage.
type MemoryVisits struct {
	mu      sync.Mutex
	visited bool
}

// HasVisited reports whether MarkVisited has been called.
func (m *MemoryVisits) HasVisited() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visited
}

// MarkVisited sets the flag.
func (m *MemoryVisits) MarkVisited() {
	m.mu.Lock()
	m.visited = true
	m.mu.Unlock()
}

// FirstVisit reports whether this is the first visit and marks it, so the
// caller runs its intro exactly once.
func FirstVisit(v Visits) bool {
	if v == nil || v.HasVisited() {
		return false
	}
	v.MarkVisited()
	return true
}
