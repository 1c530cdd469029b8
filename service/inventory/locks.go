package inventory

import (
	"sync"

	"github.com/google/uuid"
)

// bookLocks serializes counter mutations per book id. Mutations on
// different books proceed in parallel; two read-modify-write units for
// the same book never interleave. Entries are kept for the life of the
// process, bounded by catalog size.
type bookLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*sync.Mutex
}

func newBookLocks() *bookLocks {
	return &bookLocks{m: make(map[uuid.UUID]*sync.Mutex)}
}

// acquire locks the per-book mutex and returns its release func.
func (l *bookLocks) acquire(id uuid.UUID) func() {
	l.mu.Lock()
	bl, ok := l.m[id]
	if !ok {
		bl = &sync.Mutex{}
		l.m[id] = bl
	}
	l.mu.Unlock()

	bl.Lock()
	return bl.Unlock
}
