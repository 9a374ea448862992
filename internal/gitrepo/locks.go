package gitrepo

import (
	"path/filepath"
	"sync"
)

// pathLocks serializes operations per repository path. A working tree is
// an external, stateful resource: commit, push, discard and revert must be
// mutually exclusive on the same path, and reads take the same lock so
// they never observe a half-updated tree. In-process only; cross-process
// locking is out of scope.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a path, creating it on first use. Paths are
// cleaned so "repo" and "repo/" share one lock.
func (p *pathLocks) get(path string) *sync.Mutex {
	key := filepath.Clean(path)

	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	return l
}
