package cache

import "sync"

// termLocks serializes cache transactions per term key. Writers for distinct
// terms do not block each other; two writers for the same term could otherwise
// interleave the upsert steps and prune each other's current batch.
type termLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTermLocks() *termLocks {
	return &termLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire blocks until the lock for term is held and returns the release
// function. Lock entries are retained for the process lifetime; the term set
// is tiny (one entry per distinct search term).
func (t *termLocks) acquire(term string) func() {
	t.mu.Lock()
	l, ok := t.locks[term]
	if !ok {
		l = &sync.Mutex{}
		t.locks[term] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
