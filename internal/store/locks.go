package store

import "sync"

// KeyedMutex serializes work per user id while letting different users
// proceed in parallel. The zero value is ready to use.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// Lock acquires the lock for id and returns its unlock func.
func (k *KeyedMutex) Lock(id int) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
