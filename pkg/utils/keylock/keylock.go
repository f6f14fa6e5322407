package keylock

import "sync"

// KeyLock serializes work per key while letting different keys proceed in
// parallel. Locks are created on first use and kept for the process
// lifetime; the expected key cardinality (one per incident) makes this an
// accepted growth tradeoff, same as the notification throttle map.
type KeyLock[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*sync.Mutex
}

// New creates a new KeyLock
func New[K comparable]() *KeyLock[K] {
	return &KeyLock[K]{
		locks: make(map[K]*sync.Mutex),
	}
}

// Lock acquires the lock for the given key
func (x *KeyLock[K]) Lock(key K) {
	x.lockFor(key).Lock()
}

// Unlock releases the lock for the given key
func (x *KeyLock[K]) Unlock(key K) {
	x.lockFor(key).Unlock()
}

func (x *KeyLock[K]) lockFor(key K) *sync.Mutex {
	x.mu.Lock()
	defer x.mu.Unlock()

	lock, ok := x.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		x.locks[key] = lock
	}
	return lock
}
