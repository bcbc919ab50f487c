package usecase

import "sync"

// keyedMutex serializes work per key: lifecycle transitions per listing id,
// message operations per conversation id. Locks are never evicted; the key
// space (entity ids under live mutation) stays small relative to the data.
type keyedMutex struct {
	mu sync.Map // key -> *sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.mu.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
