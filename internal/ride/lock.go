package ride

import "sync"

// keyedMutex serializes work per ride id. Transition's read-validate-write
// against the store is a check-then-act sequence; without this, two
// concurrent transitions on the same ride could both read the old status
// and both pass validation.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockRef
}

type lockRef struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int64) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*lockRef)
	}
	ref, ok := k.locks[id]
	if !ok {
		ref = &lockRef{}
		k.locks[id] = ref
	}
	ref.refs++
	k.mu.Unlock()

	ref.Lock()
	return func() {
		ref.Unlock()
		k.mu.Lock()
		ref.refs--
		if ref.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
