package qpack

import (
	"slices"
	"sort"
)

// A blockedStreamObserver is notified when the total number of dynamic
// table insertions reaches its requirement.
type blockedStreamObserver interface {
	onInsertCountReachedThreshold()
}

type blockedRegistration struct {
	requiredInsertCount uint64
	observer            blockedStreamObserver
}

// A blockedRegistry holds the observers of blocked header blocks, keyed
// by the insert count each one is waiting for. Observers are opaque to
// the registry and hold no references into the dynamic table.
type blockedRegistry struct {
	// Sorted by requiredInsertCount. Registrations with equal
	// requirements keep their registration order.
	registrations []blockedRegistration
}

func (r *blockedRegistry) register(requiredInsertCount uint64, obs blockedStreamObserver) {
	i := sort.Search(len(r.registrations), func(i int) bool {
		return r.registrations[i].requiredInsertCount > requiredInsertCount
	})
	r.registrations = slices.Insert(r.registrations, i, blockedRegistration{requiredInsertCount, obs})
}

// unregister removes a previous registration. Unregistering an observer
// that is not registered is a programming error.
func (r *blockedRegistry) unregister(requiredInsertCount uint64, obs blockedStreamObserver) {
	i := sort.Search(len(r.registrations), func(i int) bool {
		return r.registrations[i].requiredInsertCount >= requiredInsertCount
	})
	for ; i < len(r.registrations) && r.registrations[i].requiredInsertCount == requiredInsertCount; i++ {
		if r.registrations[i].observer == obs {
			r.registrations = slices.Delete(r.registrations, i, i+1)
			return
		}
	}
	panic("qpack: unregistering unknown blocked stream observer")
}

// collectReady removes and returns all observers whose requirement is
// satisfied by insertedCount, in ascending requirement order.
func (r *blockedRegistry) collectReady(insertedCount uint64) []blockedStreamObserver {
	n := sort.Search(len(r.registrations), func(i int) bool {
		return r.registrations[i].requiredInsertCount > insertedCount
	})
	if n == 0 {
		return nil
	}
	ready := make([]blockedStreamObserver, n)
	for i, reg := range r.registrations[:n] {
		ready[i] = reg.observer
	}
	r.registrations = slices.Delete(r.registrations, 0, n)
	return ready
}
