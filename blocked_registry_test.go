package qpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type countingObserver struct{ notified int }

func (o *countingObserver) onInsertCountReachedThreshold() { o.notified++ }

func TestBlockedRegistryAscendingOrder(t *testing.T) {
	var r blockedRegistry
	a := &countingObserver{}
	b := &countingObserver{}
	c := &countingObserver{}
	r.register(7, a)
	r.register(3, b)
	r.register(5, c)

	require.Empty(t, r.collectReady(2))
	require.Equal(t, []blockedStreamObserver{b, c}, r.collectReady(5))
	require.Equal(t, []blockedStreamObserver{a}, r.collectReady(100))
	require.Empty(t, r.collectReady(100))
}

func TestBlockedRegistryEqualRequirementsKeepOrder(t *testing.T) {
	var r blockedRegistry
	var obs [4]*countingObserver
	for i := range obs {
		obs[i] = &countingObserver{}
	}
	r.register(2, obs[0])
	r.register(1, obs[1])
	r.register(2, obs[2])
	r.register(2, obs[3])

	require.Equal(t, []blockedStreamObserver{obs[1]}, r.collectReady(1))
	require.Equal(t, []blockedStreamObserver{obs[0], obs[2], obs[3]}, r.collectReady(2))
}

func TestBlockedRegistryCollectsExactlyAtThreshold(t *testing.T) {
	var r blockedRegistry
	a := &countingObserver{}
	r.register(3, a)
	require.Empty(t, r.collectReady(2))
	require.Equal(t, []blockedStreamObserver{a}, r.collectReady(3))
}

func TestBlockedRegistryUnregister(t *testing.T) {
	var r blockedRegistry
	a := &countingObserver{}
	b := &countingObserver{}
	r.register(4, a)
	r.register(4, b)
	r.unregister(4, a)
	require.Equal(t, []blockedStreamObserver{b}, r.collectReady(4))
	require.Panics(t, func() { r.unregister(4, a) })
}
