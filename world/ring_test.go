package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingEvictsOldestOnOverflow(t *testing.T) {
	r := NewRing(2)
	r.Save(Snapshot{Tick: 1})
	r.Save(Snapshot{Tick: 2})
	r.Save(Snapshot{Tick: 3})

	_, ok := r.Get(1)
	require.False(t, ok)
	require.Equal(t, 2, r.Len())
}

func TestRingNearestAtOrBefore(t *testing.T) {
	r := NewRing(10)
	r.Save(Snapshot{Tick: 5})
	r.Save(Snapshot{Tick: 10})
	r.Save(Snapshot{Tick: 20})

	got, ok := r.NearestAtOrBefore(15)
	require.True(t, ok)
	require.Equal(t, int32(10), got.Tick)

	_, ok = r.NearestAtOrBefore(1)
	require.False(t, ok)
}

func TestRingClearAfter(t *testing.T) {
	r := NewRing(10)
	r.Save(Snapshot{Tick: 5})
	r.Save(Snapshot{Tick: 10})
	r.Save(Snapshot{Tick: 20})

	r.ClearAfter(10)
	_, ok := r.Get(20)
	require.False(t, ok)
	require.Equal(t, 2, r.Len())
}

func TestRingClearAll(t *testing.T) {
	r := NewRing(10)
	r.Save(Snapshot{Tick: 5})
	r.ClearAll()
	require.Equal(t, 0, r.Len())
}
