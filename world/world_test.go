package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/fixedpoint"
)

func TestCreateEntityAssignsMonotonicIDs(t *testing.T) {
	w := NewWorld()
	a := NewUnitEntity(fixedpoint.FromInt(1))
	b := NewUnitEntity(fixedpoint.FromInt(1))

	idA := w.CreateEntity(a)
	idB := w.CreateEntity(b)

	require.Equal(t, int32(0), idA)
	require.Equal(t, int32(1), idB)
	require.Equal(t, int32(2), w.NextEntityID())
}

func TestDestroyEntityNeverReusesID(t *testing.T) {
	w := NewWorld()
	a := NewUnitEntity(fixedpoint.FromInt(1))
	id := w.CreateEntity(a)
	w.DestroyEntity(id)

	b := NewUnitEntity(fixedpoint.FromInt(1))
	newID := w.CreateEntity(b)
	require.NotEqual(t, id, newID)
}

func TestHashIsIndependentOfInsertionOrder(t *testing.T) {
	w1 := NewWorld()
	w2 := NewWorld()

	a1 := NewUnitEntity(fixedpoint.FromInt(1))
	b1 := NewUnitEntity(fixedpoint.FromInt(2))
	w1.CreateEntity(a1)
	w1.CreateEntity(b1)

	// Equal entities with the same IDs, built through separate
	// NewUnitEntity calls, inserted into w2 in the reverse order.
	a2 := NewUnitEntity(fixedpoint.FromInt(1))
	b2 := NewUnitEntity(fixedpoint.FromInt(2))
	a2.SetEntityID(0)
	b2.SetEntityID(1)
	w2.insert(b2)
	w2.insert(a2)

	require.Equal(t, w1.Hash(), w2.Hash())
}

func TestHashChangesWhenEntityMutates(t *testing.T) {
	w := NewWorld()
	e := NewUnitEntity(fixedpoint.FromInt(1))
	w.CreateEntity(e)
	before := w.Hash()

	e.Position = fixedpoint.FP3{X: fixedpoint.FromInt(5)}
	after := w.Hash()

	require.NotEqual(t, before, after)
}

func TestSnapshotRoundTripsWorldState(t *testing.T) {
	w := NewWorld()
	e := NewUnitEntity(fixedpoint.FromInt(3))
	w.CreateEntity(e)
	e.Position = fixedpoint.FP3{X: fixedpoint.FromInt(10), Y: fixedpoint.FromInt(-2)}
	w.AdvanceTick()
	w.AdvanceTick()

	snap, err := CreateSnapshot(w)
	require.NoError(t, err)

	fresh := NewWorld()
	err = Restore(fresh, snap, map[TypeID]Factory{
		TypeIDUnit: func() Entity { return NewUnitEntity(fixedpoint.Zero) },
	})
	require.NoError(t, err)

	require.Equal(t, w.Hash(), fresh.Hash())
	require.Equal(t, w.Tick(), fresh.Tick())
	require.Equal(t, w.NextEntityID(), fresh.NextEntityID())
}

func TestRestoreRemovesEntitiesNotInSnapshot(t *testing.T) {
	w := NewWorld()
	kept := NewUnitEntity(fixedpoint.FromInt(1))
	w.CreateEntity(kept)
	snap, err := CreateSnapshot(w)
	require.NoError(t, err)

	extra := NewUnitEntity(fixedpoint.FromInt(1))
	w.CreateEntity(extra)
	require.Equal(t, 2, w.Count())

	err = Restore(w, snap, map[TypeID]Factory{
		TypeIDUnit: func() Entity { return NewUnitEntity(fixedpoint.Zero) },
	})
	require.NoError(t, err)
	require.Equal(t, 1, w.Count())
}

func TestRestoreUnknownTypeFails(t *testing.T) {
	w := NewWorld()
	e := NewUnitEntity(fixedpoint.FromInt(1))
	w.CreateEntity(e)
	snap, err := CreateSnapshot(w)
	require.NoError(t, err)

	fresh := NewWorld()
	err = Restore(fresh, snap, map[TypeID]Factory{})
	require.ErrorIs(t, err, ErrUnknownEntityType)
}
