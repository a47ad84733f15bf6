// Package world holds the syncable simulation state: entities, the entity
// set that owns them, content hashing, and the snapshot/restore machinery
// rollback depends on.
package world

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
)

// TypeID identifies an entity's concrete kind at the wire boundary. It is
// the single source of truth the entity factory keys off of — there is no
// runtime type reflection.
type TypeID int32

// Entity is any simulation object that can serialize itself, report a
// content hash, advance one tick, and accept a command from its owner.
// Entities are created only by the simulation, mutated only inside a tick
// or a snapshot restore, and never have their EntityID reused.
type Entity interface {
	EntityID() int32
	SetEntityID(id int32)
	TypeID() TypeID
	OwnerID() int32

	Serialize() ([]byte, error)
	Deserialize(data []byte) error
	Hash() uint64

	SimulationStep(deltaMs int64)
	ApplyCommand(cmd command.Command)
	Reset()
}

// Factory constructs a zero-valued entity for a registered TypeID, used by
// snapshot restore to recreate entities that don't yet exist locally.
type Factory func() Entity

// UnitEntity is the minimal demo entity: a point mass that moves toward a
// commanded position at a fixed speed and can be told to perform a numbered
// action against a target.
type UnitEntity struct {
	ID       int32
	Owner    int32
	Position fixedpoint.FP3
	Rotation fixedpoint.FP
	Scale    fixedpoint.FP3

	MoveSpeed    fixedpoint.FP
	Target       fixedpoint.FP3
	HasTarget    bool
	LastActionID int32
}

// TypeIDUnit is UnitEntity's wire-stable type identifier.
const TypeIDUnit TypeID = 1

// NewUnitEntity returns a UnitEntity at the origin with scale 1 and the
// given move speed.
func NewUnitEntity(moveSpeed fixedpoint.FP) *UnitEntity {
	return &UnitEntity{
		Scale:     fixedpoint.FP3{X: fixedpoint.OneFP, Y: fixedpoint.OneFP, Z: fixedpoint.OneFP},
		MoveSpeed: moveSpeed,
	}
}

func (e *UnitEntity) EntityID() int32      { return e.ID }
func (e *UnitEntity) SetEntityID(id int32) { e.ID = id }
func (e *UnitEntity) TypeID() TypeID       { return TypeIDUnit }
func (e *UnitEntity) OwnerID() int32       { return e.Owner }

func (e *UnitEntity) Reset() {
	e.Position = fixedpoint.FP3{}
	e.Rotation = fixedpoint.Zero
	e.HasTarget = false
	e.Target = fixedpoint.FP3{}
	e.LastActionID = 0
}

// ApplyCommand accepts a Move (sets a new movement target) or an Action
// (records the action ID for observability; game-specific effects beyond
// that are out of scope for the demo entity).
func (e *UnitEntity) ApplyCommand(cmd command.Command) {
	switch p := cmd.Payload.(type) {
	case *command.Move:
		e.Target = fixedpoint.FP3{X: p.X, Y: p.Y, Z: p.Z}
		e.HasTarget = true
	case *command.Action:
		e.LastActionID = p.ActionID
	}
}

// SimulationStep advances the entity deltaMs toward its current target, if
// any, at MoveSpeed units per second.
func (e *UnitEntity) SimulationStep(deltaMs int64) {
	if !e.HasTarget {
		return
	}
	deltaSeconds, err := fixedpoint.Div(fixedpoint.FromInt(deltaMs), fixedpoint.FromInt(1000))
	if err != nil {
		return
	}
	maxDelta := fixedpoint.Mul(e.MoveSpeed, deltaSeconds)
	e.Position = e.Position.MoveTowards(e.Target, maxDelta)
	if e.Position == e.Target {
		e.HasTarget = false
	}
}

// Serialize writes the entity's full field set: position, rotation, scale,
// move speed, target (with a presence flag), and last action ID.
func (e *UnitEntity) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	raws := []int64{
		e.Position.X.Raw, e.Position.Y.Raw, e.Position.Z.Raw,
		e.Rotation.Raw,
		e.Scale.X.Raw, e.Scale.Y.Raw, e.Scale.Z.Raw,
		e.MoveSpeed.Raw,
		e.Target.X.Raw, e.Target.Y.Raw, e.Target.Z.Raw,
	}
	for _, v := range raws {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	hasTarget := byte(0)
	if e.HasTarget {
		hasTarget = 1
	}
	if err := buf.WriteByte(hasTarget); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, e.LastActionID); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *UnitEntity) Deserialize(data []byte) error {
	r := bytes.NewReader(data)
	raws := make([]int64, 11)
	for i := range raws {
		if err := binary.Read(r, binary.LittleEndian, &raws[i]); err != nil {
			return err
		}
	}
	e.Position = fixedpoint.FP3{X: fixedpoint.FromRaw(raws[0]), Y: fixedpoint.FromRaw(raws[1]), Z: fixedpoint.FromRaw(raws[2])}
	e.Rotation = fixedpoint.FromRaw(raws[3])
	e.Scale = fixedpoint.FP3{X: fixedpoint.FromRaw(raws[4]), Y: fixedpoint.FromRaw(raws[5]), Z: fixedpoint.FromRaw(raws[6])}
	e.MoveSpeed = fixedpoint.FromRaw(raws[7])
	e.Target = fixedpoint.FP3{X: fixedpoint.FromRaw(raws[8]), Y: fixedpoint.FromRaw(raws[9]), Z: fixedpoint.FromRaw(raws[10])}

	hasTarget, err := r.ReadByte()
	if err != nil {
		return err
	}
	e.HasTarget = hasTarget == 1
	if err := binary.Read(r, binary.LittleEndian, &e.LastActionID); err != nil {
		return err
	}
	return nil
}

// Hash folds the entity's serialized fields through FNV-1a. Serialize never
// fails for a UnitEntity, so the error is swallowed here.
func (e *UnitEntity) Hash() uint64 {
	data, _ := e.Serialize()
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
