package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnknownEntityType is returned when a snapshot names a TypeID with no
// registered factory. The offending entity entry is dropped; it does not
// abort the rest of the restore.
var ErrUnknownEntityType = errors.New("world: unknown entity type")

// Snapshot is a point-in-time capture of a World, tagged with the tick it
// was taken at.
type Snapshot struct {
	Tick  int32
	Bytes []byte
}

// CreateSnapshot encodes w's current state: tick, nextEntityID, entity
// count, then for each entity (in current insertion order) its ID, TypeID,
// serialized-data length, and serialized data.
func CreateSnapshot(w *World) (Snapshot, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, w.tick); err != nil {
		return Snapshot{}, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.nextEntity); err != nil {
		return Snapshot{}, err
	}
	if err := binary.Write(buf, binary.LittleEndian, int32(len(w.order))); err != nil {
		return Snapshot{}, err
	}
	for _, id := range w.order {
		e := w.entities[id]
		data, err := e.Serialize()
		if err != nil {
			return Snapshot{}, err
		}
		if err := binary.Write(buf, binary.LittleEndian, e.EntityID()); err != nil {
			return Snapshot{}, err
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(e.TypeID())); err != nil {
			return Snapshot{}, err
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(len(data))); err != nil {
			return Snapshot{}, err
		}
		if _, err := buf.Write(data); err != nil {
			return Snapshot{}, err
		}
	}
	return Snapshot{Tick: w.tick, Bytes: buf.Bytes()}, nil
}

// Restore applies snap to w: entities present in both are deserialized in
// place, entities named in snap but absent from w are created via
// factories, and entities present in w but absent from snap are removed.
// Restoration is order-insensitive — identity is EntityID, not position.
func Restore(w *World, snap Snapshot, factories map[TypeID]Factory) error {
	r := bytes.NewReader(snap.Bytes)

	var tick, nextEntity, count int32
	if err := binary.Read(r, binary.LittleEndian, &tick); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &nextEntity); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}

	present := make(map[int32]struct{}, len(w.order))
	for _, id := range w.order {
		present[id] = struct{}{}
	}
	seen := make(map[int32]struct{}, count)
	var unknownErr error

	for i := int32(0); i < count; i++ {
		var entityID int32
		var typeID int32
		var dataLen int32
		if err := binary.Read(r, binary.LittleEndian, &entityID); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &typeID); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
			return err
		}
		data := make([]byte, dataLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return err
		}
		seen[entityID] = struct{}{}

		if existing, ok := w.entities[entityID]; ok {
			if err := existing.Deserialize(data); err != nil {
				return err
			}
			continue
		}

		factory, ok := factories[TypeID(typeID)]
		if !ok {
			if unknownErr == nil {
				unknownErr = fmt.Errorf("%w: %d", ErrUnknownEntityType, typeID)
			}
			continue
		}
		fresh := factory()
		if err := fresh.Deserialize(data); err != nil {
			return err
		}
		fresh.SetEntityID(entityID)
		w.insert(fresh)
	}

	for id := range present {
		if _, ok := seen[id]; !ok {
			w.DestroyEntity(id)
		}
	}

	w.tick = tick
	w.nextEntity = nextEntity
	return unknownErr
}
