// Package command implements the typed input values exchanged on the
// command plane: per-(tick,player) player intents, serialized to a stable
// binary wire form so every peer can decode them identically.
package command

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/xpTURN/Lockstep/fixedpoint"
)

// Kind identifies a command's concrete payload type. The numeric value is
// part of the wire contract: once a kind ships, its number cannot change.
type Kind uint32

const (
	KindEmpty  Kind = 0
	KindMove   Kind = 1
	KindAction Kind = 2
)

// ErrTooShort is returned when a byte slice is too small to hold a command's
// fixed-size header.
var ErrTooShort = errors.New("command: buffer too short")

// Command is a single player's input for a single tick. Payload holds the
// kind-specific fields; Command wraps it with playerID/tick context.
// Commands are immutable once constructed.
type Command struct {
	Kind     Kind
	PlayerID int32
	Tick     int32
	Payload  Payload
}

// Payload is implemented by each concrete command kind (Move, Action, ...).
// SerializePayload must write exactly the kind-specific fields, with no
// length prefix — the wire framing around it is fixed size per kind.
type Payload interface {
	Kind() Kind
	SerializePayload(w io.Writer) error
	DeserializePayload(r io.Reader) error
}

// Serialize writes the command's full wire form: kind | playerID | tick |
// payload. The kind is written once, as the header field the registry reads
// to pick a constructor; the payload bytes that follow hold only the
// kind-specific fields.
func (c Command) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint32(c.Kind)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, c.PlayerID); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, c.Tick); err != nil {
		return nil, err
	}
	if c.Payload != nil {
		if err := c.Payload.SerializePayload(buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Deserialize reads the kind/playerID/tick header from data and returns the
// remaining payload bytes for the caller (typically a Registry) to decode.
func Deserialize(data []byte) (kind Kind, playerID, tick int32, payload []byte, err error) {
	if len(data) < 12 {
		return 0, 0, 0, nil, ErrTooShort
	}
	buf := bytes.NewReader(data)
	var k uint32
	if err = binary.Read(buf, binary.LittleEndian, &k); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &playerID); err != nil {
		return
	}
	if err = binary.Read(buf, binary.LittleEndian, &tick); err != nil {
		return
	}
	kind = Kind(k)
	payload = data[12:]
	return
}

// Empty is the no-op command, used to fill a missing input slot.
type Empty struct{}

func (*Empty) Kind() Kind                           { return KindEmpty }
func (*Empty) SerializePayload(io.Writer) error      { return nil }
func (*Empty) DeserializePayload(io.Reader) error    { return nil }

// Move moves the owning entity toward (X, Y, Z), expressed as raw 32.32
// fixed-point coordinates.
type Move struct {
	X, Y, Z fixedpoint.FP
}

func (*Move) Kind() Kind { return KindMove }

func (m *Move) SerializePayload(w io.Writer) error {
	for _, v := range []int64{m.X.Raw, m.Y.Raw, m.Z.Raw} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Move) DeserializePayload(r io.Reader) error {
	raws := make([]int64, 3)
	for i := range raws {
		if err := binary.Read(r, binary.LittleEndian, &raws[i]); err != nil {
			return err
		}
	}
	m.X = fixedpoint.FromRaw(raws[0])
	m.Y = fixedpoint.FromRaw(raws[1])
	m.Z = fixedpoint.FromRaw(raws[2])
	return nil
}

// Action invokes ActionID against TargetEntity, optionally carrying a
// target position expressed as raw 32.32 fixed-point coordinates.
type Action struct {
	ActionID     int32
	TargetEntity int32
	X, Y, Z      fixedpoint.FP
}

func (*Action) Kind() Kind { return KindAction }

func (a *Action) SerializePayload(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, a.ActionID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, a.TargetEntity); err != nil {
		return err
	}
	for _, v := range []int64{a.X.Raw, a.Y.Raw, a.Z.Raw} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func (a *Action) DeserializePayload(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &a.ActionID); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &a.TargetEntity); err != nil {
		return err
	}
	raws := make([]int64, 3)
	for i := range raws {
		if err := binary.Read(r, binary.LittleEndian, &raws[i]); err != nil {
			return err
		}
	}
	a.X = fixedpoint.FromRaw(raws[0])
	a.Y = fixedpoint.FromRaw(raws[1])
	a.Z = fixedpoint.FromRaw(raws[2])
	return nil
}
