package command

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrUnknownCommandKind is returned when a registry has no constructor for
// an incoming command's kind. Callers are expected to log and drop the
// offending message rather than treat this as fatal.
var ErrUnknownCommandKind = errors.New("command: unknown command kind")

// Constructor returns a fresh, zero-valued Payload for a registered kind.
type Constructor func() Payload

// Registry maps a numeric kind to the constructor that builds its payload.
// New kinds are added at startup; the kind number is part of the wire
// contract and must never be reassigned once shipped.
type Registry struct {
	constructors map[Kind]Constructor
}

// NewRegistry returns a Registry pre-populated with the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[Kind]Constructor)}
	r.Register(KindEmpty, func() Payload { return &Empty{} })
	r.Register(KindMove, func() Payload { return &Move{} })
	r.Register(KindAction, func() Payload { return &Action{} })
	return r
}

// Register adds or replaces the constructor for kind.
func (r *Registry) Register(kind Kind, ctor Constructor) {
	r.constructors[kind] = ctor
}

// Decode parses a full wire-form command (header + payload) using the
// registered constructor for its kind.
func (r *Registry) Decode(data []byte) (Command, error) {
	kind, playerID, tick, payloadBytes, err := Deserialize(data)
	if err != nil {
		return Command{}, err
	}
	ctor, ok := r.constructors[kind]
	if !ok {
		return Command{}, fmt.Errorf("%w: %d", ErrUnknownCommandKind, kind)
	}
	payload := ctor()
	if err := payload.DeserializePayload(bytes.NewReader(payloadBytes)); err != nil {
		return Command{}, err
	}
	return Command{Kind: kind, PlayerID: playerID, Tick: tick, Payload: payload}, nil
}

// Clone deep-copies cmd by round-tripping it through serialize/deserialize,
// which is how the replay recorder duplicates a Command without aliasing its
// payload.
func (r *Registry) Clone(cmd Command) (Command, error) {
	wire, err := cmd.Serialize()
	if err != nil {
		return Command{}, err
	}
	return r.Decode(wire)
}
