// Package replay implements command-log capture to a binary file and
// deterministic playback of that log against a fresh simulation.
package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/xpTURN/Lockstep/command"
)

// magic identifies a replay file: the ASCII bytes "RPLY".
const magic uint32 = 0x52504C59

// currentVersion is the highest version this reader understands.
const currentVersion int32 = 1

// ErrUnsupportedReplay is returned when a file's magic is wrong or its
// version is newer than currentVersion.
var ErrUnsupportedReplay = errors.New("replay: unsupported replay file")

// ErrInvalidReplayFormat is returned when a file's structure is truncated
// or otherwise malformed beyond a simple version mismatch.
var ErrInvalidReplayFormat = errors.New("replay: invalid replay format")

// TickEntry is one tick's worth of recorded commands.
type TickEntry struct {
	Tick     int32
	Commands []command.Command
}

// Data is a fully loaded (or fully recorded, pre-save) replay session.
type Data struct {
	Version         int32
	SessionID       string
	RecordedAt      int64
	DurationMs      int64
	TotalTicks      int32
	PlayerCount     int32
	TickIntervalMs  int32
	RandomSeed      int32
	Ticks           []TickEntry
}

// Encode serializes d to the binary container format: magic, metadata
// block, then the per-tick command log.
func Encode(d Data) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, magic); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, d.Version); err != nil {
		return nil, err
	}
	if err := writeLengthPrefixedString(buf, d.SessionID); err != nil {
		return nil, err
	}
	for _, v := range []int64{d.RecordedAt, d.DurationMs} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	for _, v := range []int32{d.TotalTicks, d.PlayerCount, d.TickIntervalMs, d.RandomSeed} {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(buf, binary.LittleEndian, int32(len(d.Ticks))); err != nil {
		return nil, err
	}
	for _, entry := range d.Ticks {
		if err := binary.Write(buf, binary.LittleEndian, entry.Tick); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, int32(len(entry.Commands))); err != nil {
			return nil, err
		}
		for _, cmd := range entry.Commands {
			wire, err := cmd.Serialize()
			if err != nil {
				return nil, err
			}
			if err := binary.Write(buf, binary.LittleEndian, int32(len(wire))); err != nil {
				return nil, err
			}
			buf.Write(wire)
		}
	}
	return buf.Bytes(), nil
}

// Decode parses the binary container format written by Encode, decoding
// each tick's commands with registry.
func Decode(data []byte, registry *command.Registry) (Data, error) {
	r := bytes.NewReader(data)

	var got uint32
	if err := binary.Read(r, binary.LittleEndian, &got); err != nil {
		return Data{}, ErrInvalidReplayFormat
	}
	if got != magic {
		return Data{}, ErrUnsupportedReplay
	}

	var d Data
	if err := binary.Read(r, binary.LittleEndian, &d.Version); err != nil {
		return Data{}, ErrInvalidReplayFormat
	}
	if d.Version > currentVersion {
		return Data{}, ErrUnsupportedReplay
	}
	sessionID, err := readLengthPrefixedString(r)
	if err != nil {
		return Data{}, ErrInvalidReplayFormat
	}
	d.SessionID = sessionID

	for _, dst := range []*int64{&d.RecordedAt, &d.DurationMs} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return Data{}, ErrInvalidReplayFormat
		}
	}
	for _, dst := range []*int32{&d.TotalTicks, &d.PlayerCount, &d.TickIntervalMs, &d.RandomSeed} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return Data{}, ErrInvalidReplayFormat
		}
	}

	var tickCount int32
	if err := binary.Read(r, binary.LittleEndian, &tickCount); err != nil {
		return Data{}, ErrInvalidReplayFormat
	}
	d.Ticks = make([]TickEntry, tickCount)
	for i := range d.Ticks {
		var entry TickEntry
		if err := binary.Read(r, binary.LittleEndian, &entry.Tick); err != nil {
			return Data{}, ErrInvalidReplayFormat
		}
		var cmdCount int32
		if err := binary.Read(r, binary.LittleEndian, &cmdCount); err != nil {
			return Data{}, ErrInvalidReplayFormat
		}
		entry.Commands = make([]command.Command, cmdCount)
		for j := range entry.Commands {
			var length int32
			if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
				return Data{}, ErrInvalidReplayFormat
			}
			wire := make([]byte, length)
			if _, err := io.ReadFull(r, wire); err != nil {
				return Data{}, ErrInvalidReplayFormat
			}
			cmd, err := registry.Decode(wire)
			if err != nil {
				return Data{}, ErrInvalidReplayFormat
			}
			entry.Commands[j] = cmd
		}
		d.Ticks[i] = entry
	}
	return d, nil
}

func writeLengthPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readLengthPrefixedString(r io.Reader) (string, error) {
	var length int32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
