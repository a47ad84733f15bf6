// Package inputbuffer stores per-(tick,player) commands with a bounded
// retention window, and predicts a missing slot from recent history so the
// engine can keep advancing under prediction.
package inputbuffer

import (
	"sort"

	"github.com/xpTURN/Lockstep/command"
)

// Buffer is a tick -> playerID -> Command store. oldest/newestTick track
// the occupied range incrementally on insert; ClearBefore and ClearAfter
// recompute them by scanning the remaining ticks.
type Buffer struct {
	slots      map[int32]map[int32]command.Command
	oldestTick int32
	newestTick int32
	hasAny     bool
}

// NewBuffer returns an empty input buffer.
func NewBuffer() *Buffer {
	return &Buffer{slots: make(map[int32]map[int32]command.Command)}
}

// Add stores cmd at (cmd.Tick, cmd.PlayerID), overwriting whatever was
// there before — the authoritative latest write always wins.
func (b *Buffer) Add(cmd command.Command) {
	row, ok := b.slots[cmd.Tick]
	if !ok {
		row = make(map[int32]command.Command)
		b.slots[cmd.Tick] = row
	}
	row[cmd.PlayerID] = cmd

	if !b.hasAny {
		b.oldestTick, b.newestTick = cmd.Tick, cmd.Tick
		b.hasAny = true
		return
	}
	if cmd.Tick < b.oldestTick {
		b.oldestTick = cmd.Tick
	}
	if cmd.Tick > b.newestTick {
		b.newestTick = cmd.Tick
	}
}

// Get returns the command for (tick, playerID), if present.
func (b *Buffer) Get(tick, playerID int32) (command.Command, bool) {
	row, ok := b.slots[tick]
	if !ok {
		return command.Command{}, false
	}
	cmd, ok := row[playerID]
	return cmd, ok
}

// HasSlot reports whether (tick, playerID) is occupied.
func (b *Buffer) HasSlot(tick, playerID int32) bool {
	_, ok := b.Get(tick, playerID)
	return ok
}

// HasAll reports whether exactly playerCount distinct player slots
// (0..playerCount-1) are present at tick.
func (b *Buffer) HasAll(tick int32, playerCount int) bool {
	row, ok := b.slots[tick]
	if !ok {
		return false
	}
	if len(row) < playerCount {
		return false
	}
	for pid := int32(0); pid < int32(playerCount); pid++ {
		if _, ok := row[pid]; !ok {
			return false
		}
	}
	return true
}

// AsList returns tick's commands ordered by ascending player ID, the
// ordering determinism requires when a tick is handed to the simulation.
func (b *Buffer) AsList(tick int32) []command.Command {
	row, ok := b.slots[tick]
	if !ok {
		return nil
	}
	out := make([]command.Command, 0, len(row))
	for _, cmd := range row {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// OldestTick returns the lowest occupied tick. ok is false if the buffer
// is empty.
func (b *Buffer) OldestTick() (int32, bool) {
	return b.oldestTick, b.hasAny
}

// NewestTick returns the highest occupied tick. ok is false if the buffer
// is empty.
func (b *Buffer) NewestTick() (int32, bool) {
	return b.newestTick, b.hasAny
}

// ClearBefore drops every tick strictly less than tick.
func (b *Buffer) ClearBefore(tick int32) {
	for t := range b.slots {
		if t < tick {
			delete(b.slots, t)
		}
	}
	b.recomputeBounds()
}

// ClearAfter drops every tick strictly greater than tick.
func (b *Buffer) ClearAfter(tick int32) {
	for t := range b.slots {
		if t > tick {
			delete(b.slots, t)
		}
	}
	b.recomputeBounds()
}

// Clear empties the buffer entirely.
func (b *Buffer) Clear() {
	b.slots = make(map[int32]map[int32]command.Command)
	b.hasAny = false
}

func (b *Buffer) recomputeBounds() {
	b.hasAny = false
	for t := range b.slots {
		if !b.hasAny || t < b.oldestTick {
			b.oldestTick = t
		}
		if !b.hasAny || t > b.newestTick {
			b.newestTick = t
		}
		b.hasAny = true
	}
}
