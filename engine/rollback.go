package engine

import (
	"errors"
	"fmt"

	"github.com/xpTURN/Lockstep/simulation"
)

// ErrRollbackRejected is returned when a rollback target is not strictly
// behind the current tick, or lies outside the configured rollback window.
var ErrRollbackRejected = errors.New("engine: rollback target out of range")

// Rollback restores the simulation to the nearest snapshot at or before
// targetTick, discards pending predictions beyond it (buffered input is
// kept, see below), then resimulates forward tick by tick until it either catches back up to
// currentTick or runs out of confirmed input — at which point it stops and
// waits for the missing input to arrive, same as normal operation.
//
// A missing snapshot is logged and swallowed (RollbackImpossible in
// spec terms): the engine keeps running at its current tick, and recovery
// beyond that is left to the host.
func (e *Engine) Rollback(targetTick int32) error {
	if targetTick >= e.currentTick {
		return fmt.Errorf("%w: target %d >= current %d", ErrRollbackRejected, targetTick, e.currentTick)
	}
	if targetTick < e.currentTick-int32(e.cfg.MaxRollbackTicks) {
		return fmt.Errorf("%w: target %d beyond window", ErrRollbackRejected, targetTick)
	}

	if err := e.sim.Rollback(targetTick); err != nil {
		if errors.Is(err, simulation.ErrRollbackImpossible) {
			e.log.WithField("target_tick", targetTick).Warn("rollback impossible, continuing at current tick")
			return nil
		}
		return err
	}

	// The input buffer is NOT cleared here: it holds confirmed commands
	// (local or network-received), and those are exactly what the forward
	// resimulation below needs. Only pendingPredictions — this engine's own
	// speculative guesses — are discarded, since the rollback was triggered
	// by one of them turning out wrong.
	restoredTick := e.sim.World.Tick()
	for tick := range e.pendingPredictions {
		if tick > restoredTick {
			delete(e.pendingPredictions, tick)
		}
	}

	for t := restoredTick; t < e.currentTick; t++ {
		if !e.buffer.HasAll(t, e.playerCount) {
			e.currentTick = t
			return nil
		}
		e.sim.Tick(e.buffer.AsList(t))
	}
	return nil
}

// HandleDesync processes a sync-hash mismatch reported by the network
// layer: fires the desync event and attempts a rollback to the checkpoint
// tick. If the rollback itself fails, the engine keeps running but the
// application should treat the session as compromised.
func (e *Engine) HandleDesync(tick int32, localHash, remoteHash uint64) {
	e.log.WithFields(map[string]interface{}{
		"tick":        tick,
		"local_hash":  localHash,
		"remote_hash": remoteHash,
	}).Warn("desync detected")

	if e.onDesyncDetected != nil {
		e.onDesyncDetected(localHash, remoteHash)
	}
	if err := e.Rollback(tick); err != nil {
		e.log.WithError(err).Error("rollback after desync failed, session may be compromised")
	}
}

// OnSyncHashReceived compares a remote peer's sync hash for tick against
// the engine's own recorded hash for that tick, if any, and triggers
// desync handling on mismatch.
func (e *Engine) OnSyncHashReceived(tick int32, remoteHash uint64, _ int32) {
	localHash, ok := e.localSyncHashes[tick]
	if !ok || localHash == remoteHash {
		return
	}
	e.HandleDesync(tick, localHash, remoteHash)
}
