package engine

import (
	"github.com/xpTURN/Lockstep/command"
)

// InputCommand schedules a locally generated command: its tick is rewritten
// to currentTick+inputDelayTicks and its player ID to the local player, then
// it is inserted into the local buffer and broadcast to peers.
func (e *Engine) InputCommand(cmd command.Command) error {
	cmd.Tick = e.currentTick + int32(e.cfg.InputDelayTicks)
	cmd.PlayerID = e.localPlayerID
	e.buffer.Add(cmd)
	e.predictor.Observe(cmd)

	if e.broadcaster == nil {
		return nil
	}
	return e.broadcaster.BroadcastCommand(cmd)
}

// OnCommandReceived inserts a command arriving from the network into the
// local buffer and reconciles it against any pending prediction for the
// same (tick, player). A kind mismatch against a predicted command forces
// a rollback to that tick.
func (e *Engine) OnCommandReceived(cmd command.Command) error {
	e.buffer.Add(cmd)

	if predictedForTick, ok := e.pendingPredictions[cmd.Tick]; ok {
		if predicted, ok := predictedForTick[cmd.PlayerID]; ok {
			e.predictor.Resolve(predicted, cmd)
			delete(predictedForTick, cmd.PlayerID)
			if len(predictedForTick) == 0 {
				delete(e.pendingPredictions, cmd.Tick)
			}
			if predicted.Kind != cmd.Kind {
				if err := e.Rollback(cmd.Tick); err != nil {
					return err
				}
			}
		}
	}

	if e.state == StatePaused && e.buffer.HasAll(e.currentTick, e.playerCount) {
		e.state = StateRunning
	}
	return nil
}
