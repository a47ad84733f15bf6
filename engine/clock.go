package engine

import (
	"sort"

	"github.com/xpTURN/Lockstep/command"
)

// Update advances the lockstep clock by dtSeconds. Any number of ticks may
// run in one call; each tick is atomic — nothing suspends mid-tick. Only
// Running ticks; a missing confirmation without prediction pauses the
// engine and returns control immediately.
func (e *Engine) Update(dtSeconds float64) error {
	if e.state != StateRunning {
		return nil
	}
	e.accumulatorMs += int64(dtSeconds * 1000)

	for e.accumulatorMs >= int64(e.cfg.TickIntervalMs) && e.state == StateRunning {
		canAdvance := e.buffer.HasAll(e.currentTick, e.playerCount)
		if canAdvance {
			if err := e.executeConfirmedTick(); err != nil {
				return err
			}
		} else if e.cfg.UsePrediction {
			if err := e.executePredictedTick(); err != nil {
				return err
			}
		} else {
			e.state = StatePaused
			break
		}
		e.accumulatorMs -= int64(e.cfg.TickIntervalMs)
	}
	return nil
}

func (e *Engine) executeConfirmedTick() error {
	tick := e.currentTick

	if tick%5 == 0 {
		if _, err := e.sim.CreateSnapshot(); err != nil {
			return err
		}
	}

	cmds := e.buffer.AsList(tick)
	for _, cmd := range cmds {
		e.predictor.Observe(cmd)
	}

	if e.recording {
		if err := e.recorder.RecordTick(tick, cmds); err != nil {
			return err
		}
	}

	e.sim.Tick(cmds)

	if uint32(tick)%e.cfg.SyncCheckInterval == 0 {
		hash := e.sim.StateHash()
		e.localSyncHashes[tick] = hash
		if e.broadcaster != nil {
			if err := e.broadcaster.BroadcastSyncHash(tick, hash, e.localPlayerID); err != nil {
				return err
			}
		}
	}

	e.confirmedTick = tick
	e.currentTick = tick + 1
	if e.onTickExecuted != nil {
		e.onTickExecuted(tick)
	}

	e.cleanupOldData()
	return nil
}

func (e *Engine) executePredictedTick() error {
	tick := e.currentTick

	if tick%5 == 0 {
		if _, err := e.sim.CreateSnapshot(); err != nil {
			return err
		}
	}

	cmds := make([]command.Command, 0, e.playerCount)
	predicted := make(map[int32]command.Command)
	for pid := int32(0); pid < int32(e.playerCount); pid++ {
		if cmd, ok := e.buffer.Get(tick, pid); ok {
			cmds = append(cmds, cmd)
			continue
		}
		p := e.predictor.Predict(tick, pid)
		cmds = append(cmds, p)
		predicted[pid] = p
	}
	sortCommandsByPlayer(cmds)
	if len(predicted) > 0 {
		e.pendingPredictions[tick] = predicted
	}

	e.sim.Tick(cmds)

	e.currentTick = tick + 1
	if e.onTickExecuted != nil {
		e.onTickExecuted(tick)
	}
	return nil
}

func sortCommandsByPlayer(cmds []command.Command) {
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].PlayerID < cmds[j].PlayerID })
}

// cleanupOldData prunes input history and sync-hash records far enough in
// the past that a rollback could never legally reach them again.
func (e *Engine) cleanupOldData() {
	floor := e.currentTick - int32(e.cfg.MaxRollbackTicks) - 10
	if floor <= 0 {
		return
	}
	e.buffer.ClearBefore(floor)
	for tick := range e.localSyncHashes {
		if tick < floor {
			delete(e.localSyncHashes, tick)
		}
	}
}
