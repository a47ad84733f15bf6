package inputbuffer

import "github.com/xpTURN/Lockstep/command"

// Predictor fills a missing (tick, playerID) slot with that player's most
// recent known command, rewritten to the requested tick. It tracks a
// correct/total accuracy counter for observability only — the engine must
// never branch behavior on it.
type Predictor struct {
	lastByPlayer map[int32]command.Command
	correct      int
	total        int
}

// NewPredictor returns an empty predictor.
func NewPredictor() *Predictor {
	return &Predictor{lastByPlayer: make(map[int32]command.Command)}
}

// Observe records cmd as the most recent known command for its player, so
// future Predict calls for that player can clone it.
func (p *Predictor) Observe(cmd command.Command) {
	p.lastByPlayer[cmd.PlayerID] = cmd
}

// Predict returns a best-guess command for (tick, playerID): a clone of the
// player's last known command with Tick rewritten, or Empty if nothing has
// ever been observed for that player.
func (p *Predictor) Predict(tick, playerID int32) command.Command {
	last, ok := p.lastByPlayer[playerID]
	if !ok {
		return command.Command{
			Kind:     command.KindEmpty,
			PlayerID: playerID,
			Tick:     tick,
			Payload:  &command.Empty{},
		}
	}
	predicted := last
	predicted.Tick = tick
	return predicted
}

// Resolve compares a predicted command against the real command that later
// arrived for the same (tick, playerID), updating the accuracy counter.
// "Correct" means the predicted kind matched the real kind.
func (p *Predictor) Resolve(predicted, actual command.Command) {
	p.total++
	if predicted.Kind == actual.Kind {
		p.correct++
	}
}

// Accuracy returns (correct, total) predictions resolved so far.
func (p *Predictor) Accuracy() (correct, total int) {
	return p.correct, p.total
}
