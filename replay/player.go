package replay

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/simulation"
	"github.com/xpTURN/Lockstep/world"
)

// defaultUnitMoveSpeed matches the UnitEntity move speed the host and peer
// commands spawn with at game start; playback must recreate the same
// starting entity set or its state hashes can never match the live run's.
var defaultUnitMoveSpeed = fixedpoint.FromInt(5)

// playState tracks what the Player is currently doing.
type playState int

const (
	playStateIdle playState = iota
	playStatePlaying
	playStatePaused
	playStateFinished
)

// snapshotInterval is how often the player saves its own snapshot while
// resimulating toward a seek target, mirroring the engine's periodic
// snapshot cadence so future seeks stay cheap.
const snapshotInterval = 5

// ErrNoReplayLoaded is returned by playback operations attempted before
// Load.
var ErrNoReplayLoaded = errors.New("replay: no replay loaded")

// Player drives a Simulation through a previously recorded command log,
// with no network and no local input, reproducing the exact tick sequence
// that produced it.
type Player struct {
	sim *simulation.Simulation
	log *logrus.Entry

	data        Data
	ticksByTick map[int32][]command.Command

	state         playState
	speed         float64
	accumulatorMs int64
	currentTick   int32

	onTickPlayed       func(tick int32, cmds []command.Command)
	onPlaybackFinished func()
}

// NewPlayer constructs a Player that ticks sim.
func NewPlayer(sim *simulation.Simulation, log *logrus.Entry) *Player {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Player{sim: sim, log: log, speed: 1}
}

// OnTickPlayed registers the single subscriber notified after each tick is
// fed into the simulation.
func (p *Player) OnTickPlayed(fn func(tick int32, cmds []command.Command)) {
	p.onTickPlayed = fn
}

// OnPlaybackFinished registers the single subscriber notified when the
// last recorded tick has played.
func (p *Player) OnPlaybackFinished(fn func()) {
	p.onPlaybackFinished = fn
}

// Load resets sim and indexes data for playback from tick 0.
func (p *Player) Load(data Data) {
	p.data = data
	p.ticksByTick = make(map[int32][]command.Command, len(data.Ticks))
	for _, entry := range data.Ticks {
		p.ticksByTick[entry.Tick] = entry.Commands
	}
	p.resetToStart()
	p.state = playStateIdle
	p.speed = 1
	p.accumulatorMs = 0
	p.currentTick = 0
}

// resetToStart reinitializes sim at the recorded seed and recreates the
// session's starting entity set: one UnitEntity per recorded player, owned
// by that player, mirroring the host/peer OnGameStart spawn. Without this,
// a replay's StateHash at any tick is computed over an empty world and can
// never match the live run it was recorded from.
func (p *Player) resetToStart() {
	p.sim.Initialize(uint32(p.data.RandomSeed))
	for pid := int32(0); pid < p.data.PlayerCount; pid++ {
		e := world.NewUnitEntity(defaultUnitMoveSpeed)
		e.Owner = pid
		p.sim.World.CreateEntity(e)
	}
}

// Play begins playback from the current tick.
func (p *Player) Play() error {
	if p.ticksByTick == nil {
		return ErrNoReplayLoaded
	}
	p.state = playStatePlaying
	return nil
}

// Pause suspends playback without losing position.
func (p *Player) Pause() {
	if p.state == playStatePlaying {
		p.state = playStatePaused
	}
}

// Resume continues playback after Pause.
func (p *Player) Resume() {
	if p.state == playStatePaused {
		p.state = playStatePlaying
	}
}

// Stop halts playback and releases the loaded replay.
func (p *Player) Stop() {
	p.state = playStateIdle
	p.ticksByTick = nil
}

// SetSpeed sets the playback speed multiplier. Valid values are 0.25, 0.5,
// 1, 2, and 4; any other value is clamped to the nearest of these, the
// larger one when two are equally near.
func (p *Player) SetSpeed(speed float64) {
	allowed := []float64{0.25, 0.5, 1, 2, 4}
	best := allowed[0]
	bestDist := absFloat(speed - best)
	for _, a := range allowed[1:] {
		if d := absFloat(speed - a); d <= bestDist {
			best, bestDist = a, d
		}
	}
	p.speed = best
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// CurrentTick reports the next tick that will play.
func (p *Player) CurrentTick() int32 { return p.currentTick }

// TotalTicks reports the loaded replay's recorded tick count.
func (p *Player) TotalTicks() int32 { return p.data.TotalTicks }

// Update advances playback by dtSeconds, scaled by the current speed
// multiplier, playing every tick the accumulator now covers.
func (p *Player) Update(dtSeconds float64) error {
	if p.state != playStatePlaying {
		return nil
	}
	p.accumulatorMs += int64(dtSeconds * p.speed * 1000)

	for p.accumulatorMs >= p.sim.TickIntervalMs {
		if p.currentTick >= p.data.TotalTicks {
			p.state = playStateFinished
			if p.onPlaybackFinished != nil {
				p.onPlaybackFinished()
			}
			return nil
		}
		if err := p.playTick(p.currentTick); err != nil {
			return err
		}
		p.currentTick++
		p.accumulatorMs -= p.sim.TickIntervalMs
	}
	return nil
}

func (p *Player) playTick(tick int32) error {
	if tick%snapshotInterval == 0 {
		if _, err := p.sim.CreateSnapshot(); err != nil {
			return err
		}
	}
	cmds := p.ticksByTick[tick]
	p.sim.Tick(cmds)
	if p.onTickPlayed != nil {
		p.onTickPlayed(tick, cmds)
	}
	return nil
}

// SeekToTick moves playback to targetTick. Seeking forward plays ticks
// forward from the current position; seeking backward rolls back to the
// nearest earlier snapshot and resimulates forward, snapshotting every
// snapshotInterval ticks so subsequent seeks stay cheap.
func (p *Player) SeekToTick(targetTick int32) error {
	if p.ticksByTick == nil {
		return ErrNoReplayLoaded
	}
	if targetTick < 0 {
		targetTick = 0
	}
	if targetTick > p.data.TotalTicks {
		targetTick = p.data.TotalTicks
	}

	if targetTick < p.currentTick {
		if err := p.sim.Rollback(targetTick); err == nil {
			p.currentTick = p.sim.World.Tick()
		} else if errors.Is(err, simulation.ErrRollbackImpossible) {
			p.resetToStart()
			p.currentTick = 0
		} else {
			return err
		}
	}

	for p.currentTick < targetTick {
		if err := p.playTick(p.currentTick); err != nil {
			return err
		}
		p.currentTick++
	}
	p.accumulatorMs = 0
	return nil
}

// SeekToProgress moves playback to the tick nearest progress, a fraction
// in [0, 1] of the replay's total duration.
func (p *Player) SeekToProgress(progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	target := int32(progress * float64(p.data.TotalTicks))
	return p.SeekToTick(target)
}
