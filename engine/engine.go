// Package engine implements the lockstep clock: gating ticks on input
// availability, predicting and rolling back when prediction misses, and
// emitting sync hashes so peers can catch a desync before it compounds.
package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/inputbuffer"
	"github.com/xpTURN/Lockstep/simulation"
)

// State is a position in the engine's lifecycle state machine:
// Idle -> WaitingForPlayers -> Running <-> Paused -> Finished.
type State int

const (
	StateIdle State = iota
	StateWaitingForPlayers
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForPlayers:
		return "waiting_for_players"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Config holds the engine's tunable lockstep parameters.
type Config struct {
	TickIntervalMs    uint32
	InputDelayTicks    uint32
	MaxRollbackTicks   uint32
	SyncCheckInterval  uint32
	UsePrediction      bool
}

// DefaultConfig returns the spec's default tuning.
func DefaultConfig() Config {
	return Config{
		TickIntervalMs:    50,
		InputDelayTicks:   2,
		MaxRollbackTicks:  10,
		SyncCheckInterval: 30,
		UsePrediction:     true,
	}
}

// Broadcaster is the network-facing capability the engine needs: sending a
// locally generated command or sync hash to peers. The engine never talks
// to a transport directly.
type Broadcaster interface {
	BroadcastCommand(cmd command.Command) error
	BroadcastSyncHash(tick int32, hash uint64, playerID int32) error
}

// Recorder is the replay capability the engine appends confirmed ticks to
// when recording is enabled.
type Recorder interface {
	RecordTick(tick int32, cmds []command.Command) error
}

// Engine is the host-facing lockstep driver. It owns the input buffer,
// predictor, and pending-prediction table; the simulation and world they
// feed are owned by *simulation.Simulation.
type Engine struct {
	cfg Config
	log *logrus.Entry

	sim      *simulation.Simulation
	registry *command.Registry
	buffer   *inputbuffer.Buffer
	predictor *inputbuffer.Predictor

	broadcaster Broadcaster
	recorder    Recorder
	recording   bool

	state         State
	localPlayerID int32
	playerCount   int

	currentTick   int32
	confirmedTick int32
	accumulatorMs int64

	pendingPredictions map[int32]map[int32]command.Command
	localSyncHashes     map[int32]uint64

	onTickExecuted   func(tick int32)
	onDesyncDetected func(localHash, remoteHash uint64)
}

// New constructs an Engine in the Idle state.
func New(cfg Config, sim *simulation.Simulation, registry *command.Registry, broadcaster Broadcaster, log *logrus.Entry) *Engine {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Engine{
		cfg:                 cfg,
		log:                 log,
		sim:                 sim,
		registry:            registry,
		buffer:              inputbuffer.NewBuffer(),
		predictor:           inputbuffer.NewPredictor(),
		broadcaster:         broadcaster,
		state:               StateIdle,
		pendingPredictions:  make(map[int32]map[int32]command.Command),
		localSyncHashes:     make(map[int32]uint64),
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return e.state }

// CurrentTick returns the next tick to be executed.
func (e *Engine) CurrentTick() int32 { return e.currentTick }

// Initialize reseeds the simulation and moves the engine to
// WaitingForPlayers. seed and playerCount come from the host-authoritative
// GameStart message (or the local host's own choice, if hosting).
func (e *Engine) Initialize(seed uint32, localPlayerID int32, playerCount int) {
	e.sim.Initialize(seed)
	e.buffer.Clear()
	e.pendingPredictions = make(map[int32]map[int32]command.Command)
	e.localSyncHashes = make(map[int32]uint64)
	e.localPlayerID = localPlayerID
	e.playerCount = playerCount
	e.currentTick = 0
	e.confirmedTick = 0
	e.accumulatorMs = 0
	e.state = StateWaitingForPlayers
}

// EnableRecording attaches rec and marks the engine as recording confirmed
// ticks from this point forward.
func (e *Engine) EnableRecording(rec Recorder) {
	e.recorder = rec
	e.recording = rec != nil
}

// Start transitions WaitingForPlayers -> Running, which is the only legal
// source state.
func (e *Engine) Start() error {
	if e.state != StateWaitingForPlayers {
		return fmt.Errorf("engine: cannot start from state %s", e.state)
	}
	e.state = StateRunning
	return nil
}

// Stop transitions the engine to Finished from any state. Nothing in
// flight is interrupted — Stop simply prevents further ticks.
func (e *Engine) Stop() {
	e.state = StateFinished
}

// OnTickExecuted registers the single subscriber notified after tick T
// executes, strictly before any call for T+1.
func (e *Engine) OnTickExecuted(fn func(tick int32)) { e.onTickExecuted = fn }

// OnDesyncDetected registers the single subscriber notified when a remote
// sync hash disagrees with the local one for the same tick.
func (e *Engine) OnDesyncDetected(fn func(localHash, remoteHash uint64)) { e.onDesyncDetected = fn }
