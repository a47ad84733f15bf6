package replay

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xpTURN/Lockstep/command"
)

// Recorder captures a lockstep session's confirmed command log as it plays,
// so it can later be saved and replayed deterministically.
type Recorder struct {
	registry *command.Registry
	log      *logrus.Entry

	active         bool
	sessionID      string
	recordedAt     int64
	playerCount    int32
	tickIntervalMs int32
	randomSeed     int32
	ticks          []TickEntry

	totalTicks int32
	durationMs int64
}

// NewRecorder constructs a Recorder that deep-copies commands through
// registry before appending them, so later mutation of the caller's slice
// cannot corrupt the log.
func NewRecorder(registry *command.Registry, log *logrus.Entry) *Recorder {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Recorder{registry: registry, log: log}
}

// Start opens a new recording session. recordedAtUnixNano is supplied by
// the caller rather than read from the clock here, keeping the recorder
// itself free of wall-clock side effects.
func (r *Recorder) Start(playerCount, tickIntervalMs, randomSeed int32, recordedAtUnixNano int64) {
	r.active = true
	r.sessionID = uuid.NewString()
	r.recordedAt = recordedAtUnixNano
	r.playerCount = playerCount
	r.tickIntervalMs = tickIntervalMs
	r.randomSeed = randomSeed
	r.ticks = nil
	r.totalTicks = 0
	r.durationMs = 0
}

// Active reports whether a recording session is currently open.
func (r *Recorder) Active() bool { return r.active }

// RecordTick appends deep copies of cmds at tick. Commands are cloned via
// the registry's serialize/deserialize round trip so the recorder never
// aliases a payload the engine might mutate afterward.
func (r *Recorder) RecordTick(tick int32, cmds []command.Command) error {
	if !r.active {
		return nil
	}
	cloned := make([]command.Command, 0, len(cmds))
	for _, cmd := range cmds {
		clone, err := r.registry.Clone(cmd)
		if err != nil {
			r.log.WithError(err).WithField("tick", tick).Error("failed to clone command for recording")
			return err
		}
		cloned = append(cloned, clone)
	}
	r.ticks = append(r.ticks, TickEntry{Tick: tick, Commands: cloned})
	return nil
}

// Stop freezes the session's metadata and returns the completed Data,
// ready to be passed to Encode.
func (r *Recorder) Stop(totalTicks int32, durationMs int64) Data {
	r.active = false
	r.totalTicks = totalTicks
	r.durationMs = durationMs
	return Data{
		Version:        currentVersion,
		SessionID:      r.sessionID,
		RecordedAt:     r.recordedAt,
		DurationMs:     r.durationMs,
		TotalTicks:     r.totalTicks,
		PlayerCount:    r.playerCount,
		TickIntervalMs: r.tickIntervalMs,
		RandomSeed:     r.randomSeed,
		Ticks:          r.ticks,
	}
}
