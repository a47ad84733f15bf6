// Package simulation drives the deterministic world forward one tick at a
// time: applying commands, advancing entities, running extension system
// passes, and supporting rollback to an earlier snapshot for resimulation.
package simulation

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/world"
)

// ErrRollbackImpossible is returned when Rollback has no snapshot at or
// before the requested tick. The caller decides what to do — there is no
// way to recover the pre-snapshot state deterministically.
var ErrRollbackImpossible = errors.New("simulation: no snapshot at or before target tick")

// System is an extension point for per-tick behavior beyond entities
// applying their own commands and advancing themselves — collision
// resolution, AI, and similar cross-entity passes live here.
type System interface {
	Run(w *world.World)
}

// Simulation owns the world, its snapshot history, and the deterministic
// PRNG stream. Entities are created, mutated, and destroyed only from
// within Tick or Restore.
type Simulation struct {
	World     *world.World
	Ring      *world.Ring
	Rand      *fixedpoint.Rand
	Factories map[world.TypeID]world.Factory
	Systems   []System

	TickIntervalMs int64

	log *logrus.Entry
}

// Config bundles the construction-time parameters a Simulation needs.
type Config struct {
	MaxSnapshots   int
	TickIntervalMs int64
	Factories      map[world.TypeID]world.Factory
	Log            *logrus.Entry
}

// New returns an initialized Simulation with an empty world.
func New(cfg Config) *Simulation {
	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	factories := cfg.Factories
	if factories == nil {
		factories = make(map[world.TypeID]world.Factory)
	}
	return &Simulation{
		World:          world.NewWorld(),
		Ring:           world.NewRing(cfg.MaxSnapshots),
		Rand:           &fixedpoint.Rand{},
		Factories:      factories,
		TickIntervalMs: cfg.TickIntervalMs,
		log:            log,
	}
}

// AddSystem registers an extension pass run at the end of every tick, in
// registration order.
func (s *Simulation) AddSystem(sys System) {
	s.Systems = append(s.Systems, sys)
}

// Initialize clears the world and snapshot ring and reseeds the PRNG.
func (s *Simulation) Initialize(seed uint32) {
	s.World.Clear()
	s.Ring.ClearAll()
	s.Rand.Seed(seed)
}

// Tick applies cmds (already ordered by ascending player ID by the caller)
// to their owning entities, advances every entity, runs registered system
// passes, then increments the world tick. Command application order within
// a tick is exactly cmds' order — callers must supply it pre-sorted.
func (s *Simulation) Tick(cmds []command.Command) {
	for _, cmd := range cmds {
		for _, e := range s.World.Entities() {
			if e.OwnerID() == cmd.PlayerID {
				e.ApplyCommand(cmd)
			}
		}
	}
	for _, e := range s.World.Entities() {
		e.SimulationStep(s.TickIntervalMs)
	}
	for _, sys := range s.Systems {
		sys.Run(s.World)
	}
	s.World.AdvanceTick()
}

// CreateSnapshot captures the world's current state and saves it to the
// ring, returning the snapshot taken.
func (s *Simulation) CreateSnapshot() (world.Snapshot, error) {
	snap, err := world.CreateSnapshot(s.World)
	if err != nil {
		return world.Snapshot{}, err
	}
	s.Ring.Save(snap)
	return snap, nil
}

// StateHash returns the world's current content hash.
func (s *Simulation) StateHash() uint64 {
	return s.World.Hash()
}

// Rollback restores the world to the nearest snapshot at or before
// targetTick and discards any snapshot newer than the one restored to.
// Returns ErrRollbackImpossible if no such snapshot exists; the caller
// (the lockstep engine) is responsible for deciding what happens next.
func (s *Simulation) Rollback(targetTick int32) error {
	snap, ok := s.Ring.NearestAtOrBefore(targetTick)
	if !ok {
		s.log.WithField("target_tick", targetTick).Warn("rollback impossible: no snapshot at or before target")
		return ErrRollbackImpossible
	}
	if err := world.Restore(s.World, snap, s.Factories); err != nil {
		return err
	}
	s.Ring.ClearAfter(snap.Tick)
	return nil
}
