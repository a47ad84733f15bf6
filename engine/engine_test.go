package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/simulation"
	"github.com/xpTURN/Lockstep/world"
)

type fakeBroadcaster struct {
	commands  []command.Command
	syncHashes []struct {
		tick int32
		hash uint64
		pid  int32
	}
}

func (f *fakeBroadcaster) BroadcastCommand(cmd command.Command) error {
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeBroadcaster) BroadcastSyncHash(tick int32, hash uint64, playerID int32) error {
	f.syncHashes = append(f.syncHashes, struct {
		tick int32
		hash uint64
		pid  int32
	}{tick, hash, playerID})
	return nil
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *simulation.Simulation, *fakeBroadcaster) {
	t.Helper()
	sim := simulation.New(simulation.Config{
		MaxSnapshots:   50,
		TickIntervalMs: int64(cfg.TickIntervalMs),
		Factories: map[world.TypeID]world.Factory{
			world.TypeIDUnit: func() world.Entity { return world.NewUnitEntity(fixedpoint.FromInt(5)) },
		},
	})
	bc := &fakeBroadcaster{}
	reg := command.NewRegistry()
	eng := New(cfg, sim, reg, bc, nil)
	return eng, sim, bc
}

// S1-style: two peers given the same seed and the same input sequence
// converge to the same hash after N confirmed ticks.
func TestTwoEnginesConvergeOnIdenticalInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UsePrediction = false

	run := func() uint64 {
		eng, sim, _ := newTestEngine(t, cfg)
		eng.Initialize(12345, 0, 1)
		sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))
		require.NoError(t, eng.Start())

		cmd := command.Command{
			Kind: command.KindMove, PlayerID: 0, Tick: 0,
			Payload: &command.Move{X: fixedpoint.FromInt(10), Z: fixedpoint.FromInt(10)},
		}
		eng.buffer.Add(cmd)

		for i := 0; i < 100; i++ {
			require.NoError(t, eng.Update(0.05))
		}
		return sim.StateHash()
	}

	require.Equal(t, run(), run())
}

// S2-style: divergent local inputs across two simulated peers produce
// different hashes.
func TestDivergentInputsProduceDifferentHashes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UsePrediction = false

	runWith := func(x, z int64) uint64 {
		eng, sim, _ := newTestEngine(t, cfg)
		eng.Initialize(12345, 0, 1)
		sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))
		require.NoError(t, eng.Start())

		cmd := command.Command{
			Kind: command.KindMove, PlayerID: 0, Tick: 0,
			Payload: &command.Move{X: fixedpoint.FromInt(x), Z: fixedpoint.FromInt(z)},
		}
		eng.buffer.Add(cmd)
		for i := 0; i < 100; i++ {
			require.NoError(t, eng.Update(0.05))
		}
		return sim.StateHash()
	}

	require.NotEqual(t, runWith(10, 0), runWith(0, 10))
}

func TestStartRequiresWaitingForPlayers(t *testing.T) {
	eng, _, _ := newTestEngine(t, DefaultConfig())
	err := eng.Start()
	require.ErrorContains(t, err, "cannot start")
}

func TestUpdateWithoutAllInputsPausesWhenPredictionDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UsePrediction = false
	eng, _, _ := newTestEngine(t, cfg)
	eng.Initialize(1, 0, 2)
	require.NoError(t, eng.Start())

	require.NoError(t, eng.Update(0.05))
	require.Equal(t, StatePaused, eng.State())
}

func TestPredictionAdvancesAndReconciliationRollsBackOnMismatch(t *testing.T) {
	cfg := DefaultConfig()
	eng, sim, _ := newTestEngine(t, cfg)
	eng.Initialize(1, 0, 2)
	sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))
	require.NoError(t, eng.Start())

	eng.buffer.Add(command.Command{Kind: command.KindEmpty, PlayerID: 0, Tick: 0, Payload: &command.Empty{}})
	eng.buffer.Add(command.Command{Kind: command.KindEmpty, PlayerID: 1, Tick: 0, Payload: &command.Empty{}})
	eng.predictor.Observe(command.Command{Kind: command.KindEmpty, PlayerID: 1, Tick: 0, Payload: &command.Empty{}})

	for i := 0; i < 5; i++ {
		eng.buffer.Add(command.Command{Kind: command.KindEmpty, PlayerID: 0, Tick: int32(i), Payload: &command.Empty{}})
		require.NoError(t, eng.Update(0.05))
	}
	require.Equal(t, int32(5), eng.CurrentTick())

	err := eng.OnCommandReceived(command.Command{
		Kind: command.KindAction, PlayerID: 1, Tick: 1,
		Payload: &command.Action{ActionID: 1},
	})
	require.NoError(t, err)

	// The Action contradicts the Empty predicted for tick 1, so the engine
	// rolls back to the tick-0 snapshot, drops every pending prediction,
	// and resimulates ticks 0 and 1; tick 2 still lacks player 1's input.
	require.Empty(t, eng.pendingPredictions)
	require.Equal(t, int32(2), eng.CurrentTick())
}

func TestRollbackRejectsFutureTarget(t *testing.T) {
	eng, _, _ := newTestEngine(t, DefaultConfig())
	eng.Initialize(1, 0, 1)
	require.NoError(t, eng.Start())
	err := eng.Rollback(5)
	require.ErrorIs(t, err, ErrRollbackRejected)
}

func TestRollbackRejectsBeyondWindow(t *testing.T) {
	eng, _, _ := newTestEngine(t, DefaultConfig())
	eng.Initialize(1, 0, 1)
	require.NoError(t, eng.Start())
	eng.currentTick = 100
	err := eng.Rollback(0)
	require.ErrorIs(t, err, ErrRollbackRejected)
}

func TestOnSyncHashReceivedTriggersDesyncOnMismatch(t *testing.T) {
	eng, _, _ := newTestEngine(t, DefaultConfig())
	eng.Initialize(1, 0, 1)
	require.NoError(t, eng.Start())

	var fired bool
	eng.OnDesyncDetected(func(localHash, remoteHash uint64) { fired = true })

	eng.localSyncHashes[10] = 111
	eng.currentTick = 20
	eng.OnSyncHashReceived(10, 222, 1)
	require.True(t, fired)
}

func TestOnSyncHashReceivedIgnoresMatchingHash(t *testing.T) {
	eng, _, _ := newTestEngine(t, DefaultConfig())
	eng.Initialize(1, 0, 1)
	require.NoError(t, eng.Start())

	var fired bool
	eng.OnDesyncDetected(func(localHash, remoteHash uint64) { fired = true })

	eng.localSyncHashes[10] = 111
	eng.OnSyncHashReceived(10, 111, 1)
	require.False(t, fired)
}
