package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/simulation"
	"github.com/xpTURN/Lockstep/world"
)

func newTestSim(t *testing.T) *simulation.Simulation {
	t.Helper()
	return simulation.New(simulation.Config{
		MaxSnapshots:   50,
		TickIntervalMs: 50,
		Factories: map[world.TypeID]world.Factory{
			world.TypeIDUnit: func() world.Entity { return world.NewUnitEntity(fixedpoint.FromInt(5)) },
		},
	})
}

func buildTestReplay(totalTicks int32) Data {
	ticks := make([]TickEntry, 0, totalTicks)
	for i := int32(0); i < totalTicks; i++ {
		ticks = append(ticks, TickEntry{
			Tick: i,
			Commands: []command.Command{
				{Kind: command.KindMove, PlayerID: 0, Tick: i, Payload: &command.Move{X: fixedpoint.FromInt(1)}},
			},
		})
	}
	return Data{
		Version: currentVersion, SessionID: "test", TotalTicks: totalTicks,
		PlayerCount: 1, TickIntervalMs: 50, RandomSeed: 1, Ticks: ticks,
	}
}

func TestPlayerPlaysRecordedTicksInOrder(t *testing.T) {
	sim := newTestSim(t)
	sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))

	p := NewPlayer(sim, nil)
	p.Load(buildTestReplay(10))

	var played []int32
	p.OnTickPlayed(func(tick int32, cmds []command.Command) { played = append(played, tick) })
	var finished bool
	p.OnPlaybackFinished(func() { finished = true })

	require.NoError(t, p.Play())
	for i := 0; i < 11; i++ {
		require.NoError(t, p.Update(0.05))
	}
	require.True(t, finished)
	require.Len(t, played, 10)
	require.Equal(t, int32(0), played[0])
	require.Equal(t, int32(9), played[9])
}

func TestPlayerPauseStopsAdvancing(t *testing.T) {
	sim := newTestSim(t)
	sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))

	p := NewPlayer(sim, nil)
	p.Load(buildTestReplay(10))
	require.NoError(t, p.Play())
	require.NoError(t, p.Update(0.05))
	require.Equal(t, int32(1), p.CurrentTick())

	p.Pause()
	require.NoError(t, p.Update(0.05))
	require.Equal(t, int32(1), p.CurrentTick())

	p.Resume()
	require.NoError(t, p.Update(0.05))
	require.Equal(t, int32(2), p.CurrentTick())
}

func TestPlayerSeekForwardPlaysIntermediateTicks(t *testing.T) {
	sim := newTestSim(t)
	sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))

	p := NewPlayer(sim, nil)
	p.Load(buildTestReplay(20))

	require.NoError(t, p.SeekToTick(10))
	require.Equal(t, int32(10), p.CurrentTick())
	require.Equal(t, int32(10), sim.World.Tick())
}

func TestPlayerSeekBackwardResimulatesFromSnapshot(t *testing.T) {
	sim := newTestSim(t)
	sim.World.CreateEntity(world.NewUnitEntity(fixedpoint.FromInt(5)))

	p := NewPlayer(sim, nil)
	p.Load(buildTestReplay(20))

	require.NoError(t, p.SeekToTick(12))
	require.NoError(t, p.SeekToTick(6))
	require.Equal(t, int32(6), p.CurrentTick())
	require.Equal(t, int32(6), sim.World.Tick())
}

func TestPlayerSetSpeedClampsToNearestAllowed(t *testing.T) {
	p := NewPlayer(newTestSim(t), nil)
	p.SetSpeed(3)
	require.Equal(t, 4.0, p.speed)
	p.SetSpeed(0.1)
	require.Equal(t, 0.25, p.speed)
}

func TestPlayWithoutLoadReturnsError(t *testing.T) {
	p := NewPlayer(newTestSim(t), nil)
	err := p.Play()
	require.ErrorIs(t, err, ErrNoReplayLoaded)
}
