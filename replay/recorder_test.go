package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
)

func TestRecorderCapturesDeepCopies(t *testing.T) {
	reg := command.NewRegistry()
	rec := NewRecorder(reg, nil)
	rec.Start(2, 50, 42, 1000)
	require.True(t, rec.Active())

	move := &command.Move{X: fixedpoint.FromInt(1)}
	cmd := command.Command{Kind: command.KindMove, PlayerID: 0, Tick: 0, Payload: move}
	require.NoError(t, rec.RecordTick(0, []command.Command{cmd}))

	move.X = fixedpoint.FromInt(99) // mutate after recording

	data := rec.Stop(1, 5000)
	require.False(t, rec.Active())
	require.Len(t, data.Ticks, 1)
	recordedMove := data.Ticks[0].Commands[0].Payload.(*command.Move)
	require.Equal(t, fixedpoint.FromInt(1), recordedMove.X)
}

func TestRecorderIgnoresTicksWhenNotActive(t *testing.T) {
	rec := NewRecorder(command.NewRegistry(), nil)
	require.NoError(t, rec.RecordTick(0, []command.Command{{Kind: command.KindEmpty, Payload: &command.Empty{}}}))
	data := rec.Stop(0, 0)
	require.Empty(t, data.Ticks)
}
