package replay

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/fixedpoint"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := command.NewRegistry()
	d := Data{
		Version:        currentVersion,
		SessionID:      "abc-123",
		RecordedAt:     1000,
		DurationMs:     5000,
		TotalTicks:     2,
		PlayerCount:    2,
		TickIntervalMs: 50,
		RandomSeed:     7,
		Ticks: []TickEntry{
			{Tick: 0, Commands: []command.Command{
				{Kind: command.KindMove, PlayerID: 0, Tick: 0, Payload: &command.Move{X: fixedpoint.FromInt(1)}},
				{Kind: command.KindEmpty, PlayerID: 1, Tick: 0, Payload: &command.Empty{}},
			}},
			{Tick: 1, Commands: []command.Command{
				{Kind: command.KindAction, PlayerID: 0, Tick: 1, Payload: &command.Action{ActionID: 9}},
			}},
		},
	}

	wire, err := Encode(d)
	require.NoError(t, err)

	got, err := Decode(wire, reg)
	require.NoError(t, err)
	require.Equal(t, d.SessionID, got.SessionID)
	require.Equal(t, d.TotalTicks, got.TotalTicks)
	require.Equal(t, d.RandomSeed, got.RandomSeed)
	require.Len(t, got.Ticks, 2)
	require.Len(t, got.Ticks[0].Commands, 2)
	require.Equal(t, command.KindMove, got.Ticks[0].Commands[0].Kind)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0}, command.NewRegistry())
	require.ErrorIs(t, err, ErrUnsupportedReplay)
}

func TestDecodeRejectsFutureVersion(t *testing.T) {
	d := Data{Version: currentVersion + 1, SessionID: "x"}
	wire, err := Encode(d)
	require.NoError(t, err)
	_, err = Decode(wire, command.NewRegistry())
	require.ErrorIs(t, err, ErrUnsupportedReplay)
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	d := Data{Version: currentVersion, SessionID: "x", Ticks: []TickEntry{{Tick: 0, Commands: nil}}}
	wire, err := Encode(d)
	require.NoError(t, err)
	_, err = Decode(wire[:len(wire)-2], command.NewRegistry())
	require.ErrorIs(t, err, ErrInvalidReplayFormat)
}
