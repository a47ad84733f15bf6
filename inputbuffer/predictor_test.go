package inputbuffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpTURN/Lockstep/command"
)

func TestPredictWithNoHistoryReturnsEmpty(t *testing.T) {
	p := NewPredictor()
	got := p.Predict(7, 2)
	require.Equal(t, command.KindEmpty, got.Kind)
	require.Equal(t, int32(7), got.Tick)
	require.Equal(t, int32(2), got.PlayerID)
}

func TestPredictClonesLastObservedCommandWithRewrittenTick(t *testing.T) {
	p := NewPredictor()
	p.Observe(moveCmd(3, 1))

	got := p.Predict(8, 1)
	require.Equal(t, command.KindMove, got.Kind)
	require.Equal(t, int32(8), got.Tick)
	require.Equal(t, int32(1), got.PlayerID)
}

func TestResolveTracksAccuracy(t *testing.T) {
	p := NewPredictor()
	predicted := p.Predict(1, 0)
	actual := moveCmd(1, 0)

	p.Resolve(predicted, actual)
	correct, total := p.Accuracy()
	require.Equal(t, 0, correct)
	require.Equal(t, 1, total)

	p.Resolve(actual, actual)
	correct, total = p.Accuracy()
	require.Equal(t, 1, correct)
	require.Equal(t, 2, total)
}
