package fixedpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSinMatchesMathSinWithinTolerance(t *testing.T) {
	for deg := -350; deg <= 350; deg += 10 {
		rad := float64(deg) * math.Pi / 180
		got := Sin(FromFloat64(rad)).Float64()
		require.InDelta(t, math.Sin(rad), got, 0.01)
	}
}

func TestCosMatchesMathCosWithinTolerance(t *testing.T) {
	for deg := -350; deg <= 350; deg += 10 {
		rad := float64(deg) * math.Pi / 180
		got := Cos(FromFloat64(rad)).Float64()
		require.InDelta(t, math.Cos(rad), got, 0.01)
	}
}

func TestAtan2MatchesMathAtan2WithinTolerance(t *testing.T) {
	cases := [][2]float64{
		{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
		{0, 1}, {1, 0}, {0, -1}, {-1, 0},
		{5, 0.001}, {-5, 0.001},
	}
	for _, c := range cases {
		y, x := c[0], c[1]
		got := Atan2(FromFloat64(y), FromFloat64(x)).Float64()
		require.InDelta(t, math.Atan2(y, x), got, 0.05)
	}
}

func TestAtan2OfZeroIsZero(t *testing.T) {
	require.Equal(t, Zero, Atan2(Zero, Zero))
}

func TestAcosOfOneIsZero(t *testing.T) {
	require.InDelta(t, 0.0, Acos(one).Float64(), 0.01)
}

func TestAcosClampsOutOfDomainInput(t *testing.T) {
	got := Acos(FromFloat64(1.5)).Float64()
	require.InDelta(t, 0.0, got, 0.01)
}

func TestTanUndefinedAtHalfPiReturnsMax(t *testing.T) {
	require.Equal(t, MaxFP, Tan(halfPiFP))
}
