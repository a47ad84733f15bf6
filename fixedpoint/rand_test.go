package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandSameSeedSameSequence(t *testing.T) {
	a := NewRand(12345)
	b := NewRand(12345)
	for i := 0; i < 100_000; i++ {
		require.Equal(t, a.NextU64(), b.NextU64())
	}
}

func TestRandStateRoundTrips(t *testing.T) {
	r := NewRand(999)
	for i := 0; i < 50; i++ {
		r.NextU64()
	}
	s0, s1 := r.State()

	restored := &Rand{}
	restored.SetState(s0, s1)
	for i := 0; i < 1000; i++ {
		require.Equal(t, r.NextU64(), restored.NextU64())
	}
}

func TestRandDistinctSeedsDiverge(t *testing.T) {
	a := NewRand(1)
	b := NewRand(2)
	require.NotEqual(t, a.NextU64(), b.NextU64())
}

// Chi-square goodness of fit over 10 bins of 10000 draws; critical value at
// df=9, alpha=0.01 is 21.67.
func TestRandNextIntRangeChiSquare(t *testing.T) {
	r := NewRand(42)
	const bins = 10
	const draws = 10_000
	var counts [bins]int
	for i := 0; i < draws; i++ {
		v := r.NextIntRange(0, bins)
		counts[v]++
	}
	expected := float64(draws) / float64(bins)
	chiSq := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chiSq += diff * diff / expected
	}
	require.Less(t, chiSq, 21.67)
}

func TestRandNextIntRangeDegenerateReturnsMin(t *testing.T) {
	r := NewRand(7)
	require.Equal(t, int64(5), r.NextIntRange(5, 5))
	require.Equal(t, int64(5), r.NextIntRange(5, 1))
}

func TestRandNextFPIsInZeroOneRange(t *testing.T) {
	r := NewRand(3)
	for i := 0; i < 1000; i++ {
		v := r.NextFP()
		require.True(t, v.Raw >= 0 && v.Raw < One)
	}
}

func TestRandShuffleIsPermutation(t *testing.T) {
	r := NewRand(123)
	s := []int{0, 1, 2, 3, 4, 5, 6, 7}
	orig := append([]int(nil), s...)
	Shuffle(r, s)
	require.ElementsMatch(t, orig, s)
}

func TestRandInsideUnitCircleStaysInBounds(t *testing.T) {
	r := NewRand(55)
	for i := 0; i < 200; i++ {
		p := r.InsideUnitCircle()
		require.LessOrEqual(t, p.SqrMagnitude().Raw, One)
	}
}

func TestRandDirection3DIsUnitLength(t *testing.T) {
	r := NewRand(77)
	for i := 0; i < 50; i++ {
		d := r.Direction3D()
		require.InDelta(t, 1.0, d.Magnitude().Float64(), 0.02)
	}
}
