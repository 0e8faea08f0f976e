package synth

import (
	"math"

	"gonum.org/v1/gonum/stat/distmv"
)

// byteShares splits a log-uniform total across n languages. The primary
// language (position 0) gets the dominant concentration; extras get
// TailAlpha/rank so later picks are smaller on average.
func byteShares(state *State, cfg BytesConfig, n int) (total float64, counts []int64) {
	total = math.Floor(state.LogUniform(float64(cfg.MinTotal), float64(cfg.MaxTotal)))
	counts = make([]int64, n)
	if n == 1 {
		counts[0] = int64(total)
		return total, counts
	}

	alpha := make([]float64, n)
	alpha[0] = cfg.DominantAlpha
	for rank := 1; rank < n; rank++ {
		alpha[rank] = cfg.TailAlpha / float64(rank)
	}
	shares := distmv.NewDirichlet(alpha, state.Source()).Rand(nil)
	for i, share := range shares {
		counts[i] = max(int64(math.Floor(share*total)), 0)
	}
	return total, counts
}
