package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// splitChains cuts every chain in half so that within-chain drift shows up
// as between-chain disagreement. Chains shorter than 4 draws are unusable.
func splitChains(chains [][]float64) [][]float64 {
	var out [][]float64
	for _, c := range chains {
		half := len(c) / 2
		if half < 2 {
			return nil
		}
		out = append(out, c[:half], c[len(c)-half:])
	}
	return out
}

// chainMoments returns the per-chain means, the mean within-chain variance W
// and the pooled variance estimate var+.
func chainMoments(chains [][]float64) (means []float64, w, varPlus float64) {
	n := float64(len(chains[0]))
	means = make([]float64, len(chains))
	variances := make([]float64, len(chains))
	for i, c := range chains {
		means[i], variances[i] = stat.MeanVariance(c, nil)
	}
	w = stat.Mean(variances, nil)
	b := 0.0
	if len(chains) > 1 {
		b = n * stat.Variance(means, nil)
	}
	varPlus = (n-1)/n*w + b/n
	return means, w, varPlus
}

// SplitRhat computes the split potential scale reduction factor over the
// given chains. Values near 1 indicate agreement; NaN means too few draws.
func SplitRhat(chains [][]float64) float64 {
	split := splitChains(chains)
	if len(split) == 0 {
		return math.NaN()
	}
	_, w, varPlus := chainMoments(split)
	if w == 0 {
		if varPlus == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return math.Sqrt(varPlus / w)
}

// EffectiveSampleSize estimates the number of independent draws carried by
// the chains, using split chains and Geyer's initial monotone sequence on the
// combined autocorrelation.
func EffectiveSampleSize(chains [][]float64) float64 {
	split := splitChains(chains)
	if len(split) == 0 {
		return math.NaN()
	}
	m := len(split)
	n := len(split[0])
	total := float64(m * n)

	means, w, varPlus := chainMoments(split)
	if varPlus == 0 {
		return total
	}

	// rho returns the combined autocorrelation at lag t.
	rho := func(t int) float64 {
		acov := 0.0
		for i, c := range split {
			s := 0.0
			for j := 0; j+t < n; j++ {
				s += (c[j] - means[i]) * (c[j+t] - means[i])
			}
			acov += s / float64(n)
		}
		acov /= float64(m)
		return 1 - (w-acov)/varPlus
	}

	// Sum positive, monotonically non-increasing pairs rho(2k) + rho(2k+1).
	tau := -1.0
	prev := math.Inf(1)
	for t := 0; t+1 < n; t += 2 {
		pair := rho(t) + rho(t+1)
		if t == 0 {
			// rho(0) is 1 by definition; the estimator above differs by the n-1 factor.
			pair = 1 + rho(1)
		}
		if pair <= 0 {
			break
		}
		pair = min(pair, prev)
		prev = pair
		tau += 2 * pair
	}
	tau = max(tau, 1/math.Log10(total))
	return total / tau
}
