package changepoint

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// convergedRHat is the conventional acceptance threshold for R-hat.
const convergedRHat = 1.1

// Summarize reduces a posterior trace to per-changepoint estimates and
// convergence diagnostics. dates is the date vector of the modeled
// series; prices holds the price aligned to each modeled index (used
// for price_at_changepoint) and may be nil. Index estimates map to
// dates by integer truncation, not rounding.
func Summarize(t *Trace, dates []time.Time, prices []float64, credible float64) ([]models.ChangePointEstimate, models.Diagnostics, error) {
	if t == nil || t.TotalDraws() == 0 {
		return nil, models.Diagnostics{}, fmt.Errorf("%w: no posterior draws", models.ErrModelNotFitted)
	}
	if credible <= 0 || credible >= 1 {
		return nil, models.Diagnostics{}, models.InvalidInputf("credible_interval must be in (0,1), got %v", credible)
	}
	if len(dates) != t.N {
		return nil, models.Diagnostics{}, models.InvalidInputf("date vector length %d does not match modeled series length %d", len(dates), t.N)
	}

	diag := models.Diagnostics{Divergences: t.Divergences()}
	diag.RHatMax = math.Inf(-1)
	diag.ESSBulkMin = math.Inf(1)
	diag.ESSTailMin = math.Inf(1)

	collect := func(chains [][]float64) {
		r := splitRHat(chains)
		if r > diag.RHatMax {
			diag.RHatMax = r
		}
		if b := essBulk(chains); b < diag.ESSBulkMin {
			diag.ESSBulkMin = b
		}
		if tl := essTail(chains); tl < diag.ESSTailMin {
			diag.ESSTailMin = tl
		}
	}

	nChains := len(t.Chains)
	perChain := func(get func(chain int) []float64) [][]float64 {
		out := make([][]float64, nChains)
		for c := 0; c < nChains; c++ {
			out[c] = get(c)
		}
		return out
	}

	for k := 0; k < t.K; k++ {
		k := k
		collect(perChain(func(c int) []float64 { return t.ChainTau(c, k) }))
	}
	for j := 0; j <= t.K; j++ {
		j := j
		collect(perChain(func(c int) []float64 { return t.ChainMu(c, j) }))
		collect(perChain(func(c int) []float64 { return t.ChainLambda(c, j) }))
	}
	diag.Converged = diag.RHatMax < convergedRHat && diag.Divergences == 0

	alpha := 1 - credible
	estimates := make([]models.ChangePointEstimate, 0, t.K)
	for k := 0; k < t.K; k++ {
		pooled := t.PooledTau(k)
		sort.Float64s(pooled)

		median := percentile(pooled, 0.5)
		lower := percentile(pooled, alpha/2)
		upper := percentile(pooled, 1-alpha/2)

		est := models.ChangePointEstimate{
			ID:           k + 1,
			MeanIndex:    stat.Mean(pooled, nil),
			MedianIndex:  median,
			StdIndex:     stat.StdDev(pooled, nil),
			CILowerIndex: lower,
			CIUpperIndex: upper,
			Date:         dates[int(median)],
			CILowerDate:  dates[int(lower)],
			CIUpperDate:  dates[int(upper)],
		}
		if prices != nil {
			est.PriceAtChange = prices[int(median)]
		}
		estimates = append(estimates, est)
	}
	return estimates, diag, nil
}

// percentile interpolates linearly between order statistics of an
// ascending-sorted sample, with p in [0, 1].
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// splitRHat computes the potential scale reduction statistic with each
// chain split in half, following the standard between/within variance
// decomposition. Returns 1 for degenerate (constant) samples.
func splitRHat(chains [][]float64) float64 {
	split := splitChains(chains)
	m := len(split)
	if m < 2 {
		return 1
	}
	n := len(split[0])
	if n < 2 {
		return 1
	}

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range split {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := float64(n) * stat.Variance(means, nil)
	if w <= 0 {
		return 1
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)
	return math.Sqrt(varPlus / w)
}

// essBulk computes the bulk effective sample size on rank-normalized
// samples combined across chains.
func essBulk(chains [][]float64) float64 {
	return essAutocorr(rankNormalize(chains))
}

// essTail computes the tail effective sample size as the minimum ESS of
// the 5% and 95% quantile indicator series.
func essTail(chains [][]float64) float64 {
	pooled := pool(chains)
	sort.Float64s(pooled)
	q05 := percentile(pooled, 0.05)
	q95 := percentile(pooled, 0.95)

	indicator := func(cut float64, below bool) [][]float64 {
		out := make([][]float64, len(chains))
		for i, c := range chains {
			s := make([]float64, len(c))
			for j, x := range c {
				if (below && x <= cut) || (!below && x >= cut) {
					s[j] = 1
				}
			}
			out[i] = s
		}
		return out
	}
	lo := essAutocorr(indicator(q05, true))
	hi := essAutocorr(indicator(q95, false))
	return math.Min(lo, hi)
}

// essAutocorr estimates ESS from chain autocorrelations using Geyer's
// initial positive sequence truncation.
func essAutocorr(chains [][]float64) float64 {
	m := len(chains)
	if m == 0 {
		return 0
	}
	n := len(chains[0])
	total := float64(m * n)
	if n < 4 {
		return total
	}

	means := make([]float64, m)
	vars := make([]float64, m)
	for i, c := range chains {
		means[i] = stat.Mean(c, nil)
		vars[i] = stat.Variance(c, nil)
	}
	w := stat.Mean(vars, nil)
	b := 0.0
	if m > 1 {
		b = float64(n) * stat.Variance(means, nil)
	}
	if w <= 0 {
		return total
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)

	// mean autocovariance at lag t across chains (biased, 1/n)
	acov := func(t int) float64 {
		s := 0.0
		for i, c := range chains {
			mu := means[i]
			a := 0.0
			for j := 0; j+t < n; j++ {
				a += (c[j] - mu) * (c[j+t] - mu)
			}
			s += a / float64(n)
		}
		return s / float64(m)
	}

	rho := func(t int) float64 { return 1 - (w-acov(t))/varPlus }

	sum := 0.0
	prevPair := math.Inf(1)
	for t := 1; t+1 < n; t += 2 {
		pair := rho(t) + rho(t+1)
		if pair <= 0 {
			break
		}
		// initial monotone sequence
		if pair > prevPair {
			pair = prevPair
		}
		prevPair = pair
		sum += pair
	}

	ess := total / (1 + 2*sum)
	if ess > total {
		ess = total
	}
	if ess < 1 {
		ess = 1
	}
	return ess
}

// rankNormalize maps samples to normal scores via their pooled ranks,
// averaging ranks over ties.
func rankNormalize(chains [][]float64) [][]float64 {
	type item struct {
		chain, idx int
		v          float64
	}
	var items []item
	for c, ch := range chains {
		for i, v := range ch {
			items = append(items, item{c, i, v})
		}
	}
	sort.Slice(items, func(a, b int) bool { return items[a].v < items[b].v })

	s := float64(len(items))
	ranks := make([]float64, len(items))
	for i := 0; i < len(items); {
		j := i
		for j < len(items) && items[j].v == items[i].v {
			j++
		}
		avg := float64(i+j+1) / 2 // average 1-based rank over the tie run
		for k := i; k < j; k++ {
			ranks[k] = avg
		}
		i = j
	}

	out := make([][]float64, len(chains))
	for c, ch := range chains {
		out[c] = make([]float64, len(ch))
	}
	norm := distuv.UnitNormal
	for i, it := range items {
		z := norm.Quantile((ranks[i] - 0.375) / (s + 0.25))
		out[it.chain][it.idx] = z
	}
	return out
}

func splitChains(chains [][]float64) [][]float64 {
	out := make([][]float64, 0, 2*len(chains))
	for _, c := range chains {
		half := len(c) / 2
		if half == 0 {
			continue
		}
		out = append(out, c[:half], c[half:half*2])
	}
	return out
}

func pool(chains [][]float64) []float64 {
	var out []float64
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}
