package changepoint

// ChainTrace holds the post-warmup draws of one chain. Tau vectors are
// sorted ascending before recording so ordinal slot k means "k-th change
// point" consistently across chains (label switching).
type ChainTrace struct {
	Chain  int
	Tau    [][]int
	Mu     [][]float64
	Lambda [][]float64

	AcceptTau    float64
	AcceptMu     float64
	AcceptLambda float64
	Divergent    bool
}

// Trace is the joint posterior sample set across chains.
type Trace struct {
	Chains []ChainTrace
	N      int // modeled series length
	K      int
}

// Draws returns draws per chain (identical across chains).
func (t *Trace) Draws() int {
	if len(t.Chains) == 0 {
		return 0
	}
	return len(t.Chains[0].Tau)
}

// TotalDraws returns chains x draws.
func (t *Trace) TotalDraws() int {
	n := 0
	for _, c := range t.Chains {
		n += len(c.Tau)
	}
	return n
}

// Divergences counts chains flagged as failing to mix.
func (t *Trace) Divergences() int {
	n := 0
	for _, c := range t.Chains {
		if c.Divergent {
			n++
		}
	}
	return n
}

// ChainTau returns the per-draw samples of ordinal change point k for
// one chain, as float64 for the diagnostics routines.
func (t *Trace) ChainTau(chain, k int) []float64 {
	c := t.Chains[chain]
	out := make([]float64, len(c.Tau))
	for i, draw := range c.Tau {
		out[i] = float64(draw[k])
	}
	return out
}

// PooledTau concatenates ordinal slot k across chains in chain order.
func (t *Trace) PooledTau(k int) []float64 {
	out := make([]float64, 0, t.TotalDraws())
	for chain := range t.Chains {
		out = append(out, t.ChainTau(chain, k)...)
	}
	return out
}

// ChainMu returns regime j mean samples for one chain.
func (t *Trace) ChainMu(chain, j int) []float64 {
	c := t.Chains[chain]
	out := make([]float64, len(c.Mu))
	for i, draw := range c.Mu {
		out[i] = draw[j]
	}
	return out
}

// ChainLambda returns regime j precision samples for one chain.
func (t *Trace) ChainLambda(chain, j int) []float64 {
	c := t.Chains[chain]
	out := make([]float64, len(c.Lambda))
	for i, draw := range c.Lambda {
		out[i] = draw[j]
	}
	return out
}
