package changepoint

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// seedStride separates per-chain random streams. Chain c draws from
// Seed + c*seedStride, so the same (seed, chain) pair always replays
// the same stream regardless of how many chains run or in what order.
const seedStride = 0x9e3779b97f4a7c15

// SamplerConfig holds the MCMC knobs.
type SamplerConfig struct {
	Draws        int
	Tune         int
	Chains       int
	TargetAccept float64
	Seed         uint64

	// Progress, when set, receives (chain, done, total) updates. It is
	// called from chain goroutines and must be safe for concurrent use.
	Progress func(chain, done, total int)
}

// minAcceptRate below which a chain is flagged as failing to mix.
const minAcceptRate = 0.02

// Sample draws from the joint posterior with a Metropolis-within-Gibbs
// scheme: integer random-walk updates for each change-point index and
// adaptive random-walk updates for each regime mean and precision, all
// within the same iteration. Chains run concurrently and independently;
// the result is a plain concatenation whatever the parallelism.
func (m *Model) Sample(ctx context.Context, cfg SamplerConfig) (*Trace, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: call Build first", models.ErrModelNotBuilt)
	}
	if cfg.Draws <= 0 {
		return nil, models.InvalidInputf("draws must be > 0, got %d", cfg.Draws)
	}
	if cfg.Tune < 0 {
		return nil, models.InvalidInputf("tune must be >= 0, got %d", cfg.Tune)
	}
	if cfg.Chains < 1 {
		return nil, models.InvalidInputf("chains must be >= 1, got %d", cfg.Chains)
	}
	if cfg.TargetAccept <= 0 || cfg.TargetAccept >= 1 {
		return nil, models.InvalidInputf("target_accept must be in (0,1), got %v", cfg.TargetAccept)
	}

	trace := &Trace{
		Chains: make([]ChainTrace, cfg.Chains),
		N:      m.N,
		K:      m.K,
	}

	var wg sync.WaitGroup
	errs := make([]error, cfg.Chains)
	for c := 0; c < cfg.Chains; c++ {
		wg.Add(1)
		go func(chain int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(cfg.Seed + uint64(chain)*seedStride))
			trace.Chains[chain], errs[chain] = m.runChain(ctx, chain, rng, cfg)
		}(c)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return trace, nil
}

// chainState carries the walker and its adaptive step scales.
type chainState struct {
	cur   *Assignment
	logp  float64
	tauW  []float64 // integer walk half-widths, >= 1
	muS   []float64 // mean proposal scales
	lamS  []float64 // log-precision proposal scales
	stats acceptCounters
}

type acceptCounters struct {
	tauAcc, tauTry float64
	muAcc, muTry   float64
	lamAcc, lamTry float64
}

func (m *Model) runChain(ctx context.Context, chain int, rng *rand.Rand, cfg SamplerConfig) (ChainTrace, error) {
	total := cfg.Tune + cfg.Draws

	st := &chainState{
		cur:  m.NewAssignment(),
		tauW: make([]float64, m.K),
		muS:  make([]float64, m.K+1),
		lamS: make([]float64, m.K+1),
	}
	st.logp = m.LogPosterior(st.cur)
	for j := range st.tauW {
		st.tauW[j] = math.Max(1, float64(m.N)/20)
	}
	for j := range st.muS {
		st.muS[j] = m.dataStd / 2
		st.lamS[j] = 0.5
	}

	out := ChainTrace{
		Chain:  chain,
		Tau:    make([][]int, 0, cfg.Draws),
		Mu:     make([][]float64, 0, cfg.Draws),
		Lambda: make([][]float64, 0, cfg.Draws),
	}

	const adaptEvery = 50
	var window acceptCounters

	for iter := 0; iter < total; iter++ {
		if iter%64 == 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			default:
			}
		}

		tuning := iter < cfg.Tune
		m.stepTau(st, rng, &window)
		m.stepMu(st, rng, &window)
		m.stepLambda(st, rng, &window)

		if tuning && (iter+1)%adaptEvery == 0 {
			adaptScales(st, &window, cfg.TargetAccept)
			window = acceptCounters{}
		}

		if !tuning {
			sorted := make([]int, m.K)
			copy(sorted, st.cur.Tau)
			sort.Ints(sorted)
			mu := make([]float64, m.K+1)
			copy(mu, st.cur.Mu)
			lam := make([]float64, m.K+1)
			copy(lam, st.cur.Lambda)
			out.Tau = append(out.Tau, sorted)
			out.Mu = append(out.Mu, mu)
			out.Lambda = append(out.Lambda, lam)
		}

		if cfg.Progress != nil && ((iter+1)%100 == 0 || iter+1 == total) {
			cfg.Progress(chain, iter+1, total)
		}
	}

	out.AcceptTau = rate(st.stats.tauAcc, st.stats.tauTry)
	out.AcceptMu = rate(st.stats.muAcc, st.stats.muTry)
	out.AcceptLambda = rate(st.stats.lamAcc, st.stats.lamTry)
	out.Divergent = out.AcceptTau < minAcceptRate ||
		out.AcceptMu < minAcceptRate ||
		out.AcceptLambda < minAcceptRate
	return out, nil
}

// stepTau updates each change-point index with a symmetric integer
// random walk, mixed with an occasional full-support jump to let the
// walker cross between well-separated modes.
func (m *Model) stepTau(st *chainState, rng *rand.Rand, w *acceptCounters) {
	for j := 0; j < m.K; j++ {
		var prop int
		if rng.Float64() < 0.1 {
			prop = 1 + rng.Intn(m.N-2) // independence jump over [1, N-2]
		} else {
			width := int(st.tauW[j])
			if width < 1 {
				width = 1
			}
			step := rng.Intn(2*width+1) - width
			if step == 0 {
				step = 1 - 2*rng.Intn(2) // never propose staying put
			}
			prop = st.cur.Tau[j] + step
		}

		st.stats.tauTry++
		w.tauTry++
		if prop < 1 || prop > m.N-2 {
			continue
		}
		old := st.cur.Tau[j]
		st.cur.Tau[j] = prop
		lp := m.LogPosterior(st.cur)
		if accept(lp-st.logp, rng) {
			st.logp = lp
			st.stats.tauAcc++
			w.tauAcc++
		} else {
			st.cur.Tau[j] = old
		}
	}
}

// stepMu updates each regime mean with a Gaussian random walk.
func (m *Model) stepMu(st *chainState, rng *rand.Rand, w *acceptCounters) {
	for j := 0; j <= m.K; j++ {
		old := st.cur.Mu[j]
		st.cur.Mu[j] = old + st.muS[j]*rng.NormFloat64()
		st.stats.muTry++
		w.muTry++
		lp := m.LogPosterior(st.cur)
		if accept(lp-st.logp, rng) {
			st.logp = lp
			st.stats.muAcc++
			w.muAcc++
		} else {
			st.cur.Mu[j] = old
		}
	}
}

// stepLambda updates each regime precision with a log-space random
// walk. The proposal is asymmetric in lambda space, so the Jacobian
// log(lambda'/lambda) enters the acceptance ratio.
func (m *Model) stepLambda(st *chainState, rng *rand.Rand, w *acceptCounters) {
	for j := 0; j <= m.K; j++ {
		old := st.cur.Lambda[j]
		prop := old * math.Exp(st.lamS[j]*rng.NormFloat64())
		st.cur.Lambda[j] = prop
		st.stats.lamTry++
		w.lamTry++
		lp := m.LogPosterior(st.cur)
		if accept(lp-st.logp+math.Log(prop/old), rng) {
			st.logp = lp
			st.stats.lamAcc++
			w.lamAcc++
		} else {
			st.cur.Lambda[j] = old
		}
	}
}

// adaptScales nudges proposal scales toward the target acceptance rate
// during warmup. Scales are frozen once tuning ends.
func adaptScales(st *chainState, w *acceptCounters, target float64) {
	adj := func(scale, acc, try float64) float64 {
		if try == 0 {
			return scale
		}
		return scale * math.Exp(1.2*(acc/try-target))
	}
	for j := range st.tauW {
		st.tauW[j] = math.Max(1, adj(st.tauW[j], w.tauAcc, w.tauTry))
	}
	for j := range st.muS {
		st.muS[j] = math.Max(1e-8, adj(st.muS[j], w.muAcc, w.muTry))
		st.lamS[j] = math.Max(1e-8, adj(st.lamS[j], w.lamAcc, w.lamTry))
	}
}

func accept(logRatio float64, rng *rand.Rand) bool {
	if logRatio >= 0 {
		return true
	}
	return math.Log(rng.Float64()) < logRatio
}

func rate(acc, try float64) float64 {
	if try == 0 {
		return 0
	}
	return acc / try
}
