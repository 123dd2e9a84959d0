package changepoint

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// ParamKind tags the prior family of a parameter block.
type ParamKind int

const (
	// DiscreteUniformPrior is an integer-uniform prior over [Lower, Upper].
	DiscreteUniformPrior ParamKind = iota
	// NormalPrior is a Normal(Mu, Sigma) prior.
	NormalPrior
	// GammaPrior is a Gamma(Alpha, Beta) prior in shape/rate form.
	GammaPrior
)

// ParamSpec declares one parameter block of the model graph.
type ParamSpec struct {
	Name  string
	Kind  ParamKind
	Size  int
	Lower int     // discrete uniform support
	Upper int     //
	Mu    float64 // normal prior location
	Sigma float64 // normal prior scale
	Alpha float64 // gamma shape
	Beta  float64 // gamma rate
}

// Assignment is one concrete realization of every model parameter.
// Tau is kept unsorted in sampler state; regime lookup sorts a copy.
type Assignment struct {
	Tau    []int     // change-point indices, length K
	Mu     []float64 // regime means, length K+1
	Lambda []float64 // regime precisions, length K+1
}

// Clone deep-copies an assignment.
func (a *Assignment) Clone() *Assignment {
	b := &Assignment{
		Tau:    make([]int, len(a.Tau)),
		Mu:     make([]float64, len(a.Mu)),
		Lambda: make([]float64, len(a.Lambda)),
	}
	copy(b.Tau, a.Tau)
	copy(b.Mu, a.Mu)
	copy(b.Lambda, a.Lambda)
	return b
}

// Model is the declarative regime-switching model: K discrete-uniform
// change-point locations over [1, N-2], K+1 Normal regime means centered
// at the empirical mean, K+1 Gamma regime precisions, and an independent
// Normal observation likelihood with parameters selected per regime.
type Model struct {
	Y     []float64
	N     int
	K     int
	Specs []ParamSpec

	dataMean float64
	dataStd  float64
}

// Build constructs the model for a target series and regime count.
// K must be >= 1 and leave room for at least two interior indices.
// The K-vs-length guard (roughly K <= N/3) is advisory: it logs a
// warning and proceeds.
func Build(y []float64, k int, l *applogger.Logger) (*Model, error) {
	n := len(y)
	if k < 1 {
		return nil, models.InvalidInputf("n_changepoints must be >= 1, got %d", k)
	}
	if n < 4 {
		return nil, models.InvalidInputf("series too short for change-point model: %d observations", n)
	}
	if k > n/3 && l != nil {
		l.Warn("regime count is large for series length; expect weak identification",
			applogger.Int("n_changepoints", k),
			applogger.Int("observations", n),
		)
	}

	mean := stat.Mean(y, nil)
	std := stat.StdDev(y, nil)
	if std == 0 || math.IsNaN(std) {
		// constant series: keep a proper prior scale
		std = 1
	}

	m := &Model{
		Y:        y,
		N:        n,
		K:        k,
		dataMean: mean,
		dataStd:  std,
	}
	m.Specs = []ParamSpec{
		{Name: "tau", Kind: DiscreteUniformPrior, Size: k, Lower: 1, Upper: n - 2},
		{Name: "mu", Kind: NormalPrior, Size: k + 1, Mu: mean, Sigma: std},
		{Name: "lambda", Kind: GammaPrior, Size: k + 1, Alpha: 1, Beta: 1},
	}
	return m, nil
}

// NewAssignment returns the deterministic initial state: change points
// evenly spaced, means at the empirical mean, precisions at 1/variance.
func (m *Model) NewAssignment() *Assignment {
	a := &Assignment{
		Tau:    make([]int, m.K),
		Mu:     make([]float64, m.K+1),
		Lambda: make([]float64, m.K+1),
	}
	for j := 0; j < m.K; j++ {
		t := (j + 1) * m.N / (m.K + 1)
		if t < 1 {
			t = 1
		}
		if t > m.N-2 {
			t = m.N - 2
		}
		a.Tau[j] = t
	}
	prec := 1 / (m.dataStd * m.dataStd)
	for j := 0; j <= m.K; j++ {
		a.Mu[j] = m.dataMean
		a.Lambda[j] = prec
	}
	return a
}

// LogPrior evaluates the joint log prior density of an assignment.
// Out-of-support values return -Inf.
func (m *Model) LogPrior(a *Assignment) float64 {
	lp := 0.0
	for _, t := range a.Tau {
		if t < 1 || t > m.N-2 {
			return math.Inf(-1)
		}
		lp -= math.Log(float64(m.N - 2)) // uniform over [1, N-2]
	}
	for _, mu := range a.Mu {
		lp += logNormPdf(mu, m.dataMean, m.dataStd)
	}
	for _, lam := range a.Lambda {
		if lam <= 0 {
			return math.Inf(-1)
		}
		// Gamma(alpha=1, beta=1): log f = -lambda
		lp += -lam
	}
	return lp
}

// LogLikelihood evaluates the observation log likelihood. Each index i
// belongs to regime r(i) = #{k : tau_k < i} computed from a sorted copy
// of tau, so the likelihood is invariant to tau ordering.
func (m *Model) LogLikelihood(a *Assignment) float64 {
	sorted := make([]int, len(a.Tau))
	copy(sorted, a.Tau)
	sort.Ints(sorted)

	const halfLog2Pi = 0.9189385332046727 // 0.5*ln(2*pi)
	ll := 0.0
	regime := 0
	for i, y := range m.Y {
		for regime < m.K && sorted[regime] < i {
			regime++
		}
		lam := a.Lambda[regime]
		mu := a.Mu[regime]
		d := y - mu
		ll += 0.5*math.Log(lam) - halfLog2Pi - 0.5*lam*d*d
	}
	return ll
}

// LogPosterior is the unnormalized joint log density.
func (m *Model) LogPosterior(a *Assignment) float64 {
	lp := m.LogPrior(a)
	if math.IsInf(lp, -1) {
		return lp
	}
	return lp + m.LogLikelihood(a)
}

func logNormPdf(x, mu, sigma float64) float64 {
	d := (x - mu) / sigma
	return -0.5*d*d - math.Log(sigma) - 0.9189385332046727
}
