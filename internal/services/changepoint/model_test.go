package changepoint

import (
	"errors"
	"math"
	"testing"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func constantSeries(n int, v float64) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = v
	}
	return y
}

func TestBuildValidation(t *testing.T) {
	if _, err := Build(constantSeries(100, 1), 0, nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for k=0, got %v", err)
	}
	if _, err := Build(constantSeries(3, 1), 1, nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short series, got %v", err)
	}
	m, err := Build(constantSeries(100, 1), 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.N != 100 || m.K != 2 {
		t.Fatalf("unexpected dims n=%d k=%d", m.N, m.K)
	}
	if len(m.Specs) != 3 {
		t.Fatalf("expected 3 parameter specs, got %d", len(m.Specs))
	}
	if m.Specs[0].Lower != 1 || m.Specs[0].Upper != 98 {
		t.Fatalf("tau support [%d,%d], want [1,98]", m.Specs[0].Lower, m.Specs[0].Upper)
	}
}

func TestNewAssignmentInsideSupport(t *testing.T) {
	m, err := Build(constantSeries(50, 2), 3, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := m.NewAssignment()
	if len(a.Tau) != 3 || len(a.Mu) != 4 || len(a.Lambda) != 4 {
		t.Fatalf("unexpected assignment shape: %+v", a)
	}
	for _, tau := range a.Tau {
		if tau < 1 || tau > m.N-2 {
			t.Fatalf("initial tau %d outside [1,%d]", tau, m.N-2)
		}
	}
}

func TestLogPriorOutOfSupport(t *testing.T) {
	m, err := Build(constantSeries(50, 2), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := m.NewAssignment()
	if lp := m.LogPrior(a); math.IsInf(lp, -1) || math.IsNaN(lp) {
		t.Fatalf("valid assignment prior = %v", lp)
	}

	bad := a.Clone()
	bad.Tau[0] = 0
	if lp := m.LogPrior(bad); !math.IsInf(lp, -1) {
		t.Fatalf("tau=0 prior = %v, want -Inf", lp)
	}
	bad = a.Clone()
	bad.Lambda[0] = -1
	if lp := m.LogPrior(bad); !math.IsInf(lp, -1) {
		t.Fatalf("negative precision prior = %v, want -Inf", lp)
	}
}

func TestLikelihoodInvariantToTauOrder(t *testing.T) {
	y := make([]float64, 60)
	for i := range y {
		y[i] = float64(i % 7)
	}
	m, err := Build(y, 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := m.NewAssignment()
	a.Tau[0], a.Tau[1] = 40, 15
	a.Mu[0], a.Mu[1], a.Mu[2] = 1, 3, 5

	ll1 := m.LogLikelihood(a)
	a.Tau[0], a.Tau[1] = 15, 40
	ll2 := m.LogLikelihood(a)
	if math.Abs(ll1-ll2) > 1e-12 {
		t.Fatalf("likelihood depends on tau order: %v vs %v", ll1, ll2)
	}
}

func TestLikelihoodPrefersTrueMeans(t *testing.T) {
	// two regimes: 0..29 around 0, 30..59 around 5
	y := make([]float64, 60)
	for i := 30; i < 60; i++ {
		y[i] = 5
	}
	m, err := Build(y, 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	good := m.NewAssignment()
	good.Tau[0] = 29
	good.Mu[0], good.Mu[1] = 0, 5

	bad := good.Clone()
	bad.Mu[0], bad.Mu[1] = 5, 0

	if m.LogLikelihood(good) <= m.LogLikelihood(bad) {
		t.Fatalf("true means not preferred")
	}
}
