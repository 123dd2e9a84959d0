package changepoint

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// steppedSeries has a mean shift from lo to hi at index cut, with small
// deterministic pseudo-noise so the break stays sharply identified.
func steppedSeries(n, cut int, lo, hi float64) []float64 {
	rng := rand.New(rand.NewSource(7))
	y := make([]float64, n)
	for i := range y {
		base := lo
		if i > cut {
			base = hi
		}
		y[i] = base + 0.3*rng.NormFloat64()
	}
	return y
}

func TestSampleConfigValidation(t *testing.T) {
	m, err := Build(steppedSeries(50, 25, 0, 3), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []SamplerConfig{
		{Draws: 0, Tune: 10, Chains: 1, TargetAccept: 0.9},
		{Draws: 10, Tune: -1, Chains: 1, TargetAccept: 0.9},
		{Draws: 10, Tune: 10, Chains: 0, TargetAccept: 0.9},
		{Draws: 10, Tune: 10, Chains: 1, TargetAccept: 1.5},
	}
	for i, cfg := range cases {
		if _, err := m.Sample(context.Background(), cfg); !errors.Is(err, models.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}

	var nilModel *Model
	_, err = nilModel.Sample(context.Background(), SamplerConfig{Draws: 10, Tune: 0, Chains: 1, TargetAccept: 0.9})
	if !errors.Is(err, models.ErrModelNotBuilt) {
		t.Fatalf("expected ErrModelNotBuilt, got %v", err)
	}
}

func TestSampleShapeAndSupport(t *testing.T) {
	m, err := Build(steppedSeries(80, 40, 0, 4), 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := m.Sample(context.Background(), SamplerConfig{
		Draws: 150, Tune: 100, Chains: 3, TargetAccept: 0.9, Seed: 1,
	})
	if err != nil {
		t.Fatalf("sample error: %v", err)
	}
	if got := tr.TotalDraws(); got != 450 {
		t.Fatalf("total draws = %d, want 450", got)
	}
	for _, ch := range tr.Chains {
		if len(ch.Tau) != 150 {
			t.Fatalf("chain %d has %d draws", ch.Chain, len(ch.Tau))
		}
		for _, tau := range ch.Tau {
			if !sort.IntsAreSorted(tau) {
				t.Fatalf("recorded tau not sorted: %v", tau)
			}
			for _, v := range tau {
				if v < 1 || v > m.N-2 {
					t.Fatalf("tau %d outside [1,%d]", v, m.N-2)
				}
			}
		}
	}
}

func TestSampleDeterministicForSeed(t *testing.T) {
	m, err := Build(steppedSeries(60, 30, 0, 3), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := SamplerConfig{Draws: 80, Tune: 80, Chains: 2, TargetAccept: 0.9, Seed: 42}

	a, err := m.Sample(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first sample error: %v", err)
	}
	b, err := m.Sample(context.Background(), cfg)
	if err != nil {
		t.Fatalf("second sample error: %v", err)
	}
	for c := range a.Chains {
		for i := range a.Chains[c].Tau {
			for j := range a.Chains[c].Tau[i] {
				if a.Chains[c].Tau[i][j] != b.Chains[c].Tau[i][j] {
					t.Fatalf("tau differs at chain %d draw %d", c, i)
				}
			}
			if a.Chains[c].Mu[i][0] != b.Chains[c].Mu[i][0] {
				t.Fatalf("mu differs at chain %d draw %d", c, i)
			}
		}
	}
}

func TestSampleRecoversChangePoint(t *testing.T) {
	cut := 60
	m, err := Build(steppedSeries(120, cut, 0, 4), 1, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := m.Sample(context.Background(), SamplerConfig{
		Draws: 400, Tune: 400, Chains: 2, TargetAccept: 0.9, Seed: 3,
	})
	if err != nil {
		t.Fatalf("sample error: %v", err)
	}
	pooled := tr.PooledTau(0)
	sort.Float64s(pooled)
	median := pooled[len(pooled)/2]
	if math.Abs(median-float64(cut)) > 10 {
		t.Fatalf("posterior median tau = %v, want near %d", median, cut)
	}
}

func TestSampleCancellation(t *testing.T) {
	m, err := Build(steppedSeries(200, 100, 0, 3), 2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Sample(ctx, SamplerConfig{Draws: 5000, Tune: 5000, Chains: 2, TargetAccept: 0.9, Seed: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
