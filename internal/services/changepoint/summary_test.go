package changepoint

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func dayRange(n int) []time.Time {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func fittedTrace(t *testing.T, n, cut int) *Trace {
	t.Helper()
	m, err := Build(steppedSeries(n, cut, 0, 4), 1, nil)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	tr, err := m.Sample(context.Background(), SamplerConfig{
		Draws: 200, Tune: 200, Chains: 2, TargetAccept: 0.9, Seed: 11,
	})
	if err != nil {
		t.Fatalf("sample error: %v", err)
	}
	return tr
}

func TestSummarizeRequiresDraws(t *testing.T) {
	_, _, err := Summarize(nil, nil, nil, 0.95)
	if !errors.Is(err, models.ErrModelNotFitted) {
		t.Fatalf("expected ErrModelNotFitted, got %v", err)
	}
	empty := &Trace{Chains: []ChainTrace{{}}, N: 10, K: 1}
	_, _, err = Summarize(empty, dayRange(10), nil, 0.95)
	if !errors.Is(err, models.ErrModelNotFitted) {
		t.Fatalf("expected ErrModelNotFitted for empty trace, got %v", err)
	}
}

func TestSummarizeValidation(t *testing.T) {
	tr := fittedTrace(t, 60, 30)
	if _, _, err := Summarize(tr, dayRange(60), nil, 1.5); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for credible=1.5, got %v", err)
	}
	if _, _, err := Summarize(tr, dayRange(10), nil, 0.95); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short date vector, got %v", err)
	}
}

func TestSummarizeEstimates(t *testing.T) {
	n, cut := 100, 50
	tr := fittedTrace(t, n, cut)
	dates := dayRange(n)
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = float64(i)
	}

	ests, diag, err := Summarize(tr, dates, prices, 0.95)
	if err != nil {
		t.Fatalf("summarize error: %v", err)
	}
	if len(ests) != 1 {
		t.Fatalf("expected 1 estimate, got %d", len(ests))
	}
	e := ests[0]
	if e.CILowerIndex > e.MedianIndex || e.MedianIndex > e.CIUpperIndex {
		t.Fatalf("interval not ordered: %v %v %v", e.CILowerIndex, e.MedianIndex, e.CIUpperIndex)
	}
	if !e.Date.Equal(dates[int(e.MedianIndex)]) {
		t.Fatalf("date %v does not match truncated median index %v", e.Date, e.MedianIndex)
	}
	if e.PriceAtChange != prices[int(e.MedianIndex)] {
		t.Fatalf("price at change %v, want %v", e.PriceAtChange, prices[int(e.MedianIndex)])
	}
	if diag.RHatMax <= 0 || math.IsNaN(diag.RHatMax) {
		t.Fatalf("bad r-hat: %v", diag.RHatMax)
	}
	if diag.ESSBulkMin <= 0 || diag.ESSTailMin <= 0 {
		t.Fatalf("bad ess: bulk=%v tail=%v", diag.ESSBulkMin, diag.ESSTailMin)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{1, 4},
		{0.5, 2.5},
		{0.25, 1.75},
	}
	for _, c := range cases {
		if got := percentile(sorted, c.p); math.Abs(got-c.want) > 1e-12 {
			t.Fatalf("percentile(%v) = %v, want %v", c.p, got, c.want)
		}
	}
	if got := percentile([]float64{7}, 0.5); got != 7 {
		t.Fatalf("single-element percentile = %v", got)
	}
}

func TestSplitRHatDetectsDisagreement(t *testing.T) {
	near := func(base float64, n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = base + 0.01*float64(i%5)
		}
		return out
	}
	same := splitRHat([][]float64{near(1, 100), near(1, 100)})
	apart := splitRHat([][]float64{near(1, 100), near(10, 100)})
	if same > 1.05 {
		t.Fatalf("agreeing chains r-hat = %v", same)
	}
	if apart < 1.5 {
		t.Fatalf("disagreeing chains r-hat = %v", apart)
	}
}
