package series

import (
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func TestRegimesSplitAtChangePoint(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &models.PriceSeries{}
	for i := 0; i < 10; i++ {
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		if i < 5 {
			s.Prices = append(s.Prices, 50)
		} else {
			s.Prices = append(s.Prices, 70)
		}
	}
	cps := []models.ChangePointEstimate{{ID: 1, Date: start.AddDate(0, 0, 5)}}

	regimes := Regimes(s, cps)
	if len(regimes) != 2 {
		t.Fatalf("expected 2 regimes, got %d", len(regimes))
	}
	if regimes[0].Observations != 5 || regimes[1].Observations != 5 {
		t.Fatalf("unexpected sizes: %d, %d", regimes[0].Observations, regimes[1].Observations)
	}
	if regimes[0].MeanPrice != 50 || regimes[1].MeanPrice != 70 {
		t.Fatalf("unexpected means: %v, %v", regimes[0].MeanPrice, regimes[1].MeanPrice)
	}
	if regimes[0].RegimeID != 1 || regimes[1].RegimeID != 2 {
		t.Fatalf("regime ids not sequential")
	}
	if !regimes[1].StartDate.Equal(start.AddDate(0, 0, 5)) {
		t.Fatalf("second regime starts %v", regimes[1].StartDate)
	}
}

func TestRegimesTrend(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &models.PriceSeries{}
	for i := 0; i < 20; i++ {
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		s.Prices = append(s.Prices, 10+2*float64(i))
	}
	regimes := Regimes(s, nil)
	if len(regimes) != 1 {
		t.Fatalf("expected 1 regime, got %d", len(regimes))
	}
	if got := regimes[0].TrendSlope; got < 1.99 || got > 2.01 {
		t.Fatalf("slope = %v, want 2", got)
	}
	if got := regimes[0].TrendRSq; got < 0.999 {
		t.Fatalf("r^2 = %v, want ~1", got)
	}
}

func TestRegimesEmptySeries(t *testing.T) {
	regimes := Regimes(&models.PriceSeries{}, nil)
	if regimes == nil || len(regimes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", regimes)
	}
}
