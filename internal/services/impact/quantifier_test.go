package impact

import (
	"math"
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func dailySeries(start time.Time, prices []float64) *models.PriceSeries {
	s := &models.PriceSeries{}
	for i, p := range prices {
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		s.Prices = append(s.Prices, p)
	}
	return s
}

func TestQuantifyStepChange(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := make([]float64, 61)
	for i := range prices {
		if i < 30 {
			prices[i] = 50 + 0.1*float64(i%3)
		} else {
			prices[i] = 70 + 0.1*float64(i%3)
		}
	}
	s := dailySeries(start, prices)
	cp := models.ChangePointEstimate{ID: 1, Date: start.AddDate(0, 0, 30)}

	out := New().Quantify(s, []models.ChangePointEstimate{cp}, 30)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	rec := out[0]
	if rec.InsufficientData {
		t.Fatalf("unexpected insufficient data flag")
	}
	// change-point date excluded from both windows
	if rec.ObsBefore != 30 || rec.ObsAfter != 30 {
		t.Fatalf("window sizes %d/%d, want 30/30", rec.ObsBefore, rec.ObsAfter)
	}
	if math.Abs(rec.PriceImpact.ChangePercent-40) > 1 {
		t.Fatalf("price change %% = %v, want ~40", rec.PriceImpact.ChangePercent)
	}
	if !rec.PriceImpact.Significant {
		t.Fatalf("clear step change should be significant, p=%v", rec.PriceImpact.PValue)
	}
}

func TestQuantifyInsufficientData(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := dailySeries(start, []float64{50, 51, 52, 53, 54})

	// change point far past the series end: before window empty too
	cp := models.ChangePointEstimate{ID: 1, Date: start.AddDate(1, 0, 0)}
	out := New().Quantify(s, []models.ChangePointEstimate{cp}, 30)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if !out[0].InsufficientData {
		t.Fatalf("expected insufficient data flag")
	}

	// batch continues past the bad record
	good := models.ChangePointEstimate{ID: 2, Date: start.AddDate(0, 0, 2)}
	out = New().Quantify(s, []models.ChangePointEstimate{cp, good}, 30)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[1].InsufficientData {
		t.Fatalf("valid change point flagged insufficient")
	}
}

func TestWelchTTest(t *testing.T) {
	same := []float64{1, 2, 3, 4, 5}
	_, p := welchTTest(same, same)
	if p < 0.99 {
		t.Fatalf("identical samples p = %v, want ~1", p)
	}

	a := []float64{1.0, 1.1, 0.9, 1.05, 0.95, 1.02}
	b := []float64{5.0, 5.1, 4.9, 5.05, 4.95, 5.02}
	_, p = welchTTest(a, b)
	if p > 1e-6 {
		t.Fatalf("separated samples p = %v, want tiny", p)
	}

	_, p = welchTTest([]float64{1}, a)
	if p != 1 {
		t.Fatalf("degenerate sample p = %v, want 1", p)
	}
}

func TestQuantifyWindowBoundaries(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	// 11 observations, change point in the middle
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	s := dailySeries(start, prices)
	cp := models.ChangePointEstimate{ID: 1, Date: start.AddDate(0, 0, 5)}

	out := New().Quantify(s, []models.ChangePointEstimate{cp}, 5)
	rec := out[0]
	// before: days 0..4, after: days 6..10
	if rec.ObsBefore != 5 || rec.ObsAfter != 5 {
		t.Fatalf("window sizes %d/%d, want 5/5", rec.ObsBefore, rec.ObsAfter)
	}
	if rec.PriceImpact.BeforeMean != 3 || rec.PriceImpact.AfterMean != 9 {
		t.Fatalf("means %v/%v, want 3/9", rec.PriceImpact.BeforeMean, rec.PriceImpact.AfterMean)
	}
}
