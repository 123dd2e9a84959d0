package series

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func pts(start time.Time, prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestPrepareCleansBadPoints(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := pts(start, 20, math.NaN(), 22, -5, 0, 24)

	prepared, err := Prepare(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := prepared.Prices.Len(); got != 3 {
		t.Fatalf("expected 3 clean observations, got %d", got)
	}
	if prepared.Dropped != 3 {
		t.Fatalf("expected 3 dropped, got %d", prepared.Dropped)
	}
}

func TestPrepareRejectsDuplicateDates(t *testing.T) {
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []models.PricePoint{
		{Date: d, Price: 20},
		{Date: d, Price: 21},
	}
	_, err := Prepare(points)
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPrepareRejectsEmpty(t *testing.T) {
	if _, err := Prepare(nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPrepareLogReturns(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	prepared, err := Prepare(pts(start, 100, 110, 121))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := prepared.Returns
	if len(r.Returns) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(r.Returns))
	}
	want := math.Log(1.1)
	for i, got := range r.Returns {
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("return %d = %v, want %v", i, got, want)
		}
	}
	// returns align to the later date of each pair
	if !r.Dates[0].Equal(start.AddDate(0, 0, 1)) {
		t.Fatalf("return 0 aligned to %v", r.Dates[0])
	}
}

func TestPrepareSummary(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	prepared, err := Prepare(pts(start, 10, 20, 30, 40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := prepared.Summary
	if s.Observations != 4 || s.MinPrice != 10 || s.MaxPrice != 40 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.MeanPrice-25) > 1e-12 {
		t.Fatalf("mean = %v, want 25", s.MeanPrice)
	}
	if !s.StartDate.Equal(start) || !s.EndDate.Equal(start.AddDate(0, 0, 3)) {
		t.Fatalf("unexpected date range %v..%v", s.StartDate, s.EndDate)
	}
}
