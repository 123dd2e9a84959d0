package series

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// Prepare validates and cleans a raw price series and derives its log
// returns. Points with NaN or non-positive prices are dropped, order and
// date alignment preserved. The index must be strictly increasing; a
// duplicate or out-of-order date fails with ErrInvalidInput.
func Prepare(points []models.PricePoint) (*models.PreparedSeries, error) {
	if len(points) == 0 {
		return nil, models.InvalidInputf("empty price series")
	}

	clean := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			continue
		}
		clean = append(clean, p)
	}
	if len(clean) < 2 {
		return nil, models.InvalidInputf("series has %d usable observations, need at least 2", len(clean))
	}
	for i := 1; i < len(clean); i++ {
		if !clean[i].Date.After(clean[i-1].Date) {
			return nil, models.InvalidInputf("date index not strictly increasing at %s", clean[i].Date.Format("2006-01-02"))
		}
	}

	prices := &models.PriceSeries{}
	for _, p := range clean {
		prices.Dates = append(prices.Dates, p.Date)
		prices.Prices = append(prices.Prices, p.Price)
	}

	rets := logReturns(prices)
	summary := summarize(prices, rets)

	return &models.PreparedSeries{
		Prices:  prices,
		Returns: rets,
		Summary: summary,
		Dropped: len(points) - len(clean),
	}, nil
}

// logReturns computes r_t = ln(p_t / p_{t-1}), aligned to the later date.
func logReturns(s *models.PriceSeries) *models.LogReturns {
	out := &models.LogReturns{}
	for i := 1; i < len(s.Prices); i++ {
		out.Dates = append(out.Dates, s.Dates[i])
		out.Returns = append(out.Returns, math.Log(s.Prices[i]/s.Prices[i-1]))
	}
	return out
}

func summarize(s *models.PriceSeries, r *models.LogReturns) models.SeriesSummary {
	minP, maxP := s.Prices[0], s.Prices[0]
	for _, p := range s.Prices {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	sum := models.SeriesSummary{
		Observations: len(s.Prices),
		StartDate:    s.Start(),
		EndDate:      s.End(),
		MinPrice:     minP,
		MaxPrice:     maxP,
		MeanPrice:    stat.Mean(s.Prices, nil),
		StdPrice:     stat.StdDev(s.Prices, nil),
	}
	if len(r.Returns) > 1 {
		sum.MeanReturn = stat.Mean(r.Returns, nil)
		sum.StdReturn = stat.StdDev(r.Returns, nil)
		sum.Skewness = stat.Skew(r.Returns, nil)
		sum.Kurtosis = stat.ExKurtosis(r.Returns, nil)
	}
	return sum
}
