package series

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// Regimes slices the price series at the change-point dates and computes
// descriptive statistics for each resulting segment. With K change
// points there are K+1 regimes; regime k spans from the previous change
// point (or the series start) up to but excluding change point k's date.
func Regimes(series *models.PriceSeries, changePoints []models.ChangePointEstimate) []models.RegimeCharacteristics {
	if series == nil || series.Len() == 0 {
		return []models.RegimeCharacteristics{}
	}

	bounds := make([]int, 0, len(changePoints)+2)
	bounds = append(bounds, 0)
	for _, cp := range changePoints {
		idx := sort.Search(series.Len(), func(i int) bool {
			return !series.Dates[i].Before(cp.Date)
		})
		bounds = append(bounds, idx)
	}
	bounds = append(bounds, series.Len())
	sort.Ints(bounds)

	out := make([]models.RegimeCharacteristics, 0, len(bounds)-1)
	for b := 0; b+1 < len(bounds); b++ {
		lo, hi := bounds[b], bounds[b+1]
		if hi <= lo {
			continue
		}
		out = append(out, regimeStats(len(out)+1, series, lo, hi))
	}
	return out
}

func regimeStats(id int, series *models.PriceSeries, lo, hi int) models.RegimeCharacteristics {
	prices := series.Prices[lo:hi]
	dates := series.Dates[lo:hi]
	n := len(prices)

	rc := models.RegimeCharacteristics{
		RegimeID:     id,
		StartDate:    dates[0],
		EndDate:      dates[n-1],
		DurationDays: int(dates[n-1].Sub(dates[0]).Hours()/24) + 1,
		Observations: n,
		MeanPrice:    stat.Mean(prices, nil),
		MedianPrice:  medianOf(prices),
		MinPrice:     minOf(prices),
		MaxPrice:     maxOf(prices),
	}
	if n >= 2 {
		rc.StdPrice = stat.StdDev(prices, nil)
	}
	if rc.MeanPrice != 0 {
		rc.CV = rc.StdPrice / rc.MeanPrice
	}
	if n >= 3 && rc.StdPrice > 0 {
		rc.Skewness = stat.Skew(prices, nil)
		rc.Kurtosis = stat.ExKurtosis(prices, nil)
	}
	if n >= 2 {
		xs := make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
		}
		_, slope := stat.LinearRegression(xs, prices, nil, false)
		rc.TrendSlope = slope
		r := stat.Correlation(xs, prices, nil)
		if !math.IsNaN(r) {
			rc.TrendRSq = r * r
		}
	}
	return rc
}

func medianOf(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
