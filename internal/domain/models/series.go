package models

import "time"

// PricePoint is a single dated observation of the Brent price.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// PriceSeries is an ordered, strictly increasing daily price series.
// It is loaded once and treated as an immutable snapshot.
type PriceSeries struct {
	Dates  []time.Time
	Prices []float64
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int { return len(s.Prices) }

// Start returns the first date of the series, zero if empty.
func (s *PriceSeries) Start() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[0]
}

// End returns the last date of the series, zero if empty.
func (s *PriceSeries) End() time.Time {
	if len(s.Dates) == 0 {
		return time.Time{}
	}
	return s.Dates[len(s.Dates)-1]
}

// LogReturns is the diff-of-logs series derived from a PriceSeries.
// It is one element shorter than its parent and aligned to the later
// date of each pair.
type LogReturns struct {
	Dates   []time.Time
	Returns []float64
}

// SeriesSummary is a read-only snapshot of descriptive statistics
// computed during series preparation.
type SeriesSummary struct {
	Observations int
	StartDate    time.Time
	EndDate      time.Time
	MinPrice     float64
	MaxPrice     float64
	MeanPrice    float64
	StdPrice     float64
	MeanReturn   float64
	StdReturn    float64
	Skewness     float64
	Kurtosis     float64
}

// PreparedSeries bundles the cleaned series, its log returns and the
// summary snapshot produced by series preparation. Dropped counts the
// raw points removed during cleaning.
type PreparedSeries struct {
	Prices  *PriceSeries
	Returns *LogReturns
	Summary SeriesSummary
	Dropped int
}
