package impact

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domsvc "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/service"
)

// significanceLevel for the two-sample tests.
const significanceLevel = 0.05

// Quantifier computes before/after impact statistics around change points.
type Quantifier struct{}

// New creates an impact quantifier.
func New() *Quantifier { return &Quantifier{} }

// Quantify computes windowed impact records for every change point.
// Windows are asymmetric half-open around the change point date:
// before = [cp-window, cp), after = (cp, cp+window]; the change-point
// date itself belongs to neither. A window without observations yields
// a record flagged InsufficientData instead of failing the batch.
func (q *Quantifier) Quantify(series *models.PriceSeries, changePoints []models.ChangePointEstimate, windowDays int) []models.ImpactRecord {
	out := make([]models.ImpactRecord, 0, len(changePoints))
	for _, cp := range changePoints {
		out = append(out, q.quantifyOne(series, cp, windowDays))
	}
	return out
}

func (q *Quantifier) quantifyOne(series *models.PriceSeries, cp models.ChangePointEstimate, windowDays int) models.ImpactRecord {
	rec := models.ImpactRecord{
		ChangePointID:   cp.ID,
		ChangePointDate: cp.Date,
	}

	start := cp.Date.AddDate(0, 0, -windowDays)
	end := cp.Date.AddDate(0, 0, windowDays)

	var before, after []float64
	for i, d := range series.Dates {
		switch {
		case inRange(d, start, true, cp.Date, false):
			before = append(before, series.Prices[i])
		case inRange(d, cp.Date, false, end, true):
			after = append(after, series.Prices[i])
		}
	}
	rec.ObsBefore = len(before)
	rec.ObsAfter = len(after)

	if len(before) == 0 || len(after) == 0 {
		rec.InsufficientData = true
		return rec
	}

	beforeMean := stat.Mean(before, nil)
	afterMean := stat.Mean(after, nil)
	beforeStd := sampleStd(before)
	afterStd := sampleStd(after)

	_, pMean := welchTTest(before, after)
	rec.PriceImpact = models.WindowImpact{
		BeforeMean:    beforeMean,
		AfterMean:     afterMean,
		ChangePercent: percentChange(beforeMean, afterMean),
		PValue:        pMean,
		Significant:   pMean < significanceLevel,
	}

	// Brown-Forsythe style dispersion test: Welch t-test on absolute
	// deviations from each window's median.
	_, pVol := welchTTest(absDeviations(before), absDeviations(after))
	rec.VolatilityImpact = models.WindowImpact{
		BeforeStd:     beforeStd,
		AfterStd:      afterStd,
		ChangePercent: percentChange(beforeStd, afterStd),
		PValue:        pVol,
		Significant:   pVol < significanceLevel,
	}
	return rec
}

// inRange reports whether d lies in the interval with the given
// boundary inclusivity.
func inRange(d, lo time.Time, loIncl bool, hi time.Time, hiIncl bool) bool {
	if d.Before(lo) || (!loIncl && d.Equal(lo)) {
		return false
	}
	if d.After(hi) || (!hiIncl && d.Equal(hi)) {
		return false
	}
	return true
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

func absDeviations(xs []float64) []float64 {
	med := median(xs)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Abs(x - med)
	}
	return out
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// welchTTest computes the unequal-variance two-sample t statistic and
// its two-sided p-value with Welch-Satterthwaite degrees of freedom.
func welchTTest(x, y []float64) (t, p float64) {
	nx, ny := float64(len(x)), float64(len(y))
	if nx < 2 || ny < 2 {
		return 0, 1
	}
	mx := stat.Mean(x, nil)
	my := stat.Mean(y, nil)
	vx := stat.Variance(x, nil)
	vy := stat.Variance(y, nil)

	se2 := vx/nx + vy/ny
	if se2 == 0 {
		if mx == my {
			return 0, 1
		}
		return math.Inf(sign(mx - my)), 0
	}
	t = (mx - my) / math.Sqrt(se2)

	df := se2 * se2 / (vx*vx/(nx*nx*(nx-1)) + vy*vy/(ny*ny*(ny-1)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.CDF(-math.Abs(t))
	return t, p
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}

var _ domsvc.ImpactQuantifier = (*Quantifier)(nil)
