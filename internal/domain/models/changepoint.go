package models

import "time"

// ChangePointEstimate summarizes the posterior of one ordinal change
// point slot. Index-space statistics are mapped to calendar dates by
// integer-truncating into the modeled series' date vector.
type ChangePointEstimate struct {
	ID            int       `json:"id"`
	Date          time.Time `json:"date"`
	MeanIndex     float64   `json:"mean_index"`
	MedianIndex   float64   `json:"median_index"`
	StdIndex      float64   `json:"std_index"`
	CILowerIndex  float64   `json:"ci_lower_index"`
	CIUpperIndex  float64   `json:"ci_upper_index"`
	CILowerDate   time.Time `json:"ci_lower_date"`
	CIUpperDate   time.Time `json:"ci_upper_date"`
	PriceAtChange float64   `json:"price_at_changepoint"`
}

// AssociatedEvent is one catalog event matched to a change point.
type AssociatedEvent struct {
	EventID        int       `json:"event_id"`
	EventDate      time.Time `json:"event_date"`
	EventName      string    `json:"event_name"`
	Category       string    `json:"category"`
	ExpectedImpact string    `json:"expected_impact"`
	DaysDifference int       `json:"days_difference"`
	Confidence     float64   `json:"confidence"`
}

// Association maps a change point to nearby catalog events, sorted by
// absolute proximity. AssociatedEvents is always non-nil; no match
// within tolerance yields an empty slice.
type Association struct {
	ChangePointID    int               `json:"changepoint_id"`
	ChangePointDate  time.Time         `json:"changepoint_date"`
	AssociatedEvents []AssociatedEvent `json:"associated_events"`
}

// WindowImpact holds before/after statistics for one metric family.
type WindowImpact struct {
	BeforeMean    float64 `json:"before_mean,omitempty"`
	AfterMean     float64 `json:"after_mean,omitempty"`
	BeforeStd     float64 `json:"before_std,omitempty"`
	AfterStd      float64 `json:"after_std,omitempty"`
	ChangePercent float64 `json:"change_percent"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significance"`
}

// ImpactRecord quantifies the before/after move around one change point.
// InsufficientData marks records whose windows held no observations;
// such records carry no statistics but do not fail the batch.
type ImpactRecord struct {
	ChangePointID    int          `json:"changepoint_id"`
	ChangePointDate  time.Time    `json:"changepoint_date"`
	ObsBefore        int          `json:"obs_before"`
	ObsAfter         int          `json:"obs_after"`
	PriceImpact      WindowImpact `json:"price_impact"`
	VolatilityImpact WindowImpact `json:"volatility_impact"`
	InsufficientData bool         `json:"insufficient_data"`
}

// RegimeCharacteristics describes one maximal span between change points.
type RegimeCharacteristics struct {
	RegimeID     int       `json:"regime_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`
	Observations int       `json:"n_observations"`
	MeanPrice    float64   `json:"mean_price"`
	MedianPrice  float64   `json:"median_price"`
	StdPrice     float64   `json:"std_price"`
	MinPrice     float64   `json:"min_price"`
	MaxPrice     float64   `json:"max_price"`
	CV           float64   `json:"cv"`
	Skewness     float64   `json:"skewness"`
	Kurtosis     float64   `json:"kurtosis"`
	TrendSlope   float64   `json:"trend_slope"`
	TrendRSq     float64   `json:"trend_r_squared"`
}

// Diagnostics reports MCMC convergence checks for a fitted model.
type Diagnostics struct {
	RHatMax     float64 `json:"r_hat_max"`
	ESSBulkMin  float64 `json:"ess_bulk_min"`
	ESSTailMin  float64 `json:"ess_tail_min"`
	Converged   bool    `json:"converged"`
	Divergences int     `json:"divergences"`
}

// AnalysisResult is the full output of one completed fit.
type AnalysisResult struct {
	RunID        string                  `json:"run_id"`
	CompletedAt  time.Time               `json:"completed_at"`
	Params       AnalysisParams          `json:"params"`
	ChangePoints []ChangePointEstimate   `json:"change_points"`
	Associations []Association           `json:"event_associations"`
	Impacts      []ImpactRecord          `json:"impact_analysis"`
	Regimes      []RegimeCharacteristics `json:"regimes"`
	Diagnostics  Diagnostics             `json:"model_diagnostics"`
}

// AnalysisParams are the caller-supplied knobs of one run.
type AnalysisParams struct {
	NChangepoints    int     `json:"n_changepoints"`
	Draws            int     `json:"draws"`
	Tune             int     `json:"tune"`
	Chains           int     `json:"chains"`
	TargetAccept     float64 `json:"target_accept"`
	Seed             uint64  `json:"seed"`
	TargetSeries     string  `json:"target_series"`
	ToleranceDays    int     `json:"tolerance_days"`
	WindowDays       int     `json:"window_days"`
	CredibleInterval float64 `json:"credible_interval"`
}
