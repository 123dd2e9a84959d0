package models

// RunRequest carries the sampler and association knobs of POST /api/run.
// Defaults mirror the analysis section of the config file.
type RunRequest struct {
	NChangepoints    int     `json:"n_changepoints" default:"3" validate:"gte=1,lte=10"`
	Draws            int     `json:"draws" default:"1000" validate:"gt=0,lte=20000"`
	Tune             int     `json:"tune" default:"1000" validate:"gte=0,lte=20000"`
	Chains           int     `json:"chains" default:"2" validate:"gte=1,lte=16"`
	TargetAccept     float64 `json:"target_accept" default:"0.9" validate:"gt=0,lt=1"`
	Seed             uint64  `json:"seed" default:"42"`
	TargetSeries     string  `json:"target_series" default:"returns" validate:"oneof=prices returns"`
	ToleranceDays    int     `json:"tolerance_days" default:"30" validate:"gt=0,lte=365"`
	WindowDays       int     `json:"window_days" default:"30" validate:"gt=0,lte=365"`
	CredibleInterval float64 `json:"credible_interval" default:"0.95" validate:"gt=0,lt=1"`
}

// Params converts the request into run parameters.
func (r *RunRequest) Params() AnalysisParams {
	return AnalysisParams{
		NChangepoints:    r.NChangepoints,
		Draws:            r.Draws,
		Tune:             r.Tune,
		Chains:           r.Chains,
		TargetAccept:     r.TargetAccept,
		Seed:             r.Seed,
		TargetSeries:     r.TargetSeries,
		ToleranceDays:    r.ToleranceDays,
		WindowDays:       r.WindowDays,
		CredibleInterval: r.CredibleInterval,
	}
}
