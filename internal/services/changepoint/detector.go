package changepoint

import (
	"context"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domsvc "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/service"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// Detector fits the Bayesian regime model in-process.
type Detector struct {
	logger *applogger.Logger

	// OnProgress, when set, receives sampler progress updates. Must be
	// safe for concurrent use.
	OnProgress func(chain, done, total int)
}

// NewDetector creates a change-point detector.
func NewDetector(l *applogger.Logger) *Detector {
	return &Detector{logger: l}
}

// SetProgress installs a sampler progress callback. Not safe to call
// while a fit is running.
func (d *Detector) SetProgress(fn func(chain, done, total int)) {
	d.OnProgress = fn
}

// Detect builds the regime model for the requested target series, runs
// the sampler, and summarizes the posterior. Non-convergence is not an
// error; it is reported through the diagnostics.
func (d *Detector) Detect(ctx context.Context, prepared *models.PreparedSeries, params models.AnalysisParams) ([]models.ChangePointEstimate, models.Diagnostics, error) {
	y, dates, prices := selectTarget(prepared, params.TargetSeries)

	model, err := Build(y, params.NChangepoints, d.logger)
	if err != nil {
		return nil, models.Diagnostics{}, err
	}

	start := time.Now()
	if d.logger != nil {
		d.logger.Info("mcmc sampling started",
			applogger.Int("observations", model.N),
			applogger.Int("n_changepoints", params.NChangepoints),
			applogger.Int("draws", params.Draws),
			applogger.Int("tune", params.Tune),
			applogger.Int("chains", params.Chains),
		)
	}

	trace, err := model.Sample(ctx, SamplerConfig{
		Draws:        params.Draws,
		Tune:         params.Tune,
		Chains:       params.Chains,
		TargetAccept: params.TargetAccept,
		Seed:         params.Seed,
		Progress:     d.OnProgress,
	})
	if err != nil {
		return nil, models.Diagnostics{}, err
	}

	estimates, diag, err := Summarize(trace, dates, prices, params.CredibleInterval)
	if err != nil {
		return nil, models.Diagnostics{}, err
	}

	if d.logger != nil {
		d.logger.Info("mcmc sampling finished",
			applogger.Int("total_draws", trace.TotalDraws()),
			applogger.Any("r_hat_max", diag.RHatMax),
			applogger.Bool("converged", diag.Converged),
			applogger.Duration("duration_ms", time.Since(start)),
		)
		if !diag.Converged {
			d.logger.Warn("sampler did not converge; consider more draws or tuning",
				applogger.Any("r_hat_max", diag.RHatMax),
				applogger.Int("divergences", diag.Divergences),
			)
		}
	}
	return estimates, diag, nil
}

// selectTarget picks the modeled series. For log returns the price at
// modeled index i is the price on the same (later) date, i.e. the
// original series shifted by one.
func selectTarget(p *models.PreparedSeries, target string) (y []float64, dates []time.Time, prices []float64) {
	if target == "prices" || p.Returns == nil || len(p.Returns.Returns) < 4 {
		return p.Prices.Prices, p.Prices.Dates, p.Prices.Prices
	}
	return p.Returns.Returns, p.Returns.Dates, p.Prices.Prices[1:]
}

var _ domsvc.ChangePointDetector = (*Detector)(nil)
