package service

import (
	"context"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// ChangePointDetector fits a Bayesian regime model to a prepared series
// and returns posterior change-point estimates with diagnostics.
type ChangePointDetector interface {
	Detect(ctx context.Context, prepared *models.PreparedSeries, params models.AnalysisParams) ([]models.ChangePointEstimate, models.Diagnostics, error)
}

// EventAssociator matches change-point estimates to catalog events
// within a day tolerance.
type EventAssociator interface {
	Associate(changePoints []models.ChangePointEstimate, events []models.Event, toleranceDays, topN int) []models.Association
}

// ImpactQuantifier computes before/after statistics around each change point.
type ImpactQuantifier interface {
	Quantify(series *models.PriceSeries, changePoints []models.ChangePointEstimate, windowDays int) []models.ImpactRecord
}
