package repository

import (
	"context"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

// PriceStore loads the raw Brent price series from its backing source.
type PriceStore interface {
	Load(ctx context.Context) ([]models.PricePoint, error)
}

// EventStore provides the curated event catalog.
type EventStore interface {
	Load(ctx context.Context) ([]models.Event, error)
}

// Publisher fans out completed analysis results to downstream consumers.
type Publisher interface {
	PublishResult(ctx context.Context, res *models.AnalysisResult) error
	Close() error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordFit(status string, seconds float64)
	RecordSamplerIterations(n int)
	RecordCache(hit bool)
	RecordPublish(status string)
	RecordError(kind string)
}

// FilterEventsByPeriod returns catalog events within [from, to].
// Zero bounds are open.
func FilterEventsByPeriod(events []models.Event, from, to time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
