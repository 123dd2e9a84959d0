package association

import (
	"sort"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domsvc "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/service"
)

// defaultConfidence is reported when no proximity weighting is enabled.
const defaultConfidence = 0.5

// Associator performs nearest-neighbor matching of change points to
// catalog events inside a day tolerance window.
type Associator struct {
	// ProximityConfidence enables linear decay of the reported
	// confidence with distance instead of the fixed placeholder.
	ProximityConfidence bool
}

// New creates an event associator.
func New() *Associator { return &Associator{} }

// Associate computes, for each change point, the signed day difference
// (event date minus change-point date) to every event, keeps those
// within tolerance, sorts by absolute proximity and retains the topN
// closest. A change point with no nearby events gets an empty, non-nil
// list.
func (a *Associator) Associate(changePoints []models.ChangePointEstimate, events []models.Event, toleranceDays, topN int) []models.Association {
	if topN <= 0 {
		topN = 3
	}
	out := make([]models.Association, 0, len(changePoints))
	for _, cp := range changePoints {
		nearby := make([]models.AssociatedEvent, 0, 4)
		for _, ev := range events {
			days := int(ev.Date.Sub(cp.Date).Hours() / 24)
			if days > toleranceDays || days < -toleranceDays {
				continue
			}
			nearby = append(nearby, models.AssociatedEvent{
				EventID:        ev.ID,
				EventDate:      ev.Date,
				EventName:      ev.Name,
				Category:       ev.Category,
				ExpectedImpact: ev.ExpectedImpact,
				DaysDifference: days,
				Confidence:     a.confidence(days, toleranceDays),
			})
		}
		sort.SliceStable(nearby, func(i, j int) bool {
			return abs(nearby[i].DaysDifference) < abs(nearby[j].DaysDifference)
		})
		if len(nearby) > topN {
			nearby = nearby[:topN]
		}
		out = append(out, models.Association{
			ChangePointID:    cp.ID,
			ChangePointDate:  cp.Date,
			AssociatedEvents: nearby,
		})
	}
	return out
}

func (a *Associator) confidence(days, tolerance int) float64 {
	if !a.ProximityConfidence || tolerance <= 0 {
		return defaultConfidence
	}
	return 1 - float64(abs(days))/float64(tolerance+1)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

var _ domsvc.EventAssociator = (*Associator)(nil)
