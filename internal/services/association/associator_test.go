package association

import (
	"testing"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
)

func dt(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestAssociateToleranceBoundary(t *testing.T) {
	cp := models.ChangePointEstimate{ID: 1, Date: dt(2020, 3, 1)}
	events := []models.Event{
		{ID: 1, Date: dt(2020, 1, 31), Name: "too early"},  // -30 days
		{ID: 2, Date: dt(2020, 3, 31), Name: "at edge"},    // +30 days
		{ID: 3, Date: dt(2020, 4, 1), Name: "past edge"},   // +31 days
		{ID: 4, Date: dt(2020, 3, 3), Name: "closest"},     // +2 days
		{ID: 5, Date: dt(2020, 1, 30), Name: "out before"}, // -31 days
	}

	out := New().Associate([]models.ChangePointEstimate{cp}, events, 30, 10)
	if len(out) != 1 {
		t.Fatalf("expected 1 association, got %d", len(out))
	}
	got := out[0].AssociatedEvents
	if len(got) != 3 {
		t.Fatalf("expected 3 matched events, got %d", len(got))
	}
	// sorted by absolute proximity
	if got[0].EventID != 4 {
		t.Fatalf("closest event first, got id %d", got[0].EventID)
	}
	for _, e := range got {
		if e.EventID == 3 || e.EventID == 5 {
			t.Fatalf("event %d outside tolerance was matched", e.EventID)
		}
	}
}

func TestAssociateSignedDayDifference(t *testing.T) {
	cp := models.ChangePointEstimate{ID: 1, Date: dt(2020, 3, 10)}
	events := []models.Event{{ID: 1, Date: dt(2020, 3, 5)}}

	out := New().Associate([]models.ChangePointEstimate{cp}, events, 30, 3)
	if got := out[0].AssociatedEvents[0].DaysDifference; got != -5 {
		t.Fatalf("days difference = %d, want -5", got)
	}
}

func TestAssociateTopN(t *testing.T) {
	cp := models.ChangePointEstimate{ID: 1, Date: dt(2020, 3, 10)}
	var events []models.Event
	for i := 1; i <= 6; i++ {
		events = append(events, models.Event{ID: i, Date: dt(2020, 3, 10+i)})
	}
	out := New().Associate([]models.ChangePointEstimate{cp}, events, 30, 0)
	if got := len(out[0].AssociatedEvents); got != 3 {
		t.Fatalf("default topN should keep 3, got %d", got)
	}
}

func TestAssociateNoMatchesIsEmptyNotNil(t *testing.T) {
	cp := models.ChangePointEstimate{ID: 1, Date: dt(2020, 3, 10)}
	out := New().Associate([]models.ChangePointEstimate{cp}, nil, 30, 3)
	if out[0].AssociatedEvents == nil {
		t.Fatalf("associated events must be non-nil")
	}
	if len(out[0].AssociatedEvents) != 0 {
		t.Fatalf("expected empty matches")
	}
}

func TestAssociateProximityConfidence(t *testing.T) {
	a := &Associator{ProximityConfidence: true}
	cp := models.ChangePointEstimate{ID: 1, Date: dt(2020, 3, 10)}
	events := []models.Event{
		{ID: 1, Date: dt(2020, 3, 10)},
		{ID: 2, Date: dt(2020, 4, 9)}, // 30 days out
	}
	out := a.Associate([]models.ChangePointEstimate{cp}, events, 30, 3)
	evs := out[0].AssociatedEvents
	if evs[0].Confidence <= evs[1].Confidence {
		t.Fatalf("closer event should have higher confidence: %v vs %v", evs[0].Confidence, evs[1].Confidence)
	}
}
