package models

import "time"

// Event is an immutable catalog record of a geopolitical or economic
// event that potentially moved the oil market.
type Event struct {
	ID             int
	Date           time.Time
	Name           string
	Category       string
	Description    string
	ExpectedImpact string
	Region         string
	DurationDays   int
}

// EndDate returns the event date plus its expected duration.
func (e Event) EndDate() time.Time {
	return e.Date.AddDate(0, 0, e.DurationDays)
}
