package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
)

// BuiltinEventStore serves the curated catalog of major geopolitical
// and economic events known to have moved Brent prices.
type BuiltinEventStore struct{}

func NewBuiltinEventStore() *BuiltinEventStore { return &BuiltinEventStore{} }

func (s *BuiltinEventStore) Load(ctx context.Context) ([]models.Event, error) {
	return BuiltinEvents(), nil
}

// BuiltinEvents returns a copy of the curated event catalog.
func BuiltinEvents() []models.Event {
	out := make([]models.Event, len(builtinEvents))
	copy(out, builtinEvents)
	return out
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

var builtinEvents = []models.Event{
	{ID: 1, Date: day("1990-08-02"), Name: "Iraq Invasion of Kuwait", Category: "Geopolitical Conflict", Description: "Iraq invaded Kuwait, leading to Gulf War and oil supply disruption", ExpectedImpact: "Price Increase", Region: "Middle East", DurationDays: 210},
	{ID: 2, Date: day("1997-07-02"), Name: "Asian Financial Crisis", Category: "Economic Crisis", Description: "Financial crisis in Asia leading to reduced oil demand", ExpectedImpact: "Price Decrease", Region: "Asia", DurationDays: 365},
	{ID: 3, Date: day("2001-09-11"), Name: "9/11 Terrorist Attacks", Category: "Geopolitical Event", Description: "Terrorist attacks in US causing market uncertainty", ExpectedImpact: "Price Volatility", Region: "North America", DurationDays: 30},
	{ID: 4, Date: day("2003-03-20"), Name: "Iraq War Begins", Category: "Geopolitical Conflict", Description: "US-led invasion of Iraq disrupting oil production", ExpectedImpact: "Price Increase", Region: "Middle East", DurationDays: 180},
	{ID: 5, Date: day("2008-09-15"), Name: "Lehman Brothers Collapse", Category: "Economic Crisis", Description: "Global financial crisis reducing oil demand", ExpectedImpact: "Price Decrease", Region: "Global", DurationDays: 365},
	{ID: 6, Date: day("2010-12-17"), Name: "Arab Spring Begins", Category: "Geopolitical Unrest", Description: "Political upheaval across Middle East and North Africa", ExpectedImpact: "Price Increase", Region: "Middle East/North Africa", DurationDays: 730},
	{ID: 7, Date: day("2011-03-11"), Name: "Fukushima Nuclear Disaster", Category: "Natural/Industrial Disaster", Description: "Nuclear disaster affecting energy markets and demand", ExpectedImpact: "Price Increase", Region: "Asia", DurationDays: 90},
	{ID: 8, Date: day("2014-11-27"), Name: "OPEC Maintains Production", Category: "OPEC Policy", Description: "OPEC decides not to cut production despite falling prices", ExpectedImpact: "Price Decrease", Region: "Global", DurationDays: 180},
	{ID: 9, Date: day("2016-11-30"), Name: "OPEC Production Cut Agreement", Category: "OPEC Policy", Description: "OPEC agrees to cut oil production for first time since 2008", ExpectedImpact: "Price Increase", Region: "Global", DurationDays: 365},
	{ID: 10, Date: day("2018-05-08"), Name: "US Withdraws from Iran Nuclear Deal", Category: "Sanctions/Trade", Description: "US reimposed sanctions on Iran affecting oil exports", ExpectedImpact: "Price Increase", Region: "Middle East", DurationDays: 180},
	{ID: 11, Date: day("2020-03-06"), Name: "Saudi-Russia Oil Price War", Category: "OPEC Policy", Description: "Saudi Arabia and Russia failed to agree on production cuts", ExpectedImpact: "Price Decrease", Region: "Global", DurationDays: 60},
	{ID: 12, Date: day("2020-03-11"), Name: "COVID-19 Pandemic Declaration", Category: "Health Crisis", Description: "WHO declares COVID-19 pandemic, massive demand destruction", ExpectedImpact: "Price Decrease", Region: "Global", DurationDays: 365},
	{ID: 13, Date: day("2021-03-23"), Name: "Suez Canal Blockage", Category: "Supply Chain Disruption", Description: "Ever Given ship blocks Suez Canal affecting oil transport", ExpectedImpact: "Price Increase", Region: "Middle East", DurationDays: 6},
	{ID: 14, Date: day("2022-02-24"), Name: "Russia Invades Ukraine", Category: "Geopolitical Conflict", Description: "Russia invasion of Ukraine leading to energy supply concerns", ExpectedImpact: "Price Increase", Region: "Europe/Russia", DurationDays: 180},
	{ID: 15, Date: day("2022-03-31"), Name: "IEA Strategic Reserve Release", Category: "Policy Response", Description: "IEA coordinates largest strategic petroleum reserve release", ExpectedImpact: "Price Decrease", Region: "Global", DurationDays: 90},
}

// CSVEventStore loads a custom event catalog from CSV with columns
// event_id,date,event_name,category,description,expected_impact,region,duration_days.
// Dates are ISO (2006-01-02).
type CSVEventStore struct {
	path string
}

func NewCSVEventStore(path string) *CSVEventStore { return &CSVEventStore{path: path} }

func (s *CSVEventStore) Load(ctx context.Context) ([]models.Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open event csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: event csv empty", models.ErrInvalidInput)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"event_id", "date", "event_name", "category"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: event csv missing column %q", models.ErrInvalidInput, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var events []models.Event
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read event csv: %w", err)
		}
		id, err := strconv.Atoi(field(rec, "event_id"))
		if err != nil {
			return nil, fmt.Errorf("%w: bad event_id %q", models.ErrInvalidInput, field(rec, "event_id"))
		}
		d, err := time.Parse("2006-01-02", field(rec, "date"))
		if err != nil {
			return nil, fmt.Errorf("%w: bad event date %q", models.ErrInvalidInput, field(rec, "date"))
		}
		duration := 0
		if v := field(rec, "duration_days"); v != "" {
			duration, err = strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: bad duration_days %q", models.ErrInvalidInput, v)
			}
		}
		events = append(events, models.Event{
			ID:             id,
			Date:           d,
			Name:           field(rec, "event_name"),
			Category:       field(rec, "category"),
			Description:    field(rec, "description"),
			ExpectedImpact: field(rec, "expected_impact"),
			Region:         field(rec, "region"),
			DurationDays:   duration,
		})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

var (
	_ domrepo.EventStore = (*BuiltinEventStore)(nil)
	_ domrepo.EventStore = (*CSVEventStore)(nil)
)
