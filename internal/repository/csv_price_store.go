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
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// priceDateLayout matches the raw dataset's day-month-year format,
// e.g. "20-May-87".
const priceDateLayout = "2-Jan-06"

// CSVPriceStore loads the Brent price series from a CSV file with
// Date,Price columns. Rows with unparsable dates or prices are dropped
// and counted; duplicate dates keep the first occurrence. The returned
// series is sorted ascending by date.
type CSVPriceStore struct {
	path string
	l    *applogger.Logger
}

func NewCSVPriceStore(path string, l *applogger.Logger) *CSVPriceStore {
	return &CSVPriceStore{path: path, l: l}
}

func (s *CSVPriceStore) Load(ctx context.Context) ([]models.PricePoint, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: price csv empty", models.ErrInvalidInput)
	}
	dateCol, priceCol, err := priceColumns(header)
	if err != nil {
		return nil, err
	}

	var points []models.PricePoint
	var badDates, badPrices int
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read price csv: %w", err)
		}
		if len(rec) <= dateCol || len(rec) <= priceCol {
			badDates++
			continue
		}
		d, err := parsePriceDate(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			badDates++
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[priceCol]), 64)
		if err != nil {
			badPrices++
			continue
		}
		points = append(points, models.PricePoint{Date: d, Price: p})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no parsable rows in %s", models.ErrInvalidInput, s.path)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	points, dups := dedupeByDate(points)

	if s.l != nil {
		s.l.Info("price csv loaded",
			applogger.String("path", s.path),
			applogger.Int("rows", len(points)),
			applogger.Int("bad_dates", badDates),
			applogger.Int("bad_prices", badPrices),
			applogger.Int("duplicate_dates", dups),
		)
		if badDates > 0 || badPrices > 0 || dups > 0 {
			s.l.Warn("price csv had quality issues",
				applogger.Int("bad_dates", badDates),
				applogger.Int("bad_prices", badPrices),
				applogger.Int("duplicate_dates", dups),
			)
		}
	}
	return points, nil
}

// parsePriceDate accepts the dataset's d-MMM-yy format and falls back
// to ISO dates so exported files round-trip.
func parsePriceDate(s string) (time.Time, error) {
	if d, err := time.Parse(priceDateLayout, s); err == nil {
		return d, nil
	}
	return time.Parse("2006-01-02", s)
}

func priceColumns(header []string) (dateCol, priceCol int, err error) {
	dateCol, priceCol = -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "price":
			priceCol = i
		}
	}
	if dateCol < 0 || priceCol < 0 {
		return 0, 0, fmt.Errorf("%w: price csv must have Date and Price columns, got %v", models.ErrInvalidInput, header)
	}
	return dateCol, priceCol, nil
}

// dedupeByDate keeps the first observation of each date in an
// ascending-sorted slice.
func dedupeByDate(points []models.PricePoint) ([]models.PricePoint, int) {
	out := points[:0]
	dups := 0
	for i, p := range points {
		if i > 0 && p.Date.Equal(out[len(out)-1].Date) {
			dups++
			continue
		}
		out = append(out, p)
	}
	return out, dups
}

var _ domrepo.PriceStore = (*CSVPriceStore)(nil)
