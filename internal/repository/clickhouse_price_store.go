package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
	pkgch "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/clickhouse"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
)

// CHPriceStore implements PriceStore backed by ClickHouse, for
// deployments that keep the price history in the warehouse instead of
// a flat file.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client, table string) *CHPriceStore {
	return &CHPriceStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceStore) Load(ctx context.Context) ([]models.PricePoint, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT day, price
        FROM %s
        ORDER BY day ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse price query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("load prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PricePoint, 0, 8192)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse price scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse price rows error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse prices loaded",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)
