package repository

import (
	"context"
	"database/sql"
	"fmt"

	"PivotPipe/internal/domain/models"
)

// ClickHouseArchive stores closed candles in ClickHouse for offline
// analysis and for building replay archives.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates the archive over an established connection.
func NewClickHouseArchive(db *sql.DB, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: db, table: table}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		symbol String,
		window_start DateTime,
		window_end DateTime,
		open Float64,
		high Float64,
		low Float64,
		close Float64,
		volume Float64
	) ENGINE=MergeTree ORDER BY (symbol, window_start)`, a.table)
	if _, err := a.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("candle archive schema: %w", err)
	}
	return nil
}

func (a *ClickHouseArchive) ArchiveCandle(ctx context.Context, c *models.Candle) error {
	q := fmt.Sprintf("INSERT INTO %s (symbol, window_start, window_end, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", a.table)
	_, err := a.db.ExecContext(ctx, q,
		c.Symbol,
		c.WindowStart,
		c.WindowEnd,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.Volume,
	)
	if err != nil {
		return fmt.Errorf("archive candle %s: %w", c.Symbol, err)
	}
	return nil
}

func (a *ClickHouseArchive) Close() error {
	return nil // connection managed by pkg/clickhouse
}
