// Package postgres backs the row store with PostgreSQL for self-hosted
// deployments, keeping the same flat-row encoding the external tabular
// service uses.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"butcherdesk/backend/internal/codec"
	"butcherdesk/backend/internal/domain"
	"butcherdesk/backend/internal/rowstore"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(16)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FetchOrderRows(ctx context.Context, butcherID string) ([]codec.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_date, order_no, items, quantities, sizes, cut_types,
		       preparing_amounts, completion_time, start_time, status, revenue
		FROM butcher_orders
		WHERE butcher_id = $1
		ORDER BY order_date, order_no
	`, butcherID)
	if err != nil {
		return nil, fmt.Errorf("rowstore/postgres: fetch order rows: %w", err)
	}
	defer rows.Close()

	out := make([]codec.Row, 0, 32)
	for rows.Next() {
		var r codec.Row
		if err := rows.Scan(&r.Date, &r.OrderNo, &r.Items, &r.Quantities, &r.Sizes, &r.CutTypes,
			&r.PreparingAmounts, &r.CompletionTime, &r.StartTime, &r.Status, &r.Revenue); err != nil {
			return nil, fmt.Errorf("rowstore/postgres: scan order row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rowstore/postgres: iterate order rows: %w", err)
	}
	return out, nil
}

func (s *Store) AppendOrderRow(ctx context.Context, butcherID string, row codec.Row) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO butcher_orders
			(butcher_id, order_date, order_no, items, quantities, sizes, cut_types,
			 preparing_amounts, completion_time, start_time, status, revenue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, butcherID, row.Date, row.OrderNo, row.Items, row.Quantities, row.Sizes, row.CutTypes,
		row.PreparingAmounts, row.CompletionTime, row.StartTime, row.Status, row.Revenue)
	if err != nil {
		return fmt.Errorf("rowstore/postgres: append order row: %w", err)
	}
	return nil
}

func (s *Store) UpdateOrderRow(ctx context.Context, butcherID string, orderNo int, patch codec.RowPatch) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE butcher_orders SET
			preparing_amounts = COALESCE($3, preparing_amounts),
			completion_time   = COALESCE($4, completion_time),
			start_time        = COALESCE($5, start_time),
			status            = COALESCE($6, status),
			revenue           = COALESCE($7, revenue)
		WHERE butcher_id = $1 AND order_no = $2
	`, butcherID, orderNo, patch.PreparingAmounts, patch.CompletionTime, patch.StartTime, patch.Status, patch.Revenue)
	if err != nil {
		return fmt.Errorf("rowstore/postgres: update order row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rowstore/postgres: update order row: %w", err)
	}
	if affected == 0 {
		return rowstore.ErrNotFound
	}
	return nil
}

func (s *Store) FetchCatalogRows(ctx context.Context, butcher domain.Butcher) ([]domain.PriceEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_name, category, COALESCE(item_size, ''), purchase_price, selling_price, unit
		FROM butcher_catalog
		WHERE butcher_id = $1
		ORDER BY item_name
	`, butcher.ID)
	if err != nil {
		return nil, fmt.Errorf("rowstore/postgres: fetch catalog rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.PriceEntry, 0, 64)
	for rows.Next() {
		var e domain.PriceEntry
		if err := rows.Scan(&e.ItemName, &e.Category, &e.Size, &e.PurchasePrice, &e.SellingPrice, &e.Unit); err != nil {
			return nil, fmt.Errorf("rowstore/postgres: scan catalog row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rowstore/postgres: iterate catalog rows: %w", err)
	}
	return out, nil
}

func (s *Store) FetchRateRows(ctx context.Context, butcherID string) ([]domain.RateConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT butcher_id, category, commission_rate, markup_rate
		FROM butcher_rates
		WHERE butcher_id = $1
	`, butcherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("rowstore/postgres: fetch rate rows: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RateConfig, 0, 8)
	for rows.Next() {
		var r domain.RateConfig
		if err := rows.Scan(&r.ButcherID, &r.Category, &r.CommissionRate, &r.MarkupRate); err != nil {
			return nil, fmt.Errorf("rowstore/postgres: scan rate row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rowstore/postgres: iterate rate rows: %w", err)
	}
	return out, nil
}
