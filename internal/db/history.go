package db

import (
	"context"
	"fmt"
	"time"

	"inventory-planner/internal/core"

	"github.com/shopspring/decimal"
)

// DemandHistory reads sales order lines for products and procurement lines for
// materials. Cancelled and rejected documents do not count as demand. Order
// dates are read as UTC midnight whatever the session TimeZone is.
func (s *Store) DemandHistory(ctx context.Context, item core.ItemRef, from, to time.Time) ([]core.HistoryLine, error) {
	var q string
	switch item.Kind {
	case core.KindProduct:
		q = `
			SELECT so.order_date::timestamp AT TIME ZONE 'UTC', sol.quantity
			FROM sales_order_lines sol
			JOIN sales_orders so ON so.id = sol.order_id
			WHERE sol.product_id = $1
			  AND so.status <> 'cancelled'
			  AND so.order_date BETWEEN ($2::timestamptz AT TIME ZONE 'UTC')::date
			                        AND ($3::timestamptz AT TIME ZONE 'UTC')::date
			ORDER BY so.order_date`
	case core.KindMaterial:
		q = `
			SELECT pr.created_at, COALESCE(pl.approved_qty, pl.requested_qty)
			FROM procurement_lines pl
			JOIN procurement_requests pr ON pr.id = pl.request_id
			WHERE pl.item_kind = 'material' AND pl.item_id = $1
			  AND pr.status NOT IN ('cancelled', 'rejected')
			  AND pr.created_at BETWEEN $2 AND $3
			ORDER BY pr.created_at`
	default:
		return nil, &core.InvalidInputError{Field: "item_kind", Reason: fmt.Sprintf("unknown item kind %q", item.Kind)}
	}

	rows, err := s.pool.Query(ctx, q, item.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query demand history: %w", err)
	}
	defer rows.Close()

	var lines []core.HistoryLine
	for rows.Next() {
		var l core.HistoryLine
		if err := rows.Scan(&l.Date, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan demand line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// LeadTimeHistory reads completed procurement requests containing a material,
// or completed production orders for a product.
func (s *Store) LeadTimeHistory(ctx context.Context, item core.ItemRef, from time.Time) ([]core.LeadTimeRecord, error) {
	var q string
	switch item.Kind {
	case core.KindMaterial:
		q = `
			SELECT pr.created_at, COALESCE(pr.completed_at, pr.updated_at)
			FROM procurement_requests pr
			WHERE pr.status = 'received'
			  AND pr.created_at >= $2
			  AND EXISTS (
			      SELECT 1 FROM procurement_lines pl
			      WHERE pl.request_id = pr.id AND pl.item_kind = 'material' AND pl.item_id = $1)`
	case core.KindProduct:
		q = `
			SELECT created_at, updated_at
			FROM production_orders
			WHERE product_id = $1 AND status = 'completed' AND created_at >= $2`
	default:
		return nil, &core.InvalidInputError{Field: "item_kind", Reason: fmt.Sprintf("unknown item kind %q", item.Kind)}
	}

	rows, err := s.pool.Query(ctx, q, item.ID, from)
	if err != nil {
		return nil, fmt.Errorf("query lead time history: %w", err)
	}
	defer rows.Close()

	var records []core.LeadTimeRecord
	for rows.Next() {
		var r core.LeadTimeRecord
		if err := rows.Scan(&r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan lead time record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) OrderingCostHistory(ctx context.Context, item core.ItemRef, from time.Time) ([]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pl.ordering_cost
		FROM procurement_lines pl
		JOIN procurement_requests pr ON pr.id = pl.request_id
		WHERE pl.item_kind = $1 AND pl.item_id = $2
		  AND pl.ordering_cost IS NOT NULL
		  AND pr.created_at >= $3
	`, string(item.Kind), item.ID, from)
	if err != nil {
		return nil, fmt.Errorf("query ordering costs: %w", err)
	}
	defer rows.Close()

	var costs []decimal.Decimal
	for rows.Next() {
		var c decimal.Decimal
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan ordering cost: %w", err)
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}
