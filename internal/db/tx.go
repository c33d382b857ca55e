package db

import (
	"context"
	"fmt"

	"inventory-planner/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// pgTx implements core.Tx on a live pgx transaction. Lock methods take row
// locks that are held until the transaction ends.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockProcurement(ctx context.Context, id int) (*core.ProcurementRequest, error) {
	return loadProcurement(ctx, t.tx, id, true)
}

func (t *pgTx) LockPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return loadPurchaseOrder(ctx, t.tx, id, true)
}

func (t *pgTx) LockPurchaseOrdersByProcurement(ctx context.Context, procurementID int) ([]*core.PurchaseOrder, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id FROM purchase_orders
		WHERE procurement_id = $1
		ORDER BY id
		FOR UPDATE
	`, procurementID)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders of procurement %d: %w", procurementID, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("scan purchase order ids: %w", err)
	}

	orders := make([]*core.PurchaseOrder, 0, len(ids))
	for _, id := range ids {
		po, err := loadPurchaseOrder(ctx, t.tx, id, true)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (t *pgTx) InsertProcurement(ctx context.Context, r *core.ProcurementRequest) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO procurement_requests
		    (source, sales_order_id, supplier_id, status, priority, needed_by,
		     total_cost, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, string(r.Source), r.SalesOrderID, r.SupplierID, string(r.Status), string(r.Priority), r.NeededBy,
		r.TotalCost, r.Notes, r.CreatedBy, r.CreatedAt, r.UpdatedAt).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert procurement header: %w", err)
	}

	for i := range r.Lines {
		l := &r.Lines[i]
		l.RequestID = r.ID
		err := t.tx.QueryRow(ctx, `
			INSERT INTO procurement_lines
			    (request_id, item_kind, item_id, requested_qty, approved_qty,
			     received_qty, unit_price, ordering_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, r.ID, string(l.Item.Kind), l.Item.ID, l.RequestedQty, nullable(l.ApprovedQty),
			l.ReceivedQty, l.UnitPrice, nullable(l.OrderingCost)).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert procurement line %d: %w", i+1, err)
		}
	}
	return nil
}

func (t *pgTx) UpdateProcurement(ctx context.Context, r *core.ProcurementRequest) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE procurement_requests
		SET status = $2, priority = $3, total_cost = $4, notes = $5,
		    updated_at = $6, completed_at = $7
		WHERE id = $1
	`, r.ID, string(r.Status), string(r.Priority), r.TotalCost, r.Notes, r.UpdatedAt, r.CompletedAt)
	if err != nil {
		return fmt.Errorf("update procurement header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("procurement %d: %w", r.ID, core.ErrNotFound)
	}

	for _, l := range r.Lines {
		if _, err := t.tx.Exec(ctx, `
			UPDATE procurement_lines
			SET approved_qty = $2, received_qty = $3
			WHERE id = $1 AND request_id = $4
		`, l.ID, nullable(l.ApprovedQty), l.ReceivedQty, r.ID); err != nil {
			return fmt.Errorf("update procurement line %d: %w", l.ID, err)
		}
	}
	return nil
}

func (t *pgTx) InsertPurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO purchase_orders
		    (procurement_id, supplier_id, status, total_cost, payment_terms_days,
		     created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version
	`, po.ProcurementID, po.SupplierID, string(po.Status), po.TotalCost, po.PaymentTermsDays,
		po.CreatedBy, po.CreatedAt, po.UpdatedAt).Scan(&po.ID, &po.Version)
	if err != nil {
		return fmt.Errorf("insert purchase order header: %w", err)
	}

	for i := range po.Lines {
		l := &po.Lines[i]
		l.OrderID = po.ID
		err := t.tx.QueryRow(ctx, `
			INSERT INTO purchase_order_lines
			    (order_id, procurement_line_id, item_kind, item_id, qty_ordered, qty_received, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, po.ID, l.ProcurementLineID, string(l.Item.Kind), l.Item.ID, l.QtyOrdered, l.QtyReceived,
			l.UnitPrice).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert purchase order line %d: %w", i+1, err)
		}
	}
	return nil
}

// UpdatePurchaseOrder writes the header only when the stored version still
// matches po.Version, then bumps po.Version.
func (t *pgTx) UpdatePurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $2, total_cost = $3, updated_at = $4, received_at = $5,
		    version = version + 1
		WHERE id = $1 AND version = $6
	`, po.ID, string(po.Status), po.TotalCost, po.UpdatedAt, po.ReceivedAt, po.Version)
	if err != nil {
		return fmt.Errorf("update purchase order header: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase order %d version %d: %w", po.ID, po.Version, core.ErrConflict)
	}

	for _, l := range po.Lines {
		if _, err := t.tx.Exec(ctx, `
			UPDATE purchase_order_lines
			SET qty_received = $2
			WHERE id = $1 AND order_id = $3
		`, l.ID, l.QtyReceived, po.ID); err != nil {
			return fmt.Errorf("update purchase order line %d: %w", l.ID, err)
		}
	}
	po.Version++
	return nil
}

func (t *pgTx) AdjustStock(ctx context.Context, ref core.ItemRef, delta decimal.Decimal) error {
	table, err := itemTable(ref.Kind)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, "UPDATE "+table+" SET stock = stock + $2 WHERE id = $1", ref.ID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", ref.Kind, ref.ID, core.ErrNotFound)
	}
	return nil
}

func (t *pgTx) InsertGoodsReceipt(ctx context.Context, gr *core.GoodsReceipt) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO goods_receipts (purchase_order_id, received_at, received_by)
		VALUES ($1, $2, $3)
		RETURNING id
	`, gr.PurchaseOrderID, gr.ReceivedAt, gr.ReceivedBy).Scan(&gr.ID)
	if err != nil {
		return fmt.Errorf("insert goods receipt: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range gr.Lines {
		batch.Queue(`
			INSERT INTO goods_receipt_lines (receipt_id, purchase_order_line_id, quantity)
			VALUES ($1, $2, $3)
		`, gr.ID, l.PurchaseOrderLineID, l.Quantity)
	}
	br := t.tx.SendBatch(ctx, batch)
	defer br.Close()
	for range gr.Lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert goods receipt line: %w", err)
		}
	}
	return nil
}
