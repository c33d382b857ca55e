package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-planner/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so loaders can run
// inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the PostgreSQL implementation of core.Store.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

var _ core.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{pool: pool, log: log.Named("store")}
}

// WithTx runs fn in a transaction. The transaction commits only when fn
// returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// itemSelect returns the column list for an item table. Materials carry a
// purchase price and products a selling price; both map to UnitValue.
func itemSelect(kind core.ItemKind) (string, error) {
	switch kind {
	case core.KindMaterial:
		return `SELECT id, code, name, unit, stock, unit_price, reorder_point, eoq FROM materials`, nil
	case core.KindProduct:
		return `SELECT id, code, name, unit, stock, selling_price, reorder_point, eoq FROM products`, nil
	}
	return "", &core.InvalidInputError{Field: "item_kind", Reason: fmt.Sprintf("unknown item kind %q", kind)}
}

func itemTable(kind core.ItemKind) (string, error) {
	switch kind {
	case core.KindMaterial:
		return "materials", nil
	case core.KindProduct:
		return "products", nil
	}
	return "", &core.InvalidInputError{Field: "item_kind", Reason: fmt.Sprintf("unknown item kind %q", kind)}
}

func scanItem(row pgx.Row, kind core.ItemKind) (*core.InventoryItem, error) {
	it := core.InventoryItem{Ref: core.ItemRef{Kind: kind}}
	if err := row.Scan(&it.Ref.ID, &it.Code, &it.Name, &it.Unit, &it.Stock, &it.UnitValue,
		&it.StoredReorderPoint, &it.StoredEOQ); err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *Store) GetItem(ctx context.Context, ref core.ItemRef) (*core.InventoryItem, error) {
	q, err := itemSelect(ref.Kind)
	if err != nil {
		return nil, err
	}
	it, err := scanItem(s.pool.QueryRow(ctx, q+" WHERE id = $1", ref.ID), ref.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", ref.Kind, ref.ID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	return it, nil
}

func (s *Store) ListItems(ctx context.Context, kind core.ItemKind) ([]core.InventoryItem, error) {
	q, err := itemSelect(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, q+" WHERE is_active = true ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query %s items: %w", kind, err)
	}
	defer rows.Close()

	var items []core.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows, kind)
		if err != nil {
			return nil, fmt.Errorf("scan %s item: %w", kind, err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *Store) GetBOM(ctx context.Context, productID int) ([]core.BOMEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT product_id, material_id, quantity_per
		FROM bom_entries
		WHERE product_id = $1
		ORDER BY material_id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("query BOM: %w", err)
	}
	defer rows.Close()

	var entries []core.BOMEntry
	for rows.Next() {
		var e core.BOMEntry
		if err := rows.Scan(&e.ProductID, &e.MaterialID, &e.QuantityPer); err != nil {
			return nil, fmt.Errorf("scan BOM entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetSalesOrder(ctx context.Context, orderID int) (*core.SalesOrder, error) {
	var (
		so       core.SalesOrder
		required *time.Time
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, order_number, status, order_date, required_date
		FROM sales_orders
		WHERE id = $1
	`, orderID).Scan(&so.ID, &so.OrderNumber, &so.Status, &so.OrderDate, &required)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sales order %d: %w", orderID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if required != nil {
		so.RequiredDate = *required
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, quantity
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query sales order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l core.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan sales order line: %w", err)
		}
		so.Lines = append(so.Lines, l)
	}
	return &so, rows.Err()
}

func (s *Store) GetSupplier(ctx context.Context, supplierID int) (*core.Supplier, error) {
	var sup core.Supplier
	err := s.pool.QueryRow(ctx, `
		SELECT id, code, name, payment_terms_days, is_active
		FROM suppliers
		WHERE id = $1
	`, supplierID).Scan(&sup.ID, &sup.Code, &sup.Name, &sup.PaymentTermsDays, &sup.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("supplier %d: %w", supplierID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &sup, nil
}

// ── Documents ─────────────────────────────────────────────────────────────────

func (s *Store) GetProcurement(ctx context.Context, id int) (*core.ProcurementRequest, error) {
	return loadProcurement(ctx, s.pool, id, false)
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return loadPurchaseOrder(ctx, s.pool, id, false)
}

func lockClause(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

func loadProcurement(ctx context.Context, q querier, id int, lock bool) (*core.ProcurementRequest, error) {
	var (
		r                        core.ProcurementRequest
		source, status, priority string
	)
	err := q.QueryRow(ctx, `
		SELECT id, source, sales_order_id, supplier_id, status, priority, needed_by,
		       total_cost, notes, created_by, created_at, updated_at, completed_at
		FROM procurement_requests
		WHERE id = $1`+lockClause(lock), id).Scan(
		&r.ID, &source, &r.SalesOrderID, &r.SupplierID, &status, &priority, &r.NeededBy,
		&r.TotalCost, &r.Notes, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("procurement %d: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get procurement: %w", err)
	}
	r.Source = core.ProcurementSource(source)
	r.Status = core.ProcurementStatus(status)
	r.Priority = core.Priority(priority)

	rows, err := q.Query(ctx, `
		SELECT id, request_id, item_kind, item_id, requested_qty, approved_qty,
		       received_qty, unit_price, ordering_cost
		FROM procurement_lines
		WHERE request_id = $1
		ORDER BY id`+lockClause(lock), id)
	if err != nil {
		return nil, fmt.Errorf("query procurement lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l                  core.ProcurementLine
			kind               string
			approved, ordering decimal.NullDecimal
		)
		if err := rows.Scan(&l.ID, &l.RequestID, &kind, &l.Item.ID, &l.RequestedQty, &approved,
			&l.ReceivedQty, &l.UnitPrice, &ordering); err != nil {
			return nil, fmt.Errorf("scan procurement line: %w", err)
		}
		l.Item.Kind = core.ItemKind(kind)
		if approved.Valid {
			l.ApprovedQty = &approved.Decimal
		}
		if ordering.Valid {
			l.OrderingCost = &ordering.Decimal
		}
		r.Lines = append(r.Lines, l)
	}
	return &r, rows.Err()
}

func loadPurchaseOrder(ctx context.Context, q querier, id int, lock bool) (*core.PurchaseOrder, error) {
	var (
		po     core.PurchaseOrder
		status string
	)
	err := q.QueryRow(ctx, `
		SELECT id, procurement_id, supplier_id, status, total_cost, payment_terms_days,
		       version, created_by, created_at, updated_at, received_at
		FROM purchase_orders
		WHERE id = $1`+lockClause(lock), id).Scan(
		&po.ID, &po.ProcurementID, &po.SupplierID, &status, &po.TotalCost, &po.PaymentTermsDays,
		&po.Version, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt, &po.ReceivedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("purchase order %d: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	po.Status = core.PurchaseOrderStatus(status)

	rows, err := q.Query(ctx, `
		SELECT id, order_id, procurement_line_id, item_kind, item_id,
		       qty_ordered, qty_received, unit_price
		FROM purchase_order_lines
		WHERE order_id = $1
		ORDER BY id`+lockClause(lock), id)
	if err != nil {
		return nil, fmt.Errorf("query purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l    core.PurchaseOrderLine
			kind string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProcurementLineID, &kind, &l.Item.ID,
			&l.QtyOrdered, &l.QtyReceived, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan purchase order line: %w", err)
		}
		l.Item.Kind = core.ItemKind(kind)
		po.Lines = append(po.Lines, l)
	}
	return &po, rows.Err()
}
