package core

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrConflict is returned when an optimistic version check fails because
// another writer updated the document first.
var ErrConflict = errors.New("concurrent update conflict")

// HistorySource supplies the historical data the estimators aggregate.
// Implementations must be safe for concurrent reads.
type HistorySource interface {
	// DemandHistory returns order lines (products) or procurement lines
	// (materials) for the item dated within [from, to].
	DemandHistory(ctx context.Context, item ItemRef, from, to time.Time) ([]HistoryLine, error)
	// LeadTimeHistory returns completed procurement requests (materials) or
	// completed production orders (products) created on or after from.
	LeadTimeHistory(ctx context.Context, item ItemRef, from time.Time) ([]LeadTimeRecord, error)
	// OrderingCostHistory returns ordering costs recorded on the item's
	// procurement lines created on or after from.
	OrderingCostHistory(ctx context.Context, item ItemRef, from time.Time) ([]decimal.Decimal, error)
}

// CatalogReader reads master data and sales orders.
type CatalogReader interface {
	GetItem(ctx context.Context, ref ItemRef) (*InventoryItem, error)
	ListItems(ctx context.Context, kind ItemKind) ([]InventoryItem, error)
	GetBOM(ctx context.Context, productID int) ([]BOMEntry, error)
	GetSalesOrder(ctx context.Context, orderID int) (*SalesOrder, error)
	GetSupplier(ctx context.Context, supplierID int) (*Supplier, error)
}

// DocumentReader reads procurement documents outside of a transaction.
type DocumentReader interface {
	GetProcurement(ctx context.Context, id int) (*ProcurementRequest, error)
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
}

// Store is the persistence boundary of the planner.
type Store interface {
	HistorySource
	CatalogReader
	DocumentReader

	// WithTx runs fn inside one atomic unit. Any error returned by fn rolls
	// back every write fn made.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes available inside WithTx.
type Tx interface {
	// LockProcurement loads a request and its lines, locking them until the
	// transaction ends.
	LockProcurement(ctx context.Context, id int) (*ProcurementRequest, error)
	// LockPurchaseOrder loads an order and its lines, locking them until the
	// transaction ends.
	LockPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
	// LockPurchaseOrdersByProcurement loads and locks every order raised from
	// the request, oldest first.
	LockPurchaseOrdersByProcurement(ctx context.Context, procurementID int) ([]*PurchaseOrder, error)

	// InsertProcurement stores a new request and its lines, assigning IDs in place.
	InsertProcurement(ctx context.Context, r *ProcurementRequest) error
	// UpdateProcurement persists the header state and per-line approved and
	// received quantities.
	UpdateProcurement(ctx context.Context, r *ProcurementRequest) error

	// InsertPurchaseOrder stores a new order and its lines, assigning IDs in place.
	InsertPurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	// UpdatePurchaseOrder persists header state and per-line received
	// quantities. It fails with ErrConflict when po.Version is stale and
	// increments po.Version on success.
	UpdatePurchaseOrder(ctx context.Context, po *PurchaseOrder) error

	// AdjustStock adds delta to the item's on-hand quantity.
	AdjustStock(ctx context.Context, ref ItemRef, delta decimal.Decimal) error
	// InsertGoodsReceipt records a receipt event, assigning its ID in place.
	InsertGoodsReceipt(ctx context.Context, gr *GoodsReceipt) error
}
