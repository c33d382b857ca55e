package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is the supplier-facing commitment derived from a procurement request.
type PurchaseOrder struct {
	ID               int                 `json:"id"`
	ProcurementID    int                 `json:"procurement_id"`
	SupplierID       int                 `json:"supplier_id"`
	Status           PurchaseOrderStatus `json:"status"`
	TotalCost        decimal.Decimal     `json:"total_cost"`
	PaymentTermsDays int                 `json:"payment_terms_days"`
	// Version is bumped on every write and checked on update.
	Version    int                 `json:"version"`
	CreatedBy  int                 `json:"created_by"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	ReceivedAt *time.Time          `json:"received_at,omitempty"`
	Lines      []PurchaseOrderLine `json:"lines"`
}

// PurchaseOrderLine represents a single line on a purchase order.
type PurchaseOrderLine struct {
	ID                int             `json:"id"`
	OrderID           int             `json:"order_id"`
	ProcurementLineID int             `json:"procurement_line_id"`
	Item              ItemRef         `json:"item"`
	QtyOrdered        decimal.Decimal `json:"qty_ordered"`
	QtyReceived       decimal.Decimal `json:"qty_received"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
}

// LineTotal is always derived from ordered quantity and price.
func (l PurchaseOrderLine) LineTotal() decimal.Decimal {
	return l.QtyOrdered.Mul(l.UnitPrice)
}

// Remaining is the quantity still expected from the supplier.
func (l PurchaseOrderLine) Remaining() decimal.Decimal {
	return l.QtyOrdered.Sub(l.QtyReceived)
}

// ReceivedLine is one purchase order line being received in a receipt batch.
type ReceivedLine struct {
	LineID      int             `json:"line_id"`
	QtyReceived decimal.Decimal `json:"qty_received"`
}

// GoodsReceipt records one physical receipt event against a purchase order.
type GoodsReceipt struct {
	ID              int                `json:"id"`
	PurchaseOrderID int                `json:"purchase_order_id"`
	ReceivedAt      time.Time          `json:"received_at"`
	ReceivedBy      int                `json:"received_by"`
	Lines           []GoodsReceiptLine `json:"lines"`
}

// GoodsReceiptLine is the quantity received for one purchase order line in one event.
type GoodsReceiptLine struct {
	PurchaseOrderLineID int             `json:"purchase_order_line_id"`
	Quantity            decimal.Decimal `json:"quantity"`
}

// recalculateTotals is the only place the order total is derived.
func (po *PurchaseOrder) recalculateTotals() {
	totals := make([]decimal.Decimal, 0, len(po.Lines))
	for _, l := range po.Lines {
		totals = append(totals, l.LineTotal())
	}
	po.TotalCost = sumDecimals(totals)
}

// ReceiptStatus derives the order status from its lines' receipt state:
// every line complete → fully_received, any line started → partially_received,
// otherwise the status is left as it is.
func (po *PurchaseOrder) ReceiptStatus() PurchaseOrderStatus {
	complete, started := true, false
	for _, l := range po.Lines {
		if l.QtyReceived.IsPositive() {
			started = true
		}
		if l.QtyReceived.LessThan(l.QtyOrdered) {
			complete = false
		}
	}
	switch {
	case len(po.Lines) > 0 && complete:
		return POStatusFullyReceived
	case started:
		return POStatusPartiallyReceived
	}
	return po.Status
}

func (po *PurchaseOrder) hasReceipts() bool {
	for _, l := range po.Lines {
		if l.QtyReceived.IsPositive() {
			return true
		}
	}
	return false
}

func (po *PurchaseOrder) line(id int) *PurchaseOrderLine {
	for i := range po.Lines {
		if po.Lines[i].ID == id {
			return &po.Lines[i]
		}
	}
	return nil
}
