package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcurementSource records what caused a procurement request to exist.
type ProcurementSource string

const (
	SourceManual     ProcurementSource = "manual"
	SourceROP        ProcurementSource = "rop"
	SourceSalesOrder ProcurementSource = "sales_order"
)

// ProcurementRequest is an internal proposal to buy, prior to supplier commitment.
type ProcurementRequest struct {
	ID           int               `json:"id"`
	Source       ProcurementSource `json:"source"`
	SalesOrderID *int              `json:"sales_order_id,omitempty"`
	SupplierID   int               `json:"supplier_id"`
	Status       ProcurementStatus `json:"status"`
	Priority     Priority          `json:"priority"`
	NeededBy     time.Time         `json:"needed_by"`
	TotalCost    decimal.Decimal   `json:"total_cost"`
	Notes        string            `json:"notes,omitempty"`
	CreatedBy    int               `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Lines        []ProcurementLine `json:"lines"`
}

// ProcurementLine is one requested item on a procurement request.
type ProcurementLine struct {
	ID           int              `json:"id"`
	RequestID    int              `json:"request_id"`
	Item         ItemRef          `json:"item"`
	RequestedQty decimal.Decimal  `json:"requested_qty"`
	ApprovedQty  *decimal.Decimal `json:"approved_qty,omitempty"`
	ReceivedQty  decimal.Decimal  `json:"received_qty"`
	UnitPrice    decimal.Decimal  `json:"unit_price"`
	OrderingCost *decimal.Decimal `json:"ordering_cost,omitempty"`
}

// EffectiveQty is the approved quantity when set, otherwise the requested one.
func (l ProcurementLine) EffectiveQty() decimal.Decimal {
	if l.ApprovedQty != nil {
		return *l.ApprovedQty
	}
	return l.RequestedQty
}

// LineTotal is always derived; it is never stored independently.
func (l ProcurementLine) LineTotal() decimal.Decimal {
	return l.EffectiveQty().Mul(l.UnitPrice)
}

func (l ProcurementLine) validate() error {
	if !l.Item.Kind.IsValid() || l.Item.ID <= 0 {
		return invalidInput("item", "invalid item reference %s", l.Item)
	}
	if !l.RequestedQty.IsPositive() {
		return invalidInput("requested_qty", "must be positive, got %s", l.RequestedQty)
	}
	if l.UnitPrice.IsNegative() {
		return invalidInput("unit_price", "cannot be negative, got %s", l.UnitPrice)
	}
	if l.ApprovedQty != nil {
		if l.ApprovedQty.IsNegative() {
			return invalidInput("approved_qty", "cannot be negative, got %s", *l.ApprovedQty)
		}
		if l.ApprovedQty.GreaterThan(l.RequestedQty) {
			return invalidInput("approved_qty", "%s exceeds requested %s", *l.ApprovedQty, l.RequestedQty)
		}
	}
	if l.OrderingCost != nil && l.OrderingCost.IsNegative() {
		return invalidInput("ordering_cost", "cannot be negative, got %s", *l.OrderingCost)
	}
	return nil
}

// recalculateTotals is the only place the request total is derived.
func (r *ProcurementRequest) recalculateTotals() {
	totals := make([]decimal.Decimal, 0, len(r.Lines))
	for _, l := range r.Lines {
		totals = append(totals, l.LineTotal())
	}
	r.TotalCost = sumDecimals(totals)
}

// ReceiptStatus derives the request status from its lines' receipt state.
// It returns the current status when nothing has been received.
func (r *ProcurementRequest) ReceiptStatus() ProcurementStatus {
	complete, started := true, false
	for _, l := range r.Lines {
		if l.ReceivedQty.IsPositive() {
			started = true
		}
		if l.ReceivedQty.LessThan(l.EffectiveQty()) {
			complete = false
		}
	}
	switch {
	case len(r.Lines) > 0 && complete:
		return PRStatusReceived
	case started:
		return PRStatusPartiallyReceived
	}
	return r.Status
}

func (r *ProcurementRequest) line(id int) *ProcurementLine {
	for i := range r.Lines {
		if r.Lines[i].ID == id {
			return &r.Lines[i]
		}
	}
	return nil
}
