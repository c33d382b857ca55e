package app

import (
	"github.com/shopspring/decimal"
)

// ItemRequest addresses one material or product.
type ItemRequest struct {
	Kind string `json:"kind" validate:"required,oneof=material product"`
	ID   int    `json:"id" validate:"required,gt=0"`
}

// RopProcurementRequest is the input for reorder-point procurement.
type RopProcurementRequest struct {
	SupplierID int `json:"supplier_id" validate:"required,gt=0"`
}

// SalesOrderProcurementRequest is the input for sales-order procurement.
type SalesOrderProcurementRequest struct {
	OrderID    int `json:"order_id" validate:"required,gt=0"`
	SupplierID int `json:"supplier_id" validate:"required,gt=0"`
}

// ManualProcurementRequest is the input for a user-entered request.
type ManualProcurementRequest struct {
	SupplierID int               `json:"supplier_id" validate:"required,gt=0"`
	Priority   string            `json:"priority" validate:"omitempty,oneof=low normal high"`
	NeededBy   string            `json:"needed_by" validate:"omitempty,datetime=2006-01-02"` // YYYY-MM-DD
	Notes      string            `json:"notes" validate:"max=2000"`
	Lines      []ManualLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ManualLineInput is a single line within a ManualProcurementRequest.
type ManualLineInput struct {
	Kind         string           `json:"kind" validate:"required,oneof=material product"`
	ItemID       int              `json:"item_id" validate:"required,gt=0"`
	Quantity     decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice    decimal.Decimal  `json:"unit_price" validate:"gte=0"`
	OrderingCost *decimal.Decimal `json:"ordering_cost,omitempty" validate:"omitempty,gte=0"`
}

// ApproveProcurementRequest approves a pending request. Lines without an
// entry keep their requested quantity.
type ApproveProcurementRequest struct {
	ProcurementID int                 `json:"procurement_id" validate:"required,gt=0"`
	Lines         []LineApprovalInput `json:"lines" validate:"dive"`
}

type LineApprovalInput struct {
	LineID      int             `json:"line_id" validate:"required,gt=0"`
	ApprovedQty decimal.Decimal `json:"approved_qty" validate:"gte=0"`
}

// CreatePurchaseOrderRequest is the input for converting an approved request.
type CreatePurchaseOrderRequest struct {
	ProcurementID    int  `json:"procurement_id" validate:"required,gt=0"`
	SupplierID       int  `json:"supplier_id" validate:"omitempty,gt=0"`
	PaymentTermsDays *int `json:"payment_terms_days,omitempty" validate:"omitempty,gte=0,lte=365"`
}

// ReceivePORequest is the input for recording goods received against a PO.
type ReceivePORequest struct {
	POID  int                 `json:"po_id" validate:"required,gt=0"`
	Lines []ReceivedLineInput `json:"lines" validate:"required,min=1,dive"`
}

// ReceivedLineInput is a single line in a ReceivePORequest.
type ReceivedLineInput struct {
	POLineID    int             `json:"po_line_id" validate:"required,gt=0"`
	QtyReceived decimal.Decimal `json:"qty_received" validate:"gt=0"`
}

// TransitionRequest moves a document to a new status.
type TransitionRequest struct {
	Document string `json:"document" validate:"required,oneof=procurement_request purchase_order"`
	ID       int    `json:"id" validate:"required,gt=0"`
	Status   string `json:"status" validate:"required"`
}

// ValidateTransitionRequest asks whether current → next is allowed.
type ValidateTransitionRequest struct {
	Document string `json:"document" validate:"required,oneof=procurement_request purchase_order"`
	Current  string `json:"current" validate:"required"`
	Next     string `json:"next" validate:"required"`
}
