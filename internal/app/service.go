package app

import (
	"context"

	"inventory-planner/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from planning logic. Implementations contain no
// display logic of any kind.
//
// Every mutating operation takes the acting user explicitly.
type ApplicationService interface {
	// ComputeMetrics estimates demand, lead time and costs for one item and
	// returns its safety stock, reorder point and EOQ.
	ComputeMetrics(ctx context.Context, req ItemRequest) (*MetricsResult, error)

	// DetectBelowROP lists active items whose stock is at or below their reorder point.
	DetectBelowROP(ctx context.Context) (*ReorderResult, error)

	// ScanReorders runs detection and raises a ReorderDetected notification
	// when anything is flagged.
	ScanReorders(ctx context.Context, actor core.Actor) (*ReorderResult, error)

	// GenerateRopProcurement creates one pending request covering every item
	// below its reorder point. Created is false when nothing needed ordering.
	GenerateRopProcurement(ctx context.Context, actor core.Actor, req RopProcurementRequest) (*ProcurementResult, error)

	// GenerateSalesOrderProcurement creates a pending request for the material
	// shortfall of a sales order.
	GenerateSalesOrderProcurement(ctx context.Context, actor core.Actor, req SalesOrderProcurementRequest) (*ProcurementResult, error)

	// CreateManualProcurement records a user-entered procurement request.
	CreateManualProcurement(ctx context.Context, actor core.Actor, req ManualProcurementRequest) (*ProcurementResult, error)

	// ApproveProcurement sets approved quantities and moves the request to approved.
	ApproveProcurement(ctx context.Context, actor core.Actor, req ApproveProcurementRequest) (*ProcurementResult, error)

	// CreatePurchaseOrder converts an approved request into a draft purchase order.
	CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)

	// ReceivePurchaseOrder applies one goods receipt batch atomically.
	ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*PurchaseOrderResult, error)

	// TransitionDocument applies a manual status change to either document type.
	TransitionDocument(ctx context.Context, actor core.Actor, req TransitionRequest) (*TransitionResult, error)

	// ValidateTransition reports whether a status change would be allowed,
	// without touching any document.
	ValidateTransition(ctx context.Context, req ValidateTransitionRequest) (*TransitionCheckResult, error)

	GetProcurement(ctx context.Context, id int) (*ProcurementResult, error)
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrderResult, error)
}
