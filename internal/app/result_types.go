package app

import "inventory-planner/internal/core"

// MetricsResult is returned by ComputeMetrics.
type MetricsResult struct {
	Metrics *core.Metrics `json:"metrics"`
}

// ReorderResult is returned by DetectBelowROP and ScanReorders.
type ReorderResult struct {
	Report *core.ReorderReport `json:"report"`
}

// ProcurementResult is returned by procurement operations. Created is false
// and Procurement nil when a generator found nothing to order.
type ProcurementResult struct {
	Procurement *core.ProcurementRequest `json:"procurement,omitempty"`
	Created     bool                     `json:"created"`
}

// PurchaseOrderResult is returned by purchase order operations.
type PurchaseOrderResult struct {
	PurchaseOrder *core.PurchaseOrder `json:"purchase_order"`
}

// TransitionResult is returned by TransitionDocument.
type TransitionResult struct {
	Document core.DocumentKind `json:"document"`
	ID       int               `json:"id"`
	Status   string            `json:"status"`
}

// TransitionCheckResult is returned by ValidateTransition. Reason is set when
// the transition is not allowed.
type TransitionCheckResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
