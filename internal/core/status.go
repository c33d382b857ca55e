package core

// PurchaseOrderStatus is the lifecycle state of a purchase order.
//
//	draft → sent → confirmed → partially_received → fully_received
//	any non-terminal state → cancelled
type PurchaseOrderStatus string

const (
	POStatusDraft             PurchaseOrderStatus = "draft"
	POStatusSent              PurchaseOrderStatus = "sent"
	POStatusConfirmed         PurchaseOrderStatus = "confirmed"
	POStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	POStatusFullyReceived     PurchaseOrderStatus = "fully_received"
	POStatusCancelled         PurchaseOrderStatus = "cancelled"
)

// PurchaseOrderStatuses lists every purchase order status.
var PurchaseOrderStatuses = []PurchaseOrderStatus{
	POStatusDraft, POStatusSent, POStatusConfirmed,
	POStatusPartiallyReceived, POStatusFullyReceived, POStatusCancelled,
}

// IsValid reports whether s is a known purchase order status.
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case POStatusDraft, POStatusSent, POStatusConfirmed,
		POStatusPartiallyReceived, POStatusFullyReceived, POStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == POStatusFullyReceived || s == POStatusCancelled
}

// IsReceiptDerived reports whether the status is only reachable by recording receipts.
func (s PurchaseOrderStatus) IsReceiptDerived() bool {
	return s == POStatusPartiallyReceived || s == POStatusFullyReceived
}

// CanTransitionTo is the purchase order adjacency table. It is total: every
// pair of statuses yields an answer.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if target == POStatusCancelled {
		return true
	}
	switch s {
	case POStatusDraft:
		return target == POStatusSent
	case POStatusSent:
		return target == POStatusConfirmed
	case POStatusConfirmed:
		return target == POStatusPartiallyReceived || target == POStatusFullyReceived
	case POStatusPartiallyReceived:
		return target == POStatusFullyReceived
	}
	return false
}

// ValidatePurchaseOrderTransition returns an *InvalidTransitionError when the
// move from current to next is not allowed.
func ValidatePurchaseOrderTransition(current, next PurchaseOrderStatus) error {
	if !current.CanTransitionTo(next) {
		return &InvalidTransitionError{Document: DocumentPurchaseOrder, Current: string(current), Requested: string(next)}
	}
	return nil
}

// ProcurementStatus is the lifecycle state of a procurement request.
//
//	pending → approved → ordered → partially_received → received
//	pending → rejected
//	ordered → approved (its purchase order was cancelled before any receipt)
//	any non-terminal state → cancelled
type ProcurementStatus string

const (
	PRStatusPending           ProcurementStatus = "pending"
	PRStatusApproved          ProcurementStatus = "approved"
	PRStatusRejected          ProcurementStatus = "rejected"
	PRStatusOrdered           ProcurementStatus = "ordered"
	PRStatusPartiallyReceived ProcurementStatus = "partially_received"
	PRStatusReceived          ProcurementStatus = "received"
	PRStatusCancelled         ProcurementStatus = "cancelled"
)

// ProcurementStatuses lists every procurement request status.
var ProcurementStatuses = []ProcurementStatus{
	PRStatusPending, PRStatusApproved, PRStatusRejected, PRStatusOrdered,
	PRStatusPartiallyReceived, PRStatusReceived, PRStatusCancelled,
}

func (s ProcurementStatus) IsValid() bool {
	switch s {
	case PRStatusPending, PRStatusApproved, PRStatusRejected, PRStatusOrdered,
		PRStatusPartiallyReceived, PRStatusReceived, PRStatusCancelled:
		return true
	}
	return false
}

func (s ProcurementStatus) IsTerminal() bool {
	return s == PRStatusReceived || s == PRStatusRejected || s == PRStatusCancelled
}

func (s ProcurementStatus) IsReceiptDerived() bool {
	return s == PRStatusPartiallyReceived || s == PRStatusReceived
}

// CanTransitionTo is the procurement request adjacency table.
func (s ProcurementStatus) CanTransitionTo(target ProcurementStatus) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if target == PRStatusCancelled {
		return true
	}
	switch s {
	case PRStatusPending:
		return target == PRStatusApproved || target == PRStatusRejected
	case PRStatusApproved:
		return target == PRStatusOrdered
	case PRStatusOrdered:
		return target == PRStatusApproved || target == PRStatusPartiallyReceived || target == PRStatusReceived
	case PRStatusPartiallyReceived:
		return target == PRStatusReceived
	}
	return false
}

// ValidateProcurementTransition returns an *InvalidTransitionError when the
// move from current to next is not allowed.
func ValidateProcurementTransition(current, next ProcurementStatus) error {
	if !current.CanTransitionTo(next) {
		return &InvalidTransitionError{Document: DocumentProcurement, Current: string(current), Requested: string(next)}
	}
	return nil
}

// ValidateTransition checks a status change for either document family given
// raw status names, as received from an API caller.
func ValidateTransition(doc DocumentKind, current, next string) error {
	switch doc {
	case DocumentPurchaseOrder:
		return ValidatePurchaseOrderTransition(PurchaseOrderStatus(current), PurchaseOrderStatus(next))
	case DocumentProcurement:
		return ValidateProcurementTransition(ProcurementStatus(current), ProcurementStatus(next))
	}
	return invalidInput("document", "unknown document kind %q", doc)
}
