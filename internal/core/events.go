package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event type names as seen by notification dispatchers.
const (
	EventReorderDetected  = "ReorderDetected"
	EventReceiptProcessed = "ReceiptProcessed"
	EventStatusChanged    = "StatusChanged"
)

// Event is a domain event raised after a state change has been committed.
type Event interface {
	EventType() string
	OccurredAt() time.Time
}

// EventSink receives domain events. Delivery (email, in-app alert) is the
// sink's concern; publishing never fails the operation that raised the event.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Publish(context.Context, Event) {}

// ReorderDetected is raised when a scan finds items at or below their reorder point.
type ReorderDetected struct {
	Materials  []ReorderCandidate `json:"materials"`
	Products   []ReorderCandidate `json:"products"`
	Actor      Actor              `json:"actor"`
	DetectedAt time.Time          `json:"detected_at"`
}

func (e ReorderDetected) EventType() string     { return EventReorderDetected }
func (e ReorderDetected) OccurredAt() time.Time { return e.DetectedAt }

// ReceiptProcessed is raised after a goods receipt batch commits.
type ReceiptProcessed struct {
	PurchaseOrderID int                 `json:"purchase_order_id"`
	ReceiptID       int                 `json:"receipt_id"`
	Lines           []GoodsReceiptLine  `json:"lines"`
	TotalQuantity   decimal.Decimal     `json:"total_quantity"`
	Status          PurchaseOrderStatus `json:"status"`
	Actor           Actor               `json:"actor"`
	ProcessedAt     time.Time           `json:"processed_at"`
}

func (e ReceiptProcessed) EventType() string     { return EventReceiptProcessed }
func (e ReceiptProcessed) OccurredAt() time.Time { return e.ProcessedAt }

// StatusChanged is raised whenever a document's status actually moves.
type StatusChanged struct {
	Document   DocumentKind `json:"document"`
	DocumentID int          `json:"document_id"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Actor      Actor        `json:"actor"`
	ChangedAt  time.Time    `json:"changed_at"`
}

func (e StatusChanged) EventType() string     { return EventStatusChanged }
func (e StatusChanged) OccurredAt() time.Time { return e.ChangedAt }
