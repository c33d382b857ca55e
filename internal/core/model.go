package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actor identifies who performed a mutating operation. It is passed explicitly
// into every write path instead of being looked up from an ambient session.
type Actor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Priority is the urgency attached to a procurement request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// DocumentKind names the document family a status belongs to.
type DocumentKind string

const (
	DocumentProcurement   DocumentKind = "procurement_request"
	DocumentPurchaseOrder DocumentKind = "purchase_order"
)

// Supplier is the read view of a supplier master record.
type Supplier struct {
	ID               int    `json:"id"`
	Code             string `json:"code"`
	Name             string `json:"name"`
	PaymentTermsDays int    `json:"payment_terms_days"`
	IsActive         bool   `json:"is_active"`
}

// sumDecimals adds up a slice of decimals.
func sumDecimals(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Option adjusts a service at construction time.
type Option func(*serviceOptions)

type serviceOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

func buildOptions(opts []Option) serviceOptions {
	o := serviceOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
