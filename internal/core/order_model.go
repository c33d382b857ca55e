package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrder is the read view of a customer order used for material planning.
// Order entry and its lifecycle are owned elsewhere; the planner only reads it.
type SalesOrder struct {
	ID           int              `json:"id"`
	OrderNumber  string           `json:"order_number"`
	Status       string           `json:"status"`
	OrderDate    time.Time        `json:"order_date"`
	RequiredDate time.Time        `json:"required_date"`
	Lines        []SalesOrderLine `json:"lines"`
}

// SalesOrderLine is one ordered product on a sales order.
type SalesOrderLine struct {
	ID        int             `json:"id"`
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}
