package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is wrapped by every lookup that finds no record.
var ErrNotFound = errors.New("not found")

// QuantityExceededError reports a receipt that would push a line's received
// quantity above its ordered quantity. The whole receipt batch is rejected.
type QuantityExceededError struct {
	LineID          int
	Ordered         decimal.Decimal
	AlreadyReceived decimal.Decimal
	Requested       decimal.Decimal
}

func (e *QuantityExceededError) Error() string {
	return fmt.Sprintf("purchase order line %d: receiving %s on top of %s exceeds ordered %s",
		e.LineID, e.Requested.String(), e.AlreadyReceived.String(), e.Ordered.String())
}

// InvalidTransitionError reports a status change the document lifecycle forbids.
type InvalidTransitionError struct {
	Document  DocumentKind
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %s to %s", e.Document, e.Current, e.Requested)
}

// InvalidInputError reports a value rejected at an operation boundary.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func invalidInput(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
