package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes purchased raw materials from manufactured finished goods.
type ItemKind string

const (
	KindMaterial ItemKind = "material"
	KindProduct  ItemKind = "product"
)

// IsValid reports whether k is a known item kind.
func (k ItemKind) IsValid() bool {
	return k == KindMaterial || k == KindProduct
}

// ParseItemKind converts user input into an ItemKind.
func ParseItemKind(s string) (ItemKind, error) {
	k := ItemKind(s)
	if !k.IsValid() {
		return "", &InvalidInputError{Field: "item_kind", Reason: fmt.Sprintf("unknown item kind %q", s)}
	}
	return k, nil
}

// ItemRef addresses one inventory item. Materials and products live in separate
// id spaces, so the kind is part of the identity.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   int      `json:"id"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// InventoryItem is a stocked material or product.
//
// UnitValue is the purchase price for materials and the selling price for
// products. StoredReorderPoint and StoredEOQ are optional, previously computed
// parameters; they are not authoritative and are recomputed when absent.
type InventoryItem struct {
	Ref                ItemRef         `json:"ref"`
	Code               string          `json:"code"`
	Name               string          `json:"name"`
	Unit               string          `json:"unit"`
	Stock              decimal.Decimal `json:"stock"`
	UnitValue          decimal.Decimal `json:"unit_value"`
	StoredReorderPoint *int64          `json:"stored_reorder_point,omitempty"`
	StoredEOQ          *int64          `json:"stored_eoq,omitempty"`
}

// BOMEntry is the quantity of one material consumed by one unit of a product.
type BOMEntry struct {
	ProductID   int             `json:"product_id"`
	MaterialID  int             `json:"material_id"`
	QuantityPer decimal.Decimal `json:"quantity_per"`
}

// HistoryLine is one historical order or procurement line for an item.
type HistoryLine struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// LeadTimeRecord is a completed request: when it was created and when it was
// last updated into its completed state.
type LeadTimeRecord struct {
	CreatedAt   time.Time
	CompletedAt time.Time
}
