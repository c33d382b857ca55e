package core

import (
	"fmt"
	"math"
)

// HoldingCostMethod selects how the per-unit annual holding cost is derived.
type HoldingCostMethod string

const (
	HoldingCostPercentage HoldingCostMethod = "percentage"
	HoldingCostFixed      HoldingCostMethod = "fixed"
)

// PlanningConfig carries every tunable used by the estimators, formulas and
// procurement generation.
type PlanningConfig struct {
	HoldingCostMethod      HoldingCostMethod
	HoldingCostPercentage  float64
	HoldingCostFixedAmount float64

	// ZScore sets the safety stock service level (1.65 ≈ 95%).
	ZScore float64

	DailyWindowDays  int
	AnnualWindowDays int
	// ZeroFillDemand divides the daily demand mean by the whole window instead
	// of by the number of days that had transactions.
	ZeroFillDemand bool

	LeadTimeWindowDays int

	RopLeadBufferDays        int
	SalesOrderLeadBufferDays int
	MaterialFloorQuantity    int64
	ProductFloorQuantity     int64
	// ProductCostRatio converts a product's selling price into an assumed
	// procurement cost, since products are manufactured rather than bought.
	ProductCostRatio float64
}

// DefaultPlanningConfig returns the documented defaults.
func DefaultPlanningConfig() PlanningConfig {
	return PlanningConfig{
		HoldingCostMethod:        HoldingCostPercentage,
		HoldingCostPercentage:    0.20,
		HoldingCostFixedAmount:   0,
		ZScore:                   1.65,
		DailyWindowDays:          90,
		AnnualWindowDays:         365,
		ZeroFillDemand:           false,
		LeadTimeWindowDays:       365,
		RopLeadBufferDays:        7,
		SalesOrderLeadBufferDays: 3,
		MaterialFloorQuantity:    100,
		ProductFloorQuantity:     50,
		ProductCostRatio:         0.7,
	}
}

// Validate rejects configurations the planner cannot work with.
func (c PlanningConfig) Validate() error {
	switch c.HoldingCostMethod {
	case HoldingCostPercentage:
		if c.HoldingCostPercentage < 0 || math.IsNaN(c.HoldingCostPercentage) {
			return invalidInput("holding_cost.percentage", "must be non-negative, got %v", c.HoldingCostPercentage)
		}
	case HoldingCostFixed:
		if c.HoldingCostFixedAmount < 0 || math.IsNaN(c.HoldingCostFixedAmount) {
			return invalidInput("holding_cost.fixed_amount", "must be non-negative, got %v", c.HoldingCostFixedAmount)
		}
	default:
		return invalidInput("holding_cost.method", "unknown method %q", c.HoldingCostMethod)
	}
	if c.ZScore < 0 || math.IsNaN(c.ZScore) {
		return invalidInput("safety_stock.z_score", "must be non-negative, got %v", c.ZScore)
	}
	windows := map[string]int{
		"demand.daily_window_days":  c.DailyWindowDays,
		"demand.annual_window_days": c.AnnualWindowDays,
		"lead_time.window_days":     c.LeadTimeWindowDays,
	}
	for key, days := range windows {
		if days <= 0 {
			return invalidInput(key, "must be positive, got %d", days)
		}
	}
	if c.DailyWindowDays > c.AnnualWindowDays {
		return invalidInput("demand.daily_window_days", "%d exceeds annual window %d", c.DailyWindowDays, c.AnnualWindowDays)
	}
	if c.RopLeadBufferDays < 0 || c.SalesOrderLeadBufferDays < 0 {
		return invalidInput("procurement", "lead buffers cannot be negative")
	}
	if c.MaterialFloorQuantity < 0 || c.ProductFloorQuantity < 0 {
		return invalidInput("procurement", "floor quantities cannot be negative")
	}
	if c.ProductCostRatio <= 0 || c.ProductCostRatio > 1 {
		return invalidInput("procurement.product_cost_ratio", "must be in (0, 1], got %v", c.ProductCostRatio)
	}
	return nil
}

func (c PlanningConfig) floorQuantity(kind ItemKind) int64 {
	if kind == KindProduct {
		return c.ProductFloorQuantity
	}
	return c.MaterialFloorQuantity
}

func (c PlanningConfig) String() string {
	return fmt.Sprintf("holding=%s z=%.2f windows=%d/%d/%d zero_fill=%t",
		c.HoldingCostMethod, c.ZScore, c.DailyWindowDays, c.AnnualWindowDays, c.LeadTimeWindowDays, c.ZeroFillDemand)
}
