package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// rangeToStdDev converts an observed max−avg spread into an estimated standard
// deviation, treating the maximum as roughly the 95th percentile.
const rangeToStdDev = 1.65

// SafetyStock computes the Z-score safety stock from demand and lead time
// variability estimated from their ranges. It returns 0 when average demand or
// average lead time is not positive.
func SafetyStock(avgDailyDemand, maxDailyDemand, avgLeadTime, maxLeadTime, zScore float64) int64 {
	if avgDailyDemand <= 0 || avgLeadTime <= 0 {
		return 0
	}
	stdDemand := (maxDailyDemand - avgDailyDemand) / rangeToStdDev
	stdLeadTime := (maxLeadTime - avgLeadTime) / rangeToStdDev
	variance := math.Pow(avgLeadTime*stdDemand, 2) + math.Pow(avgDailyDemand*stdLeadTime, 2)
	return int64(math.Round(math.Max(0, zScore*math.Sqrt(variance))))
}

// ReorderPoint is expected demand over the average lead time plus safety stock.
func ReorderPoint(avgDailyDemand, avgLeadTime float64, safetyStock int64) int64 {
	return int64(math.Round(avgDailyDemand*avgLeadTime + float64(safetyStock)))
}

// EOQ is the Wilson economic order quantity. It is 0 unless annual demand,
// ordering cost and holding cost are all positive.
func EOQ(annualDemand, orderingCost, holdingCost float64) int64 {
	if annualDemand <= 0 || orderingCost <= 0 || holdingCost <= 0 {
		return 0
	}
	return int64(math.Round(math.Sqrt(2 * annualDemand * orderingCost / holdingCost)))
}

// MetricsInput is the numeric input of the inventory control formulas.
type MetricsInput struct {
	AvgDailyDemand float64
	MaxDailyDemand float64
	AnnualDemand   float64
	AvgLeadTime    float64
	MaxLeadTime    float64
	OrderingCost   float64
	HoldingCost    float64
	ZScore         float64
}

// Validate rejects negative, NaN and infinite inputs.
func (in MetricsInput) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"avg_daily_demand", in.AvgDailyDemand},
		{"max_daily_demand", in.MaxDailyDemand},
		{"annual_demand", in.AnnualDemand},
		{"avg_lead_time", in.AvgLeadTime},
		{"max_lead_time", in.MaxLeadTime},
		{"ordering_cost", in.OrderingCost},
		{"holding_cost", in.HoldingCost},
		{"z_score", in.ZScore},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return invalidInput(f.name, "must be a finite number")
		}
		if f.value < 0 {
			return invalidInput(f.name, "cannot be negative, got %v", f.value)
		}
	}
	return nil
}

// ControlParameters are the derived stock control values.
type ControlParameters struct {
	SafetyStock  int64 `json:"safety_stock"`
	ReorderPoint int64 `json:"rop"`
	EOQ          int64 `json:"eoq"`
}

// Calculate validates the input and evaluates the three formulas.
func Calculate(in MetricsInput) (ControlParameters, error) {
	if err := in.Validate(); err != nil {
		return ControlParameters{}, err
	}
	ss := SafetyStock(in.AvgDailyDemand, in.MaxDailyDemand, in.AvgLeadTime, in.MaxLeadTime, in.ZScore)
	return ControlParameters{
		SafetyStock:  ss,
		ReorderPoint: ReorderPoint(in.AvgDailyDemand, in.AvgLeadTime, ss),
		EOQ:          EOQ(in.AnnualDemand, in.OrderingCost, in.HoldingCost),
	}, nil
}

// DefaultFlags record which estimates fell back to documented defaults
// because the item had no usable history.
type DefaultFlags struct {
	Demand       bool `json:"demand"`
	LeadTime     bool `json:"lead_time"`
	OrderingCost bool `json:"ordering_cost"`
}

// Any reports whether at least one estimate is a default.
func (f DefaultFlags) Any() bool {
	return f.Demand || f.LeadTime || f.OrderingCost
}

// Metrics is the full planning picture for one item.
type Metrics struct {
	Item           ItemRef         `json:"item"`
	AvgDailyDemand float64         `json:"avg_daily_demand"`
	MaxDailyDemand float64         `json:"max_daily_demand"`
	AnnualDemand   float64         `json:"annual_demand"`
	AvgLeadTime    float64         `json:"avg_lead_time"`
	MaxLeadTime    float64         `json:"max_lead_time"`
	OrderingCost   decimal.Decimal `json:"ordering_cost"`
	HoldingCost    decimal.Decimal `json:"holding_cost"`
	ControlParameters
	Defaults DefaultFlags `json:"defaults"`
}
