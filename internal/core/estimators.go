package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultAvgLeadTimeDays is used when an item has no completed history.
	DefaultAvgLeadTimeDays = 7
	// DefaultMaxLeadTimeDays is used when an item has no completed history.
	DefaultMaxLeadTimeDays = 14
)

// DefaultOrderingCost is the per-order cost used when no ordering cost has
// been recorded for an item.
var DefaultOrderingCost = decimal.NewFromInt(50000)

// DemandSample is the total quantity moved on one calendar day.
type DemandSample struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// DemandEstimate summarises historical demand for an item.
type DemandEstimate struct {
	AvgDaily   float64
	MaxDaily   float64
	Annual     float64
	SampleDays int
	Defaulted  bool
}

// DemandEstimator aggregates historical line quantities into daily demand.
type DemandEstimator struct {
	history HistorySource
	cfg     PlanningConfig
}

func NewDemandEstimator(history HistorySource, cfg PlanningConfig) *DemandEstimator {
	return &DemandEstimator{history: history, cfg: cfg}
}

// Estimate loads the annual window once and derives both the annual total and
// the daily profile over the shorter trailing window.
func (e *DemandEstimator) Estimate(ctx context.Context, item ItemRef, now time.Time) (DemandEstimate, error) {
	annualFrom := now.AddDate(0, 0, -e.cfg.AnnualWindowDays)
	lines, err := e.history.DemandHistory(ctx, item, annualFrom, now)
	if err != nil {
		return DemandEstimate{}, fmt.Errorf("load demand history for %s: %w", item, err)
	}

	annual := decimal.Zero
	for _, l := range lines {
		annual = annual.Add(l.Quantity)
	}

	dailyFrom := now.AddDate(0, 0, -e.cfg.DailyWindowDays)
	var recent []HistoryLine
	for _, l := range lines {
		if !l.Date.Before(dailyFrom) {
			recent = append(recent, l)
		}
	}
	samples := DailySamples(recent)

	est := DemandEstimate{Annual: annual.InexactFloat64(), SampleDays: len(samples)}
	if len(samples) == 0 {
		est.Defaulted = true
		return est, nil
	}

	days := len(samples)
	if e.cfg.ZeroFillDemand {
		days = e.cfg.DailyWindowDays
	}
	sum, peak := decimal.Zero, samples[0].Quantity
	for _, s := range samples {
		sum = sum.Add(s.Quantity)
		if s.Quantity.GreaterThan(peak) {
			peak = s.Quantity
		}
	}
	est.AvgDaily = sum.Div(decimal.NewFromInt(int64(days))).InexactFloat64()
	est.MaxDaily = peak.InexactFloat64()
	return est, nil
}

// DailySamples groups lines by UTC calendar day and sums each day. Days
// without lines produce no sample. The result is ordered by date.
func DailySamples(lines []HistoryLine) []DemandSample {
	byDay := make(map[string]int)
	var samples []DemandSample
	for _, l := range lines {
		day := l.Date.UTC().Truncate(24 * time.Hour)
		key := day.Format(time.DateOnly)
		if i, ok := byDay[key]; ok {
			samples[i].Quantity = samples[i].Quantity.Add(l.Quantity)
			continue
		}
		byDay[key] = len(samples)
		samples = append(samples, DemandSample{Date: day, Quantity: l.Quantity})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Date.Before(samples[j].Date) })
	return samples
}

// LeadTimeEstimate summarises elapsed days from request to completion.
type LeadTimeEstimate struct {
	Avg       float64
	Max       float64
	Samples   int
	Defaulted bool
}

// LeadTimeEstimator derives lead times from completed requests.
type LeadTimeEstimator struct {
	history HistorySource
	cfg     PlanningConfig
}

func NewLeadTimeEstimator(history HistorySource, cfg PlanningConfig) *LeadTimeEstimator {
	return &LeadTimeEstimator{history: history, cfg: cfg}
}

// Estimate averages whole elapsed days between creation and completion.
func (e *LeadTimeEstimator) Estimate(ctx context.Context, item ItemRef, now time.Time) (LeadTimeEstimate, error) {
	records, err := e.history.LeadTimeHistory(ctx, item, now.AddDate(0, 0, -e.cfg.LeadTimeWindowDays))
	if err != nil {
		return LeadTimeEstimate{}, fmt.Errorf("load lead time history for %s: %w", item, err)
	}
	if len(records) == 0 {
		return LeadTimeEstimate{
			Avg:       DefaultAvgLeadTimeDays,
			Max:       DefaultMaxLeadTimeDays,
			Defaulted: true,
		}, nil
	}

	var sum, peak int64
	for i, r := range records {
		days := ElapsedDays(r.CreatedAt, r.CompletedAt)
		sum += days
		if i == 0 || days > peak {
			peak = days
		}
	}
	return LeadTimeEstimate{
		Avg:     float64(sum) / float64(len(records)),
		Max:     float64(peak),
		Samples: len(records),
	}, nil
}

// ElapsedDays counts whole days between two instants; negative spans count as 0.
func ElapsedDays(from, to time.Time) int64 {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int64(d / (24 * time.Hour))
}

// CostEstimate carries the per-order and per-unit holding costs.
type CostEstimate struct {
	OrderingCost          decimal.Decimal
	HoldingCost           decimal.Decimal
	OrderingCostDefaulted bool
}

// CostEstimator averages recorded ordering costs and derives holding cost
// from unit value using the configured method.
type CostEstimator struct {
	history HistorySource
	cfg     PlanningConfig
}

func NewCostEstimator(history HistorySource, cfg PlanningConfig) *CostEstimator {
	return &CostEstimator{history: history, cfg: cfg}
}

// Estimate computes both costs for an item of the given unit value.
func (e *CostEstimator) Estimate(ctx context.Context, item ItemRef, unitValue decimal.Decimal, now time.Time) (CostEstimate, error) {
	holding, err := e.HoldingCost(unitValue)
	if err != nil {
		return CostEstimate{}, err
	}
	costs, err := e.history.OrderingCostHistory(ctx, item, now.AddDate(0, 0, -e.cfg.LeadTimeWindowDays))
	if err != nil {
		return CostEstimate{}, fmt.Errorf("load ordering costs for %s: %w", item, err)
	}
	if len(costs) == 0 {
		return CostEstimate{OrderingCost: DefaultOrderingCost, HoldingCost: holding, OrderingCostDefaulted: true}, nil
	}
	avg := sumDecimals(costs).Div(decimal.NewFromInt(int64(len(costs))))
	return CostEstimate{OrderingCost: avg, HoldingCost: holding}, nil
}

// HoldingCost applies the configured holding cost method to a unit value.
func (e *CostEstimator) HoldingCost(unitValue decimal.Decimal) (decimal.Decimal, error) {
	switch e.cfg.HoldingCostMethod {
	case HoldingCostPercentage:
		return unitValue.Mul(decimal.NewFromFloat(e.cfg.HoldingCostPercentage)), nil
	case HoldingCostFixed:
		return decimal.NewFromFloat(e.cfg.HoldingCostFixedAmount), nil
	}
	return decimal.Zero, invalidInput("holding_cost.method", "unknown method %q", e.cfg.HoldingCostMethod)
}
