package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InventoryService derives stock control parameters from history and detects
// items that have fallen to their reorder point.
type InventoryService interface {
	// ComputeMetrics runs the demand, lead time and cost estimators for one item
	// and evaluates safety stock, reorder point and EOQ from their output.
	ComputeMetrics(ctx context.Context, ref ItemRef) (*Metrics, error)
	// DetectBelowROP returns every item whose stock is at or below a positive
	// reorder point, partitioned by kind. It has no side effects.
	DetectBelowROP(ctx context.Context) (*ReorderReport, error)
	// ScanReorders runs DetectBelowROP and raises ReorderDetected when anything
	// qualifies.
	ScanReorders(ctx context.Context, actor Actor) (*ReorderReport, error)
}

// ReorderCandidate is an item flagged by reorder detection.
type ReorderCandidate struct {
	Item         InventoryItem `json:"item"`
	ReorderPoint int64         `json:"rop"`
	// EOQ is 0 when no economic order quantity could be computed.
	EOQ int64 `json:"eoq"`
	// Live is true when the reorder point was computed rather than stored.
	Live bool `json:"live"`
}

// ReorderReport partitions reorder candidates by item kind.
type ReorderReport struct {
	Materials []ReorderCandidate `json:"materials"`
	Products  []ReorderCandidate `json:"products"`
}

// Empty reports whether no item qualified.
func (r *ReorderReport) Empty() bool {
	return r == nil || len(r.Materials)+len(r.Products) == 0
}

// All returns materials followed by products.
func (r *ReorderReport) All() []ReorderCandidate {
	if r == nil {
		return nil
	}
	out := make([]ReorderCandidate, 0, len(r.Materials)+len(r.Products))
	out = append(out, r.Materials...)
	return append(out, r.Products...)
}

type inventoryService struct {
	store    Store
	cfg      PlanningConfig
	demand   *DemandEstimator
	leadTime *LeadTimeEstimator
	cost     *CostEstimator
	events   EventSink
	log      *zap.Logger
	now      func() time.Time
}

// NewInventoryService wires the estimators against store. A nil sink or logger
// is replaced by a no-op.
func NewInventoryService(store Store, cfg PlanningConfig, events EventSink, log *zap.Logger, opts ...Option) InventoryService {
	o := buildOptions(opts)
	if events == nil {
		events = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &inventoryService{
		store:    store,
		cfg:      cfg,
		demand:   NewDemandEstimator(store, cfg),
		leadTime: NewLeadTimeEstimator(store, cfg),
		cost:     NewCostEstimator(store, cfg),
		events:   events,
		log:      log.Named("inventory"),
		now:      o.now,
	}
}

func (s *inventoryService) ComputeMetrics(ctx context.Context, ref ItemRef) (*Metrics, error) {
	if !ref.Kind.IsValid() {
		return nil, invalidInput("item_kind", "unknown kind %q", ref.Kind)
	}
	item, err := s.store.GetItem(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", ref, err)
	}
	return s.metricsFor(ctx, item)
}

func (s *inventoryService) metricsFor(ctx context.Context, item *InventoryItem) (*Metrics, error) {
	now := s.now()

	var (
		demand   DemandEstimate
		leadTime LeadTimeEstimate
		cost     CostEstimate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		demand, err = s.demand.Estimate(gctx, item.Ref, now)
		return err
	})
	g.Go(func() error {
		var err error
		leadTime, err = s.leadTime.Estimate(gctx, item.Ref, now)
		return err
	})
	g.Go(func() error {
		var err error
		cost, err = s.cost.Estimate(gctx, item.Ref, item.UnitValue, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	params, err := Calculate(MetricsInput{
		AvgDailyDemand: demand.AvgDaily,
		MaxDailyDemand: demand.MaxDaily,
		AnnualDemand:   demand.Annual,
		AvgLeadTime:    leadTime.Avg,
		MaxLeadTime:    leadTime.Max,
		OrderingCost:   cost.OrderingCost.InexactFloat64(),
		HoldingCost:    cost.HoldingCost.InexactFloat64(),
		ZScore:         s.cfg.ZScore,
	})
	if err != nil {
		return nil, fmt.Errorf("calculate metrics for %s: %w", item.Ref, err)
	}

	m := &Metrics{
		Item:              item.Ref,
		AvgDailyDemand:    demand.AvgDaily,
		MaxDailyDemand:    demand.MaxDaily,
		AnnualDemand:      demand.Annual,
		AvgLeadTime:       leadTime.Avg,
		MaxLeadTime:       leadTime.Max,
		OrderingCost:      cost.OrderingCost,
		HoldingCost:       cost.HoldingCost,
		ControlParameters: params,
		Defaults: DefaultFlags{
			Demand:       demand.Defaulted,
			LeadTime:     leadTime.Defaulted,
			OrderingCost: cost.OrderingCostDefaulted,
		},
	}
	if m.Defaults.Any() {
		s.log.Debug("metrics use defaults",
			zap.Stringer("item", item.Ref),
			zap.Bool("demand", m.Defaults.Demand),
			zap.Bool("lead_time", m.Defaults.LeadTime),
			zap.Bool("ordering_cost", m.Defaults.OrderingCost))
	}
	return m, nil
}

// ── Reorder detection ─────────────────────────────────────────────────────────

func (s *inventoryService) DetectBelowROP(ctx context.Context) (*ReorderReport, error) {
	report := &ReorderReport{}
	for _, kind := range []ItemKind{KindMaterial, KindProduct} {
		items, err := s.store.ListItems(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s items: %w", kind, err)
		}
		for i := range items {
			c, ok, err := s.evaluate(ctx, &items[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if kind == KindMaterial {
				report.Materials = append(report.Materials, c)
			} else {
				report.Products = append(report.Products, c)
			}
		}
	}
	return report, nil
}

// evaluate decides whether an item is at or below its reorder point, using the
// stored reorder point and EOQ when present and computing them otherwise.
func (s *inventoryService) evaluate(ctx context.Context, item *InventoryItem) (ReorderCandidate, bool, error) {
	c := ReorderCandidate{Item: *item}
	if item.StoredReorderPoint != nil {
		c.ReorderPoint = *item.StoredReorderPoint
		if item.StoredEOQ != nil {
			c.EOQ = *item.StoredEOQ
		}
	} else {
		m, err := s.metricsFor(ctx, item)
		if err != nil {
			return ReorderCandidate{}, false, err
		}
		c.ReorderPoint = m.ReorderPoint
		c.EOQ = m.EOQ
		c.Live = true
	}
	return c, BelowReorderPoint(item, c.ReorderPoint), nil
}

// BelowReorderPoint reports stock ≤ rop for a positive rop.
func BelowReorderPoint(item *InventoryItem, rop int64) bool {
	if rop <= 0 {
		return false
	}
	return item.Stock.LessThanOrEqual(decimal.NewFromInt(rop))
}

func (s *inventoryService) ScanReorders(ctx context.Context, actor Actor) (*ReorderReport, error) {
	report, err := s.DetectBelowROP(ctx)
	if err != nil {
		return nil, err
	}
	if report.Empty() {
		s.log.Info("reorder scan found nothing", zap.Int("actor_id", actor.ID))
		return report, nil
	}
	s.log.Info("reorder scan flagged items",
		zap.Int("materials", len(report.Materials)),
		zap.Int("products", len(report.Products)),
		zap.Int("actor_id", actor.ID))
	s.events.Publish(ctx, ReorderDetected{
		Materials:  report.Materials,
		Products:   report.Products,
		Actor:      actor,
		DetectedAt: s.now(),
	})
	return report, nil
}
