package core_test

import (
	"context"
	"errors"
	"testing"

	"inventory-planner/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventoryService(store *memStore, sink core.EventSink) core.InventoryService {
	return core.NewInventoryService(store, core.DefaultPlanningConfig(), sink, nil, core.WithClock(fixedClock))
}

func TestComputeMetrics_FromHistory(t *testing.T) {
	store := newMemStore()
	ref := core.ItemRef{Kind: core.KindMaterial, ID: 1}
	store.addItem(core.InventoryItem{Ref: ref, Code: "MAT-001", Stock: dec("30"), UnitValue: dec("100000")})
	seedDemand(store, ref)
	start := daysAgo(60)
	store.leadTimes[ref] = []core.LeadTimeRecord{
		{CreatedAt: start, CompletedAt: start.AddDate(0, 0, 3)},
		{CreatedAt: start, CompletedAt: start.AddDate(0, 0, 5)},
		{CreatedAt: start, CompletedAt: start.AddDate(0, 0, 7)},
	}
	store.orderingCosts[ref] = []decimal.Decimal{dec("40000"), dec("60000")}

	m, err := newInventoryService(store, nil).ComputeMetrics(context.Background(), ref)
	require.NoError(t, err)

	assert.InDelta(t, 5, m.AvgDailyDemand, 1e-9)
	assert.InDelta(t, 8, m.MaxDailyDemand, 1e-9)
	assert.InDelta(t, 1000, m.AnnualDemand, 1e-9)
	assert.InDelta(t, 5, m.AvgLeadTime, 1e-9)
	assert.InDelta(t, 7, m.MaxLeadTime, 1e-9)
	assert.True(t, m.OrderingCost.Equal(dec("50000")))
	assert.True(t, m.HoldingCost.Equal(dec("20000")))
	assert.Equal(t, int64(18), m.SafetyStock)
	assert.Equal(t, int64(43), m.ReorderPoint)
	assert.Equal(t, int64(71), m.EOQ)
	assert.False(t, m.Defaults.Any())
}

func TestComputeMetrics_FlagsDefaults(t *testing.T) {
	store := newMemStore()
	ref := core.ItemRef{Kind: core.KindProduct, ID: 7}
	store.addItem(core.InventoryItem{Ref: ref, Stock: dec("0"), UnitValue: dec("500")})

	m, err := newInventoryService(store, nil).ComputeMetrics(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, m.Defaults.Demand)
	assert.True(t, m.Defaults.LeadTime)
	assert.True(t, m.Defaults.OrderingCost)
	assert.Equal(t, float64(core.DefaultAvgLeadTimeDays), m.AvgLeadTime)
	assert.Equal(t, int64(0), m.ReorderPoint)
	assert.Equal(t, int64(0), m.EOQ)
}

func TestComputeMetrics_UnknownItem(t *testing.T) {
	_, err := newInventoryService(newMemStore(), nil).ComputeMetrics(context.Background(), core.ItemRef{Kind: core.KindMaterial, ID: 404})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestComputeMetrics_InvalidKind(t *testing.T) {
	_, err := newInventoryService(newMemStore(), nil).ComputeMetrics(context.Background(), core.ItemRef{Kind: "service", ID: 1})
	var invalid *core.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

// seedReorderItems creates a mix of flagged and unflagged items.
func seedReorderItems(store *memStore) {
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 1}, Code: "MAT-1",
		Stock: dec("10"), UnitValue: dec("2000"), StoredReorderPoint: i64(20), StoredEOQ: i64(150)})
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 2}, Code: "MAT-2",
		Stock: dec("50"), UnitValue: dec("100"), StoredReorderPoint: i64(20)})
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 3}, Code: "MAT-3",
		Stock: dec("0"), UnitValue: dec("100"), StoredReorderPoint: i64(0)})
	// No stored reorder point and no history: computed live as 0.
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 4}, Code: "MAT-4",
		Stock: dec("0"), UnitValue: dec("100")})
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 5}, Code: "MAT-5",
		Stock: dec("30"), UnitValue: dec("300"), StoredReorderPoint: i64(80)})
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindProduct, ID: 1}, Code: "PRD-1",
		Stock: dec("5"), UnitValue: dec("10000"), StoredReorderPoint: i64(5)})
}

func TestDetectBelowROP(t *testing.T) {
	store := newMemStore()
	seedReorderItems(store)

	report, err := newInventoryService(store, nil).DetectBelowROP(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Materials, 2)
	assert.Equal(t, "MAT-1", report.Materials[0].Item.Code)
	assert.Equal(t, int64(150), report.Materials[0].EOQ)
	assert.Equal(t, "MAT-5", report.Materials[1].Item.Code)
	require.Len(t, report.Products, 1)
	assert.Equal(t, "PRD-1", report.Products[0].Item.Code)
	assert.False(t, report.Products[0].Live)
}

func TestDetectBelowROP_LiveReorderPoint(t *testing.T) {
	store := newMemStore()
	ref := core.ItemRef{Kind: core.KindMaterial, ID: 1}
	store.addItem(core.InventoryItem{Ref: ref, Code: "MAT-1", Stock: dec("43"), UnitValue: dec("100000")})
	seedDemand(store, ref)
	start := daysAgo(60)
	store.leadTimes[ref] = []core.LeadTimeRecord{
		{CreatedAt: start, CompletedAt: start.AddDate(0, 0, 3)},
		{CreatedAt: start, CompletedAt: start.AddDate(0, 0, 7)},
	}

	report, err := newInventoryService(store, nil).DetectBelowROP(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Materials, 1)
	assert.True(t, report.Materials[0].Live)
	assert.Equal(t, int64(43), report.Materials[0].ReorderPoint)
}

func TestScanReorders_PublishesEvent(t *testing.T) {
	store := newMemStore()
	seedReorderItems(store)
	sink := &recordingSink{}
	actor := core.Actor{ID: 3, Name: "scheduler"}

	report, err := newInventoryService(store, sink).ScanReorders(context.Background(), actor)
	require.NoError(t, err)
	assert.Len(t, report.All(), 3)

	events := sink.ofType(core.EventReorderDetected)
	require.Len(t, events, 1)
	ev := events[0].(core.ReorderDetected)
	assert.Equal(t, actor, ev.Actor)
	assert.Len(t, ev.Materials, 2)
	assert.Equal(t, testNow, ev.OccurredAt())
}

func TestScanReorders_NothingFlaggedPublishesNothing(t *testing.T) {
	store := newMemStore()
	store.addItem(core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 1},
		Stock: dec("100"), StoredReorderPoint: i64(20)})
	sink := &recordingSink{}

	report, err := newInventoryService(store, sink).ScanReorders(context.Background(), core.Actor{ID: 1})
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, sink.ofType(core.EventReorderDetected))
}

func TestBelowReorderPoint(t *testing.T) {
	item := &core.InventoryItem{Stock: dec("20")}
	assert.True(t, core.BelowReorderPoint(item, 20))
	assert.False(t, core.BelowReorderPoint(item, 19))
	item.Stock = dec("0")
	assert.False(t, core.BelowReorderPoint(item, 0))
}
