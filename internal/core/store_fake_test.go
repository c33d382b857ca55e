package core_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inventory-planner/internal/core"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory core.Store. Transactions are serialised and a
// snapshot is restored when fn returns an error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	items        map[core.ItemRef]core.InventoryItem
	bom          map[int][]core.BOMEntry
	salesOrders  map[int]core.SalesOrder
	suppliers    map[int]core.Supplier
	procurements map[int]*core.ProcurementRequest
	orders       map[int]*core.PurchaseOrder
	receipts     []core.GoodsReceipt

	demand        map[core.ItemRef][]core.HistoryLine
	leadTimes     map[core.ItemRef][]core.LeadTimeRecord
	orderingCosts map[core.ItemRef][]decimal.Decimal

	nextID int
}

func newMemStore() *memStore {
	return &memStore{
		items:         map[core.ItemRef]core.InventoryItem{},
		bom:           map[int][]core.BOMEntry{},
		salesOrders:   map[int]core.SalesOrder{},
		suppliers:     map[int]core.Supplier{},
		procurements:  map[int]*core.ProcurementRequest{},
		orders:        map[int]*core.PurchaseOrder{},
		demand:        map[core.ItemRef][]core.HistoryLine{},
		leadTimes:     map[core.ItemRef][]core.LeadTimeRecord{},
		orderingCosts: map[core.ItemRef][]decimal.Decimal{},
		nextID:        1000,
	}
}

// ── Seeding ───────────────────────────────────────────────────────────────────

func (s *memStore) addItem(it core.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.Ref] = it
}

func (s *memStore) addSupplier(sup core.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers[sup.ID] = sup
}

func (s *memStore) addProcurement(r core.ProcurementRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procurements[r.ID] = cloneProcurement(&r)
}

func (s *memStore) addPurchaseOrder(po core.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[po.ID] = clonePurchaseOrder(&po)
}

func (s *memStore) stock(ref core.ItemRef) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[ref].Stock
}

func (s *memStore) receiptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

// ── HistorySource ─────────────────────────────────────────────────────────────

func (s *memStore) DemandHistory(_ context.Context, item core.ItemRef, from, to time.Time) ([]core.HistoryLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.HistoryLine
	for _, l := range s.demand[item] {
		if !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) LeadTimeHistory(_ context.Context, item core.ItemRef, from time.Time) ([]core.LeadTimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LeadTimeRecord
	for _, r := range s.leadTimes[item] {
		if !r.CreatedAt.Before(from) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) OrderingCostHistory(_ context.Context, item core.ItemRef, _ time.Time) ([]decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]decimal.Decimal(nil), s.orderingCosts[item]...), nil
}

// ── CatalogReader ─────────────────────────────────────────────────────────────

func (s *memStore) GetItem(_ context.Context, ref core.ItemRef) (*core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[ref]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", ref, core.ErrNotFound)
	}
	return &it, nil
}

func (s *memStore) ListItems(_ context.Context, kind core.ItemKind) ([]core.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.InventoryItem
	for ref, it := range s.items {
		if ref.Kind == kind {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref.ID < out[j].Ref.ID })
	return out, nil
}

func (s *memStore) GetBOM(_ context.Context, productID int) ([]core.BOMEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.BOMEntry(nil), s.bom[productID]...), nil
}

func (s *memStore) GetSalesOrder(_ context.Context, orderID int) (*core.SalesOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.salesOrders[orderID]
	if !ok {
		return nil, fmt.Errorf("sales order %d: %w", orderID, core.ErrNotFound)
	}
	return &so, nil
}

func (s *memStore) GetSupplier(_ context.Context, supplierID int) (*core.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[supplierID]
	if !ok {
		return nil, fmt.Errorf("supplier %d: %w", supplierID, core.ErrNotFound)
	}
	return &sup, nil
}

// ── DocumentReader ────────────────────────────────────────────────────────────

func (s *memStore) GetProcurement(_ context.Context, id int) (*core.ProcurementRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.procurements[id]
	if !ok {
		return nil, fmt.Errorf("procurement %d: %w", id, core.ErrNotFound)
	}
	return cloneProcurement(r), nil
}

func (s *memStore) GetPurchaseOrder(_ context.Context, id int) (*core.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("purchase order %d: %w", id, core.ErrNotFound)
	}
	return clonePurchaseOrder(po), nil
}

// ── Transactions ──────────────────────────────────────────────────────────────

type memSnapshot struct {
	items        map[core.ItemRef]core.InventoryItem
	procurements map[int]*core.ProcurementRequest
	orders       map[int]*core.PurchaseOrder
	receipts     []core.GoodsReceipt
	nextID       int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		items:        make(map[core.ItemRef]core.InventoryItem, len(s.items)),
		procurements: make(map[int]*core.ProcurementRequest, len(s.procurements)),
		orders:       make(map[int]*core.PurchaseOrder, len(s.orders)),
		receipts:     append([]core.GoodsReceipt(nil), s.receipts...),
		nextID:       s.nextID,
	}
	for k, v := range s.items {
		snap.items[k] = v
	}
	for k, v := range s.procurements {
		snap.procurements[k] = cloneProcurement(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = clonePurchaseOrder(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = snap.items
	s.procurements = snap.procurements
	s.orders = snap.orders
	s.receipts = snap.receipts
	s.nextID = snap.nextID
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, memTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memTx struct{ s *memStore }

func (t memTx) LockProcurement(ctx context.Context, id int) (*core.ProcurementRequest, error) {
	return t.s.GetProcurement(ctx, id)
}

func (t memTx) LockPurchaseOrder(ctx context.Context, id int) (*core.PurchaseOrder, error) {
	return t.s.GetPurchaseOrder(ctx, id)
}

func (t memTx) LockPurchaseOrdersByProcurement(_ context.Context, procurementID int) ([]*core.PurchaseOrder, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var orders []*core.PurchaseOrder
	for _, po := range t.s.orders {
		if po.ProcurementID == procurementID {
			orders = append(orders, clonePurchaseOrder(po))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (t memTx) InsertProcurement(_ context.Context, r *core.ProcurementRequest) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	r.ID = t.s.id()
	for i := range r.Lines {
		r.Lines[i].ID = t.s.id()
		r.Lines[i].RequestID = r.ID
	}
	t.s.procurements[r.ID] = cloneProcurement(r)
	return nil
}

func (t memTx) UpdateProcurement(_ context.Context, r *core.ProcurementRequest) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.procurements[r.ID]; !ok {
		return fmt.Errorf("procurement %d: %w", r.ID, core.ErrNotFound)
	}
	t.s.procurements[r.ID] = cloneProcurement(r)
	return nil
}

func (t memTx) InsertPurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	po.ID = t.s.id()
	po.Version = 1
	for i := range po.Lines {
		po.Lines[i].ID = t.s.id()
		po.Lines[i].OrderID = po.ID
	}
	t.s.orders[po.ID] = clonePurchaseOrder(po)
	return nil
}

func (t memTx) UpdatePurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	current, ok := t.s.orders[po.ID]
	if !ok {
		return fmt.Errorf("purchase order %d: %w", po.ID, core.ErrNotFound)
	}
	if current.Version != po.Version {
		return core.ErrConflict
	}
	for _, l := range po.Lines {
		if l.QtyReceived.GreaterThan(l.QtyOrdered) {
			return fmt.Errorf("line %d violates received <= ordered", l.ID)
		}
	}
	po.Version++
	t.s.orders[po.ID] = clonePurchaseOrder(po)
	return nil
}

func (t memTx) AdjustStock(_ context.Context, ref core.ItemRef, delta decimal.Decimal) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	it, ok := t.s.items[ref]
	if !ok {
		return fmt.Errorf("item %s: %w", ref, core.ErrNotFound)
	}
	it.Stock = it.Stock.Add(delta)
	t.s.items[ref] = it
	return nil
}

func (t memTx) InsertGoodsReceipt(_ context.Context, gr *core.GoodsReceipt) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	gr.ID = t.s.id()
	t.s.receipts = append(t.s.receipts, *gr)
	return nil
}

func cloneProcurement(r *core.ProcurementRequest) *core.ProcurementRequest {
	c := *r
	c.Lines = append([]core.ProcurementLine(nil), r.Lines...)
	for i := range c.Lines {
		if c.Lines[i].ApprovedQty != nil {
			q := *c.Lines[i].ApprovedQty
			c.Lines[i].ApprovedQty = &q
		}
	}
	return &c
}

func clonePurchaseOrder(po *core.PurchaseOrder) *core.PurchaseOrder {
	c := *po
	c.Lines = append([]core.PurchaseOrderLine(nil), po.Lines...)
	return &c
}

// recordingSink captures published events.
type recordingSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recordingSink) Publish(_ context.Context, ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) ofType(name string) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, ev := range r.events {
		if ev.EventType() == name {
			out = append(out, ev)
		}
	}
	return out
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func i64(v int64) *int64 { return &v }
