package db_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"inventory-planner/internal/core"
	"inventory-planner/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; the tables are truncated below.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	m, err := db.NewMigrator(dbURL, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE goods_receipt_lines, goods_receipts, purchase_order_lines, purchase_orders,
		               procurement_lines, procurement_requests, production_orders, sales_order_lines,
		               sales_orders, bom_entries, products, materials, suppliers RESTART IDENTITY CASCADE;

		INSERT INTO suppliers (id, code, name, payment_terms_days) VALUES (1, 'SUP-1', 'Steelworks', 30);
		INSERT INTO materials (id, code, name, stock, unit_price) VALUES
		    (1, 'STEEL', 'Steel sheet', 100, 10),
		    (2, 'BOLT', 'Bolt M8', 7, 1);
		INSERT INTO products (id, code, name, stock, selling_price) VALUES (1, 'FRAME', 'Frame', 0, 500);
		INSERT INTO bom_entries (product_id, material_id, quantity_per) VALUES (1, 1, 2), (1, 2, 8);
	`)
	require.NoError(t, err, "seed test database")
	return pool
}

// orderedPO creates a manual request for 10 steel and 5 bolts, approves it,
// turns it into a purchase order and confirms it.
func orderedPO(t *testing.T, store *db.Store) *core.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	actor := core.Actor{ID: 1, Name: "buyer"}
	cfg := core.DefaultPlanningConfig()

	inv := core.NewInventoryService(store, cfg, nil, nil)
	procurement := core.NewProcurementService(store, inv, cfg, nil, nil)
	orders := core.NewPurchaseOrderService(store, nil, nil)

	req, err := procurement.CreateManualProcurement(ctx, actor, core.ManualProcurementInput{
		SupplierID: 1,
		Lines: []core.ManualProcurementLine{
			{Item: core.ItemRef{Kind: core.KindMaterial, ID: 1}, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(10)},
			{Item: core.ItemRef{Kind: core.KindMaterial, ID: 2}, Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	_, err = procurement.ApproveProcurement(ctx, actor, req.ID, nil)
	require.NoError(t, err)
	po, err := procurement.CreatePurchaseOrder(ctx, actor, core.PurchaseOrderInput{ProcurementID: req.ID})
	require.NoError(t, err)
	for _, next := range []core.PurchaseOrderStatus{core.POStatusSent, core.POStatusConfirmed} {
		po, err = orders.TransitionPurchaseOrder(ctx, actor, po.ID, next)
		require.NoError(t, err)
	}
	return po
}

func TestStore_ProcurementRoundTrip(t *testing.T) {
	pool := setupTestDB(t) // Skips if TEST_DATABASE_URL is not set
	defer pool.Close()

	store := db.NewStore(pool, nil)
	po := orderedPO(t, store)
	ctx := context.Background()

	assert.Equal(t, core.POStatusConfirmed, po.Status)
	assert.True(t, po.TotalCost.Equal(decimal.NewFromInt(105)))
	assert.Equal(t, 30, po.PaymentTermsDays)

	req, err := store.GetProcurement(ctx, po.ProcurementID)
	require.NoError(t, err)
	assert.Equal(t, core.PRStatusOrdered, req.Status)
	require.Len(t, req.Lines, 2)
	assert.True(t, req.Lines[0].EffectiveQty().Equal(decimal.NewFromInt(10)))

	_, err = store.GetProcurement(ctx, 9999)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	bom, err := store.GetBOM(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, bom, 2)

	history, err := store.DemandHistory(ctx, core.ItemRef{Kind: core.KindMaterial, ID: 1}, req.CreatedAt.AddDate(0, 0, -1), req.CreatedAt.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestStore_ReceiptUpdatesStock(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := db.NewStore(pool, nil)
	po := orderedPO(t, store)
	ctx := context.Background()
	orders := core.NewPurchaseOrderService(store, nil, nil)
	actor := core.Actor{ID: 2, Name: "warehouse"}

	po, err := orders.ProcessReceipt(ctx, actor, po.ID, []core.ReceivedLine{
		{LineID: po.Lines[0].ID, QtyReceived: decimal.NewFromInt(10)},
		{LineID: po.Lines[1].ID, QtyReceived: decimal.NewFromInt(5)},
	})
	require.NoError(t, err)
	assert.Equal(t, core.POStatusFullyReceived, po.Status)

	steel, err := store.GetItem(ctx, core.ItemRef{Kind: core.KindMaterial, ID: 1})
	require.NoError(t, err)
	assert.True(t, steel.Stock.Equal(decimal.NewFromInt(110)))

	req, err := store.GetProcurement(ctx, po.ProcurementID)
	require.NoError(t, err)
	assert.Equal(t, core.PRStatusReceived, req.Status)

	records, err := store.LeadTimeHistory(ctx, core.ItemRef{Kind: core.KindMaterial, ID: 1}, req.CreatedAt.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// Concurrent receipts against the same line must never push received past
// ordered; the row lock serializes them and the loser sees the new total.
func TestStore_ConcurrentReceipts(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := db.NewStore(pool, nil)
	po := orderedPO(t, store)
	ctx := context.Background()
	orders := core.NewPurchaseOrderService(store, nil, nil)

	const workers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		exceeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := orders.ProcessReceipt(ctx, core.Actor{ID: n}, po.ID, []core.ReceivedLine{
				{LineID: po.Lines[0].ID, QtyReceived: decimal.NewFromInt(4)},
			})
			mu.Lock()
			defer mu.Unlock()
			var qe *core.QuantityExceededError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &qe):
				exceeded++
			default:
				t.Errorf("unexpected receipt error: %v", err)
			}
		}(i + 1)
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, workers-2, exceeded)

	got, err := store.GetPurchaseOrder(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].QtyReceived.Equal(decimal.NewFromInt(8)))
}

// Sales order dates are calendar days; the session TimeZone must not shift
// them off UTC midnight, which is how daily demand is bucketed.
func TestStore_DemandHistoryIgnoresSessionTimeZone(t *testing.T) {
	seed := setupTestDB(t)
	defer seed.Close()
	ctx := context.Background()

	_, err := seed.Exec(ctx, `
		INSERT INTO sales_orders (id, order_number, order_date) VALUES (1, 'SO-1', '2026-03-10');
		INSERT INTO sales_order_lines (order_id, product_id, quantity) VALUES (1, 1, 3);
	`)
	require.NoError(t, err)

	cfg, err := pgxpool.ParseConfig(os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["timezone"] = "Pacific/Kiritimati"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	store := db.NewStore(pool, nil)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	history, err := store.DemandHistory(ctx, core.ItemRef{Kind: core.KindProduct, ID: 1}, day, day.Add(23*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Date.Equal(day), "got %s", history[0].Date.UTC())
	assert.True(t, history[0].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestStore_CancelCouplingBetweenRequestAndOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	store := db.NewStore(pool, nil)
	po := orderedPO(t, store)
	ctx := context.Background()
	actor := core.Actor{ID: 1, Name: "buyer"}
	cfg := core.DefaultPlanningConfig()
	procurement := core.NewProcurementService(store, core.NewInventoryService(store, cfg, nil, nil), cfg, nil, nil)
	orders := core.NewPurchaseOrderService(store, nil, nil)

	_, err := procurement.TransitionProcurement(ctx, actor, po.ProcurementID, core.PRStatusCancelled)
	var invalid *core.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)

	_, err = orders.TransitionPurchaseOrder(ctx, actor, po.ID, core.POStatusCancelled)
	require.NoError(t, err)
	req, err := store.GetProcurement(ctx, po.ProcurementID)
	require.NoError(t, err)
	assert.Equal(t, core.PRStatusApproved, req.Status)

	req, err = procurement.TransitionProcurement(ctx, actor, po.ProcurementID, core.PRStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, core.PRStatusCancelled, req.Status)
}
