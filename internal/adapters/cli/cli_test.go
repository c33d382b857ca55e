package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"inventory-planner/internal/app"
	"inventory-planner/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingApp captures requests; only the methods the tests drive return data.
type recordingApp struct {
	app.ApplicationService
	actor    core.Actor
	approve  app.ApproveProcurementRequest
	receive  app.ReceivePORequest
	po       app.CreatePurchaseOrderRequest
	manual   app.ManualProcurementRequest
	allowed  bool
	reorders *core.ReorderReport
}

func (a *recordingApp) DetectBelowROP(context.Context) (*app.ReorderResult, error) {
	return &app.ReorderResult{Report: a.reorders}, nil
}

func (a *recordingApp) GenerateRopProcurement(_ context.Context, actor core.Actor, _ app.RopProcurementRequest) (*app.ProcurementResult, error) {
	a.actor = actor
	return &app.ProcurementResult{}, nil
}

func (a *recordingApp) CreateManualProcurement(_ context.Context, _ core.Actor, req app.ManualProcurementRequest) (*app.ProcurementResult, error) {
	a.manual = req
	return &app.ProcurementResult{Created: true, Procurement: &core.ProcurementRequest{ID: 4, NeededBy: time.Now()}}, nil
}

func (a *recordingApp) ApproveProcurement(_ context.Context, _ core.Actor, req app.ApproveProcurementRequest) (*app.ProcurementResult, error) {
	a.approve = req
	return &app.ProcurementResult{Procurement: &core.ProcurementRequest{ID: req.ProcurementID}}, nil
}

func (a *recordingApp) CreatePurchaseOrder(_ context.Context, _ core.Actor, req app.CreatePurchaseOrderRequest) (*app.PurchaseOrderResult, error) {
	a.po = req
	return &app.PurchaseOrderResult{PurchaseOrder: &core.PurchaseOrder{ID: 1}}, nil
}

func (a *recordingApp) ReceivePurchaseOrder(_ context.Context, _ core.Actor, req app.ReceivePORequest) (*app.PurchaseOrderResult, error) {
	a.receive = req
	return &app.PurchaseOrderResult{PurchaseOrder: &core.PurchaseOrder{ID: req.POID}}, nil
}

func (a *recordingApp) ValidateTransition(context.Context, app.ValidateTransitionRequest) (*app.TransitionCheckResult, error) {
	if a.allowed {
		return &app.TransitionCheckResult{Allowed: true}, nil
	}
	return &app.TransitionCheckResult{Reason: "cancelled is terminal"}, nil
}

var operator = core.Actor{ID: 2, Name: "ops"}

func run(t *testing.T, svc *recordingApp, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewRunner(svc, operator, strings.NewReader(stdin), &out).Run(context.Background(), args)
	return out.String(), err
}

func TestRun_UnknownAndMissingCommand(t *testing.T) {
	_, err := run(t, &recordingApp{}, "")
	require.Error(t, err)

	_, err = run(t, &recordingApp{}, "", "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRun_ArgumentErrors(t *testing.T) {
	tests := [][]string{
		{"metrics", "material"},
		{"metrics", "material", "x"},
		{"rop-procure", "-1"},
		{"approve", "3", "7"},
		{"approve", "3", "7=abc"},
		{"receive", "3"},
		{"create-po", "3", "1", "net30"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, &recordingApp{}, "", args...)
			assert.Error(t, err)
		})
	}
}

func TestRun_RopNothingToOrder(t *testing.T) {
	svc := &recordingApp{}
	out, err := run(t, svc, "", "rop-procure", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No items at or below")
	assert.Equal(t, operator, svc.actor)
}

func TestRun_ApproveParsesLines(t *testing.T) {
	svc := &recordingApp{}
	_, err := run(t, svc, "", "approve", "3", "7=2.5", "8=0")
	require.NoError(t, err)
	assert.Equal(t, 3, svc.approve.ProcurementID)
	require.Len(t, svc.approve.Lines, 2)
	assert.True(t, svc.approve.Lines[0].ApprovedQty.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, svc.approve.Lines[1].ApprovedQty.IsZero())
}

func TestRun_ReceiveAndCreatePO(t *testing.T) {
	svc := &recordingApp{}
	_, err := run(t, svc, "", "receive", "5", "11=4")
	require.NoError(t, err)
	assert.Equal(t, 5, svc.receive.POID)
	assert.Equal(t, 11, svc.receive.Lines[0].POLineID)

	_, err = run(t, svc, "", "create-po", "3", "2", "45")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.po.SupplierID)
	require.NotNil(t, svc.po.PaymentTermsDays)
	assert.Equal(t, 45, *svc.po.PaymentTermsDays)
}

func TestRun_ProcureReadsStdin(t *testing.T) {
	svc := &recordingApp{}
	out, err := run(t, svc, `{"supplier_id":1,"lines":[{"kind":"material","item_id":2,"quantity":"5","unit_price":"1.5"}]}`, "procure")
	require.NoError(t, err)
	assert.Contains(t, out, "PROCUREMENT REQUEST #4")
	require.Len(t, svc.manual.Lines, 1)

	_, err = run(t, svc, "{", "procure")
	assert.Error(t, err)
}

func TestRun_CanTransition(t *testing.T) {
	out, err := run(t, &recordingApp{allowed: true}, "", "can-transition", "purchase_order", "draft", "sent")
	require.NoError(t, err)
	assert.Equal(t, "allowed\n", out)

	out, err = run(t, &recordingApp{}, "", "can-transition", "purchase_order", "cancelled", "sent")
	require.NoError(t, err)
	assert.Contains(t, out, "not allowed")
}

func TestRun_ReordersTable(t *testing.T) {
	svc := &recordingApp{reorders: &core.ReorderReport{
		Materials: []core.ReorderCandidate{{
			Item:         core.InventoryItem{Ref: core.ItemRef{Kind: core.KindMaterial, ID: 1}, Code: "STEEL", Name: "Steel sheet", Stock: decimal.NewFromInt(3)},
			ReorderPoint: 12,
			EOQ:          40,
		}},
	}}
	out, err := run(t, svc, "", "reorders")
	require.NoError(t, err)
	assert.Contains(t, out, "STEEL")
	assert.Contains(t, out, "40")

	svc.reorders = &core.ReorderReport{}
	out, err = run(t, svc, "", "reorders")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to reorder.")
}
