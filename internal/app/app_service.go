package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-planner/internal/core"

	"go.uber.org/zap"
)

type appService struct {
	inventory   core.InventoryService
	procurement core.ProcurementService
	orders      core.PurchaseOrderService
	log         *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	inventory core.InventoryService,
	procurement core.ProcurementService,
	orders core.PurchaseOrderService,
	log *zap.Logger,
) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		inventory:   inventory,
		procurement: procurement,
		orders:      orders,
		log:         log.Named("app"),
	}
}

func (s *appService) ComputeMetrics(ctx context.Context, req ItemRequest) (*MetricsResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	m, err := s.inventory.ComputeMetrics(ctx, core.ItemRef{Kind: core.ItemKind(req.Kind), ID: req.ID})
	if err != nil {
		return nil, err
	}
	return &MetricsResult{Metrics: m}, nil
}

func (s *appService) DetectBelowROP(ctx context.Context) (*ReorderResult, error) {
	report, err := s.inventory.DetectBelowROP(ctx)
	if err != nil {
		return nil, err
	}
	return &ReorderResult{Report: report}, nil
}

func (s *appService) ScanReorders(ctx context.Context, actor core.Actor) (*ReorderResult, error) {
	report, err := s.inventory.ScanReorders(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &ReorderResult{Report: report}, nil
}

func (s *appService) GenerateRopProcurement(ctx context.Context, actor core.Actor, req RopProcurementRequest) (*ProcurementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	pr, err := s.procurement.GenerateRopProcurement(ctx, actor, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		s.log.Info("no items below reorder point", zap.Int("supplier_id", req.SupplierID))
	}
	return procurementResult(pr), nil
}

func (s *appService) GenerateSalesOrderProcurement(ctx context.Context, actor core.Actor, req SalesOrderProcurementRequest) (*ProcurementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	pr, err := s.procurement.GenerateSalesOrderProcurement(ctx, actor, req.OrderID, req.SupplierID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		s.log.Info("sales order has no material shortfall", zap.Int("order_id", req.OrderID))
	}
	return procurementResult(pr), nil
}

func (s *appService) CreateManualProcurement(ctx context.Context, actor core.Actor, req ManualProcurementRequest) (*ProcurementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	in := core.ManualProcurementInput{
		SupplierID: req.SupplierID,
		Priority:   core.Priority(req.Priority),
		Notes:      req.Notes,
		Lines:      make([]core.ManualProcurementLine, len(req.Lines)),
	}
	if req.NeededBy != "" {
		t, err := time.Parse("2006-01-02", req.NeededBy)
		if err != nil {
			return nil, &core.InvalidInputError{Field: "needed_by", Reason: err.Error()}
		}
		in.NeededBy = t
	}
	for i, l := range req.Lines {
		in.Lines[i] = core.ManualProcurementLine{
			Item:         core.ItemRef{Kind: core.ItemKind(l.Kind), ID: l.ItemID},
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			OrderingCost: l.OrderingCost,
		}
	}

	pr, err := s.procurement.CreateManualProcurement(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	return procurementResult(pr), nil
}

func (s *appService) ApproveProcurement(ctx context.Context, actor core.Actor, req ApproveProcurementRequest) (*ProcurementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	approvals := make([]core.LineApproval, len(req.Lines))
	for i, l := range req.Lines {
		approvals[i] = core.LineApproval{LineID: l.LineID, ApprovedQty: l.ApprovedQty}
	}
	pr, err := s.procurement.ApproveProcurement(ctx, actor, req.ProcurementID, approvals)
	if err != nil {
		return nil, err
	}
	return procurementResult(pr), nil
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, actor core.Actor, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	po, err := s.procurement.CreatePurchaseOrder(ctx, actor, core.PurchaseOrderInput{
		ProcurementID:    req.ProcurementID,
		SupplierID:       req.SupplierID,
		PaymentTermsDays: req.PaymentTermsDays,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func (s *appService) ReceivePurchaseOrder(ctx context.Context, actor core.Actor, req ReceivePORequest) (*PurchaseOrderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	lines := make([]core.ReceivedLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = core.ReceivedLine{LineID: l.POLineID, QtyReceived: l.QtyReceived}
	}
	po, err := s.orders.ProcessReceipt(ctx, actor, req.POID, lines)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func (s *appService) TransitionDocument(ctx context.Context, actor core.Actor, req TransitionRequest) (*TransitionResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	doc := core.DocumentKind(req.Document)
	switch doc {
	case core.DocumentProcurement:
		pr, err := s.procurement.TransitionProcurement(ctx, actor, req.ID, core.ProcurementStatus(req.Status))
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Document: doc, ID: pr.ID, Status: string(pr.Status)}, nil
	case core.DocumentPurchaseOrder:
		po, err := s.orders.TransitionPurchaseOrder(ctx, actor, req.ID, core.PurchaseOrderStatus(req.Status))
		if err != nil {
			return nil, err
		}
		return &TransitionResult{Document: doc, ID: po.ID, Status: string(po.Status)}, nil
	}
	return nil, fmt.Errorf("transition: unsupported document %q", req.Document)
}

func (s *appService) ValidateTransition(_ context.Context, req ValidateTransitionRequest) (*TransitionCheckResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	err := core.ValidateTransition(core.DocumentKind(req.Document), req.Current, req.Next)
	var invalid *core.InvalidTransitionError
	switch {
	case err == nil:
		return &TransitionCheckResult{Allowed: true}, nil
	case errors.As(err, &invalid):
		return &TransitionCheckResult{Allowed: false, Reason: invalid.Error()}, nil
	}
	return nil, err
}

func (s *appService) GetProcurement(ctx context.Context, id int) (*ProcurementResult, error) {
	pr, err := s.procurement.GetProcurement(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProcurementResult{Procurement: pr}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrderResult, error) {
	po, err := s.orders.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{PurchaseOrder: po}, nil
}

func procurementResult(pr *core.ProcurementRequest) *ProcurementResult {
	return &ProcurementResult{Procurement: pr, Created: pr != nil}
}
