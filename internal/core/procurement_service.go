package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProcurementService creates procurement requests, automatically from reorder
// points and sales orders or manually, and moves them through their lifecycle
// up to the purchase order.
type ProcurementService interface {
	// GenerateRopProcurement builds one high-priority request covering every
	// item at or below its reorder point. It returns nil when nothing qualifies.
	GenerateRopProcurement(ctx context.Context, actor Actor, supplierID int) (*ProcurementRequest, error)
	// GenerateSalesOrderProcurement expands a sales order through product BOMs
	// and requests every material whose requirement exceeds stock. It returns
	// nil when stock covers the whole order.
	GenerateSalesOrderProcurement(ctx context.Context, actor Actor, orderID, supplierID int) (*ProcurementRequest, error)

	CreateManualProcurement(ctx context.Context, actor Actor, in ManualProcurementInput) (*ProcurementRequest, error)
	// ApproveProcurement records approved quantities and moves a pending request to approved.
	ApproveProcurement(ctx context.Context, actor Actor, id int, approvals []LineApproval) (*ProcurementRequest, error)
	TransitionProcurement(ctx context.Context, actor Actor, id int, next ProcurementStatus) (*ProcurementRequest, error)
	// CreatePurchaseOrder turns an approved request into a draft purchase order
	// and marks the request ordered.
	CreatePurchaseOrder(ctx context.Context, actor Actor, in PurchaseOrderInput) (*PurchaseOrder, error)
	GetProcurement(ctx context.Context, id int) (*ProcurementRequest, error)
}

// ManualProcurementInput is a user-entered procurement request.
type ManualProcurementInput struct {
	SupplierID int
	Priority   Priority
	NeededBy   time.Time
	Notes      string
	Lines      []ManualProcurementLine
}

// ManualProcurementLine is one requested item on a manual request.
type ManualProcurementLine struct {
	Item         ItemRef
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	OrderingCost *decimal.Decimal
}

// LineApproval sets the approved quantity of one procurement line.
type LineApproval struct {
	LineID      int
	ApprovedQty decimal.Decimal
}

// PurchaseOrderInput selects the request to order. A zero SupplierID keeps the
// request's supplier; a nil PaymentTermsDays uses the supplier's terms.
type PurchaseOrderInput struct {
	ProcurementID    int
	SupplierID       int
	PaymentTermsDays *int
}

type procurementService struct {
	store     Store
	inventory InventoryService
	cfg       PlanningConfig
	events    EventSink
	log       *zap.Logger
	now       func() time.Time
}

func NewProcurementService(store Store, inventory InventoryService, cfg PlanningConfig, events EventSink, log *zap.Logger, opts ...Option) ProcurementService {
	o := buildOptions(opts)
	if events == nil {
		events = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &procurementService{
		store:     store,
		inventory: inventory,
		cfg:       cfg,
		events:    events,
		log:       log.Named("procurement"),
		now:       o.now,
	}
}

// ── Generation ────────────────────────────────────────────────────────────────

func (s *procurementService) GenerateRopProcurement(ctx context.Context, actor Actor, supplierID int) (*ProcurementRequest, error) {
	if _, err := s.activeSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	report, err := s.inventory.DetectBelowROP(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect reorder items: %w", err)
	}
	if report.Empty() {
		s.log.Info("no items below reorder point, nothing to request")
		return nil, nil
	}

	now := s.now()
	req := s.newRequest(actor, SourceROP, supplierID, PriorityHigh, now.AddDate(0, 0, s.cfg.RopLeadBufferDays), now)
	req.Notes = "Generated from reorder point scan"
	for _, c := range report.All() {
		req.Lines = append(req.Lines, ProcurementLine{
			Item:         c.Item.Ref,
			RequestedQty: decimal.NewFromInt(s.ropQuantity(c)),
			UnitPrice:    s.procurementPrice(c.Item),
		})
	}
	if err := s.insert(ctx, req); err != nil {
		return nil, err
	}
	s.log.Info("rop procurement created",
		zap.Int("procurement_id", req.ID),
		zap.Int("lines", len(req.Lines)),
		zap.String("total_cost", req.TotalCost.String()))
	return req, nil
}

// ropQuantity orders the EOQ when one is known, otherwise twice the reorder
// point but never less than the kind's floor quantity.
func (s *procurementService) ropQuantity(c ReorderCandidate) int64 {
	if c.EOQ > 0 {
		return c.EOQ
	}
	return max(s.cfg.floorQuantity(c.Item.Ref.Kind), 2*c.ReorderPoint)
}

// procurementPrice is the purchase price for materials and an assumed
// manufacturing cost for products.
func (s *procurementService) procurementPrice(item InventoryItem) decimal.Decimal {
	if item.Ref.Kind == KindProduct {
		return item.UnitValue.Mul(decimal.NewFromFloat(s.cfg.ProductCostRatio)).Round(2)
	}
	return item.UnitValue
}

func (s *procurementService) GenerateSalesOrderProcurement(ctx context.Context, actor Actor, orderID, supplierID int) (*ProcurementRequest, error) {
	if _, err := s.activeSupplier(ctx, supplierID); err != nil {
		return nil, err
	}
	order, err := s.store.GetSalesOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get sales order %d: %w", orderID, err)
	}

	requirements, err := s.materialRequirements(ctx, order)
	if err != nil {
		return nil, err
	}

	now := s.now()
	neededBy := now
	if !order.RequiredDate.IsZero() {
		neededBy = order.RequiredDate.AddDate(0, 0, -s.cfg.SalesOrderLeadBufferDays)
	}
	req := s.newRequest(actor, SourceSalesOrder, supplierID, PriorityNormal, neededBy, now)
	req.SalesOrderID = &order.ID
	req.Notes = fmt.Sprintf("Material shortage for sales order %s", order.OrderNumber)

	for _, r := range requirements {
		item, err := s.store.GetItem(ctx, ItemRef{Kind: KindMaterial, ID: r.materialID})
		if err != nil {
			return nil, fmt.Errorf("get material %d: %w", r.materialID, err)
		}
		shortage := r.required.Sub(item.Stock)
		if !shortage.IsPositive() {
			continue
		}
		eoq, err := s.eoqFor(ctx, item)
		if err != nil {
			return nil, err
		}
		req.Lines = append(req.Lines, ProcurementLine{
			Item:         item.Ref,
			RequestedQty: decimal.Max(shortage, decimal.NewFromInt(eoq)),
			UnitPrice:    item.UnitValue,
		})
	}
	if len(req.Lines) == 0 {
		s.log.Info("stock covers sales order, nothing to request", zap.Int("sales_order_id", orderID))
		return nil, nil
	}
	if err := s.insert(ctx, req); err != nil {
		return nil, err
	}
	s.log.Info("sales order procurement created",
		zap.Int("procurement_id", req.ID),
		zap.Int("sales_order_id", orderID),
		zap.Int("lines", len(req.Lines)))
	return req, nil
}

type materialRequirement struct {
	materialID int
	required   decimal.Decimal
}

// materialRequirements expands every order line through its product's BOM and
// sums the result per material, in first-seen order.
func (s *procurementService) materialRequirements(ctx context.Context, order *SalesOrder) ([]materialRequirement, error) {
	index := make(map[int]int)
	var out []materialRequirement
	for _, line := range order.Lines {
		bom, err := s.store.GetBOM(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get BOM for product %d: %w", line.ProductID, err)
		}
		for _, entry := range bom {
			qty := entry.QuantityPer.Mul(line.Quantity)
			if i, ok := index[entry.MaterialID]; ok {
				out[i].required = out[i].required.Add(qty)
				continue
			}
			index[entry.MaterialID] = len(out)
			out = append(out, materialRequirement{materialID: entry.MaterialID, required: qty})
		}
	}
	return out, nil
}

func (s *procurementService) eoqFor(ctx context.Context, item *InventoryItem) (int64, error) {
	if item.StoredEOQ != nil {
		return *item.StoredEOQ, nil
	}
	m, err := s.inventory.ComputeMetrics(ctx, item.Ref)
	if err != nil {
		return 0, fmt.Errorf("compute EOQ for %s: %w", item.Ref, err)
	}
	return m.EOQ, nil
}

// ── Manual entry and lifecycle ────────────────────────────────────────────────

func (s *procurementService) CreateManualProcurement(ctx context.Context, actor Actor, in ManualProcurementInput) (*ProcurementRequest, error) {
	if len(in.Lines) == 0 {
		return nil, invalidInput("lines", "procurement request must have at least one line")
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.IsValid() {
		return nil, invalidInput("priority", "unknown priority %q", in.Priority)
	}
	if _, err := s.activeSupplier(ctx, in.SupplierID); err != nil {
		return nil, err
	}

	now := s.now()
	neededBy := in.NeededBy
	if neededBy.IsZero() {
		neededBy = now
	}
	req := s.newRequest(actor, SourceManual, in.SupplierID, priority, neededBy, now)
	req.Notes = in.Notes
	for _, l := range in.Lines {
		if l.Item.Kind.IsValid() {
			if _, err := s.store.GetItem(ctx, l.Item); err != nil {
				return nil, fmt.Errorf("get item %s: %w", l.Item, err)
			}
		}
		req.Lines = append(req.Lines, ProcurementLine{
			Item:         l.Item,
			RequestedQty: l.Quantity,
			UnitPrice:    l.UnitPrice,
			OrderingCost: l.OrderingCost,
		})
	}
	if err := s.insert(ctx, req); err != nil {
		return nil, err
	}
	s.log.Info("manual procurement created", zap.Int("procurement_id", req.ID), zap.Int("actor_id", actor.ID))
	return req, nil
}

func (s *procurementService) ApproveProcurement(ctx context.Context, actor Actor, id int, approvals []LineApproval) (*ProcurementRequest, error) {
	var (
		req  *ProcurementRequest
		from ProcurementStatus
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		req, err = tx.LockProcurement(ctx, id)
		if err != nil {
			return fmt.Errorf("lock procurement %d: %w", id, err)
		}
		from = req.Status
		if from == PRStatusOrdered {
			return &InvalidTransitionError{Document: DocumentProcurement, Current: string(from), Requested: string(PRStatusApproved)}
		}
		if err := ValidateProcurementTransition(from, PRStatusApproved); err != nil {
			return err
		}
		for _, a := range approvals {
			line := req.line(a.LineID)
			if line == nil {
				return invalidInput("line_id", "line %d does not belong to procurement %d", a.LineID, id)
			}
			qty := a.ApprovedQty
			line.ApprovedQty = &qty
			if err := line.validate(); err != nil {
				return fmt.Errorf("line %d: %w", a.LineID, err)
			}
		}
		req.recalculateTotals()
		req.Status = PRStatusApproved
		req.UpdatedAt = s.now()
		return tx.UpdateProcurement(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, actor, DocumentProcurement, req.ID, string(from), string(req.Status))
	return req, nil
}

func (s *procurementService) TransitionProcurement(ctx context.Context, actor Actor, id int, next ProcurementStatus) (*ProcurementRequest, error) {
	if !next.IsValid() {
		return nil, invalidInput("status", "unknown procurement status %q", next)
	}
	var (
		req  *ProcurementRequest
		from ProcurementStatus
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		// Orders are locked before the request, the same order ProcessReceipt uses.
		var orders []*PurchaseOrder
		if next == PRStatusCancelled {
			var err error
			orders, err = tx.LockPurchaseOrdersByProcurement(ctx, id)
			if err != nil {
				return fmt.Errorf("lock purchase orders of procurement %d: %w", id, err)
			}
		}

		var err error
		req, err = tx.LockProcurement(ctx, id)
		if err != nil {
			return fmt.Errorf("lock procurement %d: %w", id, err)
		}
		from = req.Status
		if from == next {
			return nil
		}
		// ordered, the receipt statuses and ordered → approved are driven by
		// purchase orders only.
		if next.IsReceiptDerived() || next == PRStatusOrdered || from == PRStatusOrdered && next == PRStatusApproved {
			return &InvalidTransitionError{Document: DocumentProcurement, Current: string(from), Requested: string(next)}
		}
		if err := ValidateProcurementTransition(from, next); err != nil {
			return err
		}
		// An order raised while the request lock was awaited is missing from
		// the first scan.
		if next == PRStatusCancelled && from == PRStatusOrdered && !hasOpenOrder(orders) {
			orders, err = tx.LockPurchaseOrdersByProcurement(ctx, id)
			if err != nil {
				return fmt.Errorf("lock purchase orders of procurement %d: %w", id, err)
			}
		}
		for _, po := range orders {
			if !po.Status.IsTerminal() {
				return fmt.Errorf("purchase order %d is still %s: %w", po.ID, po.Status,
					&InvalidTransitionError{Document: DocumentProcurement, Current: string(from), Requested: string(next)})
			}
		}
		req.Status = next
		req.UpdatedAt = s.now()
		return tx.UpdateProcurement(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, actor, DocumentProcurement, req.ID, string(from), string(req.Status))
	return req, nil
}

func hasOpenOrder(orders []*PurchaseOrder) bool {
	for _, po := range orders {
		if !po.Status.IsTerminal() {
			return true
		}
	}
	return false
}

func (s *procurementService) CreatePurchaseOrder(ctx context.Context, actor Actor, in PurchaseOrderInput) (*PurchaseOrder, error) {
	var (
		po  *PurchaseOrder
		req *ProcurementRequest
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		req, err = tx.LockProcurement(ctx, in.ProcurementID)
		if err != nil {
			return fmt.Errorf("lock procurement %d: %w", in.ProcurementID, err)
		}
		if req.Status != PRStatusApproved {
			return &InvalidTransitionError{Document: DocumentProcurement, Current: string(req.Status), Requested: string(PRStatusOrdered)}
		}

		supplierID := in.SupplierID
		if supplierID == 0 {
			supplierID = req.SupplierID
		}
		supplier, err := s.activeSupplier(ctx, supplierID)
		if err != nil {
			return err
		}
		terms := supplier.PaymentTermsDays
		if in.PaymentTermsDays != nil {
			if *in.PaymentTermsDays < 0 {
				return invalidInput("payment_terms_days", "cannot be negative, got %d", *in.PaymentTermsDays)
			}
			terms = *in.PaymentTermsDays
		}

		now := s.now()
		po = &PurchaseOrder{
			ProcurementID:    req.ID,
			SupplierID:       supplierID,
			Status:           POStatusDraft,
			PaymentTermsDays: terms,
			CreatedBy:        actor.ID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		for _, l := range req.Lines {
			qty := l.EffectiveQty()
			if !qty.IsPositive() {
				continue
			}
			po.Lines = append(po.Lines, PurchaseOrderLine{
				ProcurementLineID: l.ID,
				Item:              l.Item,
				QtyOrdered:        qty,
				QtyReceived:       decimal.Zero,
				UnitPrice:         l.UnitPrice,
			})
		}
		if len(po.Lines) == 0 {
			return invalidInput("lines", "procurement %d has no approved quantity to order", req.ID)
		}
		po.recalculateTotals()
		if err := tx.InsertPurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("insert purchase order: %w", err)
		}

		req.Status = PRStatusOrdered
		req.UpdatedAt = now
		return tx.UpdateProcurement(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("purchase order created",
		zap.Int("purchase_order_id", po.ID),
		zap.Int("procurement_id", req.ID),
		zap.String("total_cost", po.TotalCost.String()))
	s.publishStatus(ctx, actor, DocumentProcurement, req.ID, string(PRStatusApproved), string(PRStatusOrdered))
	return po, nil
}

func (s *procurementService) GetProcurement(ctx context.Context, id int) (*ProcurementRequest, error) {
	req, err := s.store.GetProcurement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get procurement %d: %w", id, err)
	}
	return req, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *procurementService) newRequest(actor Actor, source ProcurementSource, supplierID int, priority Priority, neededBy, now time.Time) *ProcurementRequest {
	return &ProcurementRequest{
		Source:     source,
		SupplierID: supplierID,
		Status:     PRStatusPending,
		Priority:   priority,
		NeededBy:   neededBy,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// insert validates lines, derives the total and stores request and lines atomically.
func (s *procurementService) insert(ctx context.Context, req *ProcurementRequest) error {
	for i := range req.Lines {
		req.Lines[i].ReceivedQty = decimal.Zero
		if err := req.Lines[i].validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	req.recalculateTotals()
	return s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertProcurement(ctx, req); err != nil {
			return fmt.Errorf("insert procurement: %w", err)
		}
		return nil
	})
}

func (s *procurementService) activeSupplier(ctx context.Context, id int) (*Supplier, error) {
	if id <= 0 {
		return nil, invalidInput("supplier_id", "must be positive, got %d", id)
	}
	supplier, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier %d: %w", id, err)
	}
	if !supplier.IsActive {
		return nil, invalidInput("supplier_id", "supplier %d is inactive", id)
	}
	return supplier, nil
}

func (s *procurementService) publishStatus(ctx context.Context, actor Actor, doc DocumentKind, id int, from, to string) {
	if from == to {
		return
	}
	s.log.Info("status changed",
		zap.String("document", string(doc)),
		zap.Int("document_id", id),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("actor_id", actor.ID))
	s.events.Publish(ctx, StatusChanged{
		Document:   doc,
		DocumentID: id,
		From:       from,
		To:         to,
		Actor:      actor,
		ChangedAt:  s.now(),
	})
}
