package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseOrderService records goods receipts and manual lifecycle moves on
// purchase orders.
type PurchaseOrderService interface {
	// ProcessReceipt applies a receipt batch atomically: received quantities,
	// stock, the linked procurement lines and both documents' statuses change
	// together or not at all.
	ProcessReceipt(ctx context.Context, actor Actor, purchaseOrderID int, lines []ReceivedLine) (*PurchaseOrder, error)
	// TransitionPurchaseOrder applies a manual status change. Receipt statuses
	// cannot be requested; they follow from ProcessReceipt. Cancelling an order
	// that has received nothing returns its ordered request to approved so a
	// replacement order can be raised.
	TransitionPurchaseOrder(ctx context.Context, actor Actor, id int, next PurchaseOrderStatus) (*PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error)
}

type purchaseOrderService struct {
	store  Store
	events EventSink
	log    *zap.Logger
	now    func() time.Time
}

// NewPurchaseOrderService constructs a PurchaseOrderService on top of store.
func NewPurchaseOrderService(store Store, events EventSink, log *zap.Logger, opts ...Option) PurchaseOrderService {
	o := buildOptions(opts)
	if events == nil {
		events = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &purchaseOrderService{store: store, events: events, log: log.Named("purchase_order"), now: o.now}
}

type statusMove struct {
	doc      DocumentKind
	id       int
	from, to string
}

func (s *purchaseOrderService) ProcessReceipt(ctx context.Context, actor Actor, purchaseOrderID int, lines []ReceivedLine) (*PurchaseOrder, error) {
	batch, err := mergeReceivedLines(lines)
	if err != nil {
		return nil, err
	}

	var (
		po      *PurchaseOrder
		receipt *GoodsReceipt
		moves   []statusMove
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		moves = nil
		var err error
		po, err = tx.LockPurchaseOrder(ctx, purchaseOrderID)
		if err != nil {
			return fmt.Errorf("lock purchase order %d: %w", purchaseOrderID, err)
		}

		// Validate the whole batch before touching anything.
		for _, rl := range batch {
			line := po.line(rl.LineID)
			if line == nil {
				return invalidInput("line_id", "line %d does not belong to purchase order %d", rl.LineID, po.ID)
			}
			if line.QtyReceived.Add(rl.QtyReceived).GreaterThan(line.QtyOrdered) {
				return &QuantityExceededError{
					LineID:          line.ID,
					Ordered:         line.QtyOrdered,
					AlreadyReceived: line.QtyReceived,
					Requested:       rl.QtyReceived,
				}
			}
		}

		var req *ProcurementRequest
		if po.ProcurementID != 0 {
			req, err = tx.LockProcurement(ctx, po.ProcurementID)
			if err != nil {
				return fmt.Errorf("lock procurement %d: %w", po.ProcurementID, err)
			}
		}

		now := s.now()
		receipt = &GoodsReceipt{PurchaseOrderID: po.ID, ReceivedAt: now, ReceivedBy: actor.ID}
		for _, rl := range batch {
			line := po.line(rl.LineID)
			line.QtyReceived = line.QtyReceived.Add(rl.QtyReceived)
			if err := tx.AdjustStock(ctx, line.Item, rl.QtyReceived); err != nil {
				return fmt.Errorf("adjust stock for %s: %w", line.Item, err)
			}
			if req != nil {
				if pl := req.line(line.ProcurementLineID); pl != nil {
					pl.ReceivedQty = pl.ReceivedQty.Add(rl.QtyReceived)
				}
			}
			receipt.Lines = append(receipt.Lines, GoodsReceiptLine{PurchaseOrderLineID: line.ID, Quantity: rl.QtyReceived})
		}

		from := po.Status
		next := po.ReceiptStatus()
		if err := ValidatePurchaseOrderTransition(from, next); err != nil {
			return err
		}
		po.Status = next
		po.UpdatedAt = now
		if next == POStatusFullyReceived {
			po.ReceivedAt = &now
		}
		if err := tx.UpdatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("update purchase order %d: %w", po.ID, err)
		}
		moves = append(moves, statusMove{DocumentPurchaseOrder, po.ID, string(from), string(next)})

		if req != nil {
			reqFrom := req.Status
			reqNext := req.ReceiptStatus()
			if err := ValidateProcurementTransition(reqFrom, reqNext); err != nil {
				return err
			}
			req.Status = reqNext
			req.UpdatedAt = now
			if reqNext == PRStatusReceived {
				req.CompletedAt = &now
			}
			if err := tx.UpdateProcurement(ctx, req); err != nil {
				return fmt.Errorf("update procurement %d: %w", req.ID, err)
			}
			moves = append(moves, statusMove{DocumentProcurement, req.ID, string(reqFrom), string(reqNext)})
		}

		if err := tx.InsertGoodsReceipt(ctx, receipt); err != nil {
			return fmt.Errorf("insert goods receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, l := range receipt.Lines {
		total = total.Add(l.Quantity)
	}
	s.log.Info("goods receipt processed",
		zap.Int("purchase_order_id", po.ID),
		zap.Int("receipt_id", receipt.ID),
		zap.Int("lines", len(receipt.Lines)),
		zap.String("quantity", total.String()),
		zap.String("status", string(po.Status)),
		zap.Int("actor_id", actor.ID))
	s.events.Publish(ctx, ReceiptProcessed{
		PurchaseOrderID: po.ID,
		ReceiptID:       receipt.ID,
		Lines:           receipt.Lines,
		TotalQuantity:   total,
		Status:          po.Status,
		Actor:           actor,
		ProcessedAt:     receipt.ReceivedAt,
	})
	for _, m := range moves {
		s.publishStatus(ctx, actor, m)
	}
	return po, nil
}

// mergeReceivedLines rejects empty batches and non-positive quantities and sums
// repeated line ids, keeping first-seen order.
func mergeReceivedLines(lines []ReceivedLine) ([]ReceivedLine, error) {
	if len(lines) == 0 {
		return nil, invalidInput("lines", "receipt must contain at least one line")
	}
	index := make(map[int]int, len(lines))
	merged := make([]ReceivedLine, 0, len(lines))
	for _, l := range lines {
		if !l.QtyReceived.IsPositive() {
			return nil, invalidInput("qty_received", "line %d: must be positive, got %s", l.LineID, l.QtyReceived)
		}
		if i, ok := index[l.LineID]; ok {
			merged[i].QtyReceived = merged[i].QtyReceived.Add(l.QtyReceived)
			continue
		}
		index[l.LineID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

func (s *purchaseOrderService) TransitionPurchaseOrder(ctx context.Context, actor Actor, id int, next PurchaseOrderStatus) (*PurchaseOrder, error) {
	if !next.IsValid() {
		return nil, invalidInput("status", "unknown purchase order status %q", next)
	}
	var (
		po    *PurchaseOrder
		moves []statusMove
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		moves = nil
		var err error
		po, err = tx.LockPurchaseOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("lock purchase order %d: %w", id, err)
		}
		from := po.Status
		if from == next {
			return nil
		}
		if next.IsReceiptDerived() {
			return &InvalidTransitionError{Document: DocumentPurchaseOrder, Current: string(from), Requested: string(next)}
		}
		if err := ValidatePurchaseOrderTransition(from, next); err != nil {
			return err
		}
		now := s.now()
		po.Status = next
		po.UpdatedAt = now
		if err := tx.UpdatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("update purchase order %d: %w", po.ID, err)
		}
		moves = append(moves, statusMove{DocumentPurchaseOrder, po.ID, string(from), string(next)})

		if next != POStatusCancelled || po.ProcurementID == 0 || po.hasReceipts() {
			return nil
		}
		req, err := tx.LockProcurement(ctx, po.ProcurementID)
		if err != nil {
			return fmt.Errorf("lock procurement %d: %w", po.ProcurementID, err)
		}
		if req.Status != PRStatusOrdered {
			return nil
		}
		if err := ValidateProcurementTransition(req.Status, PRStatusApproved); err != nil {
			return err
		}
		req.Status = PRStatusApproved
		req.UpdatedAt = now
		if err := tx.UpdateProcurement(ctx, req); err != nil {
			return fmt.Errorf("update procurement %d: %w", req.ID, err)
		}
		moves = append(moves, statusMove{DocumentProcurement, req.ID, string(PRStatusOrdered), string(PRStatusApproved)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, m := range moves {
		s.publishStatus(ctx, actor, m)
	}
	return po, nil
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	po, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return po, nil
}

func (s *purchaseOrderService) publishStatus(ctx context.Context, actor Actor, m statusMove) {
	if m.from == m.to {
		return
	}
	s.log.Info("status changed",
		zap.String("document", string(m.doc)),
		zap.Int("document_id", m.id),
		zap.String("from", m.from),
		zap.String("to", m.to),
		zap.Int("actor_id", actor.ID))
	s.events.Publish(ctx, StatusChanged{
		Document:   m.doc,
		DocumentID: m.id,
		From:       m.from,
		To:         m.to,
		Actor:      actor,
		ChangedAt:  s.now(),
	})
}
