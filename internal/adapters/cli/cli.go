package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-planner/internal/app"
	"inventory-planner/internal/core"

	"github.com/shopspring/decimal"
)

const usage = `Available commands:
  metrics <material|product> <id>
  reorders
  scan
  rop-procure <supplier_id>
  so-procure <order_id> <supplier_id>
  procure                                  (ManualProcurementRequest JSON on stdin)
  approve <procurement_id> [line_id=qty ...]
  create-po <procurement_id> [supplier_id] [payment_terms_days]
  receive <po_id> <po_line_id=qty> [...]
  transition <procurement_request|purchase_order> <id> <status>
  can-transition <procurement_request|purchase_order> <current> <next>
  show-pr <id>
  show-po <id>`

// Runner executes one-shot CLI commands on behalf of a single actor.
type Runner struct {
	svc   app.ApplicationService
	actor core.Actor
	in    io.Reader
	out   io.Writer
}

func NewRunner(svc app.ApplicationService, actor core.Actor, in io.Reader, out io.Writer) *Runner {
	return &Runner{svc: svc, actor: actor, in: in, out: out}
}

// Usage returns the command summary.
func Usage() string { return usage }

// Run executes a one-shot CLI command.
// args is os.Args[1:] with flags stripped; the first element is the subcommand name.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}

	switch args[0] {
	case "metrics", "m":
		if len(args) != 3 {
			return usageErr("metrics <material|product> <id>")
		}
		id, err := atoi("id", args[2])
		if err != nil {
			return err
		}
		res, err := r.svc.ComputeMetrics(ctx, app.ItemRequest{Kind: args[1], ID: id})
		if err != nil {
			return err
		}
		printMetrics(r.out, res.Metrics)

	case "reorders", "rop":
		res, err := r.svc.DetectBelowROP(ctx)
		if err != nil {
			return err
		}
		printReorders(r.out, res.Report)

	case "scan":
		res, err := r.svc.ScanReorders(ctx, r.actor)
		if err != nil {
			return err
		}
		printReorders(r.out, res.Report)

	case "rop-procure":
		if len(args) != 2 {
			return usageErr("rop-procure <supplier_id>")
		}
		supplierID, err := atoi("supplier_id", args[1])
		if err != nil {
			return err
		}
		res, err := r.svc.GenerateRopProcurement(ctx, r.actor, app.RopProcurementRequest{SupplierID: supplierID})
		if err != nil {
			return err
		}
		r.printCreated(res, "No items at or below their reorder point.")

	case "so-procure":
		if len(args) != 3 {
			return usageErr("so-procure <order_id> <supplier_id>")
		}
		orderID, err := atoi("order_id", args[1])
		if err != nil {
			return err
		}
		supplierID, err := atoi("supplier_id", args[2])
		if err != nil {
			return err
		}
		res, err := r.svc.GenerateSalesOrderProcurement(ctx, r.actor, app.SalesOrderProcurementRequest{OrderID: orderID, SupplierID: supplierID})
		if err != nil {
			return err
		}
		r.printCreated(res, "Sales order has no material shortfall.")

	case "procure":
		var req app.ManualProcurementRequest
		if err := json.NewDecoder(r.in).Decode(&req); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
		res, err := r.svc.CreateManualProcurement(ctx, r.actor, req)
		if err != nil {
			return err
		}
		r.printCreated(res, "")

	case "approve":
		if len(args) < 2 {
			return usageErr("approve <procurement_id> [line_id=qty ...]")
		}
		id, err := atoi("procurement_id", args[1])
		if err != nil {
			return err
		}
		pairs, err := parsePairs(args[2:])
		if err != nil {
			return err
		}
		req := app.ApproveProcurementRequest{ProcurementID: id}
		for _, p := range pairs {
			req.Lines = append(req.Lines, app.LineApprovalInput{LineID: p.id, ApprovedQty: p.qty})
		}
		res, err := r.svc.ApproveProcurement(ctx, r.actor, req)
		if err != nil {
			return err
		}
		printProcurement(r.out, res.Procurement)

	case "create-po":
		if len(args) < 2 || len(args) > 4 {
			return usageErr("create-po <procurement_id> [supplier_id] [payment_terms_days]")
		}
		req := app.CreatePurchaseOrderRequest{}
		var err error
		if req.ProcurementID, err = atoi("procurement_id", args[1]); err != nil {
			return err
		}
		if len(args) > 2 {
			if req.SupplierID, err = atoi("supplier_id", args[2]); err != nil {
				return err
			}
		}
		if len(args) > 3 {
			terms, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid payment_terms_days %q", args[3])
			}
			req.PaymentTermsDays = &terms
		}
		res, err := r.svc.CreatePurchaseOrder(ctx, r.actor, req)
		if err != nil {
			return err
		}
		printPurchaseOrder(r.out, res.PurchaseOrder)

	case "receive":
		if len(args) < 3 {
			return usageErr("receive <po_id> <po_line_id=qty> [...]")
		}
		poID, err := atoi("po_id", args[1])
		if err != nil {
			return err
		}
		pairs, err := parsePairs(args[2:])
		if err != nil {
			return err
		}
		req := app.ReceivePORequest{POID: poID}
		for _, p := range pairs {
			req.Lines = append(req.Lines, app.ReceivedLineInput{POLineID: p.id, QtyReceived: p.qty})
		}
		res, err := r.svc.ReceivePurchaseOrder(ctx, r.actor, req)
		if err != nil {
			return err
		}
		printPurchaseOrder(r.out, res.PurchaseOrder)

	case "transition":
		if len(args) != 4 {
			return usageErr("transition <procurement_request|purchase_order> <id> <status>")
		}
		id, err := atoi("id", args[2])
		if err != nil {
			return err
		}
		res, err := r.svc.TransitionDocument(ctx, r.actor, app.TransitionRequest{Document: args[1], ID: id, Status: args[3]})
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s %d is now %s\n", res.Document, res.ID, res.Status)

	case "can-transition":
		if len(args) != 4 {
			return usageErr("can-transition <procurement_request|purchase_order> <current> <next>")
		}
		res, err := r.svc.ValidateTransition(ctx, app.ValidateTransitionRequest{Document: args[1], Current: args[2], Next: args[3]})
		if err != nil {
			return err
		}
		if res.Allowed {
			fmt.Fprintln(r.out, "allowed")
		} else {
			fmt.Fprintf(r.out, "not allowed: %s\n", res.Reason)
		}

	case "show-pr":
		if len(args) != 2 {
			return usageErr("show-pr <id>")
		}
		id, err := atoi("id", args[1])
		if err != nil {
			return err
		}
		res, err := r.svc.GetProcurement(ctx, id)
		if err != nil {
			return err
		}
		printProcurement(r.out, res.Procurement)

	case "show-po":
		if len(args) != 2 {
			return usageErr("show-po <id>")
		}
		id, err := atoi("id", args[1])
		if err != nil {
			return err
		}
		res, err := r.svc.GetPurchaseOrder(ctx, id)
		if err != nil {
			return err
		}
		printPurchaseOrder(r.out, res.PurchaseOrder)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func (r *Runner) printCreated(res *app.ProcurementResult, nothing string) {
	if !res.Created {
		fmt.Fprintln(r.out, nothing)
		return
	}
	printProcurement(r.out, res.Procurement)
}

func usageErr(form string) error {
	return fmt.Errorf("usage: %s", form)
}

func atoi(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, s)
	}
	return n, nil
}

type linePair struct {
	id  int
	qty decimal.Decimal
}

// parsePairs reads "line_id=qty" arguments.
func parsePairs(args []string) ([]linePair, error) {
	out := make([]linePair, 0, len(args))
	for _, a := range args {
		idStr, qtyStr, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %q: want line_id=qty", a)
		}
		id, err := atoi("line id", idStr)
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(qtyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", a, err)
		}
		out = append(out, linePair{id: id, qty: qty})
	}
	return out, nil
}
