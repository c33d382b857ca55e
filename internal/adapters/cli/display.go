package cli

import (
	"fmt"
	"io"
	"strings"

	"inventory-planner/internal/core"
)

func printMetrics(w io.Writer, m *core.Metrics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  PLANNING METRICS: %s %d\n", m.Item.Kind, m.Item.ID)
	fmt.Fprintln(w, strings.Repeat("=", 62))
	fmt.Fprintf(w, "  %-28s %12.3f\n", "Avg daily demand", m.AvgDailyDemand)
	fmt.Fprintf(w, "  %-28s %12.3f\n", "Max daily demand", m.MaxDailyDemand)
	fmt.Fprintf(w, "  %-28s %12.3f\n", "Annual demand", m.AnnualDemand)
	fmt.Fprintf(w, "  %-28s %12.2f days\n", "Avg lead time", m.AvgLeadTime)
	fmt.Fprintf(w, "  %-28s %12.2f days\n", "Max lead time", m.MaxLeadTime)
	fmt.Fprintf(w, "  %-28s %12s\n", "Ordering cost", m.OrderingCost.StringFixed(2))
	fmt.Fprintf(w, "  %-28s %12s\n", "Holding cost / unit / year", m.HoldingCost.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("-", 62))
	fmt.Fprintf(w, "  %-28s %12d\n", "Safety stock", m.SafetyStock)
	fmt.Fprintf(w, "  %-28s %12d\n", "Reorder point", m.ReorderPoint)
	fmt.Fprintf(w, "  %-28s %12d\n", "EOQ", m.EOQ)
	if m.Defaults.Any() {
		var used []string
		if m.Defaults.Demand {
			used = append(used, "demand")
		}
		if m.Defaults.LeadTime {
			used = append(used, "lead time")
		}
		if m.Defaults.OrderingCost {
			used = append(used, "ordering cost")
		}
		fmt.Fprintf(w, "  defaults used: %s\n", strings.Join(used, ", "))
	}
	fmt.Fprintln(w, strings.Repeat("=", 62))
}

func printReorders(w io.Writer, r *core.ReorderReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "  %-68s\n", "ITEMS AT OR BELOW REORDER POINT")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	if r.Empty() {
		fmt.Fprintln(w, "  Nothing to reorder.")
		fmt.Fprintln(w, strings.Repeat("=", 72))
		return
	}
	fmt.Fprintf(w, "  %-9s %-10s %-24s %10s %6s %6s\n", "KIND", "CODE", "NAME", "STOCK", "ROP", "EOQ")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, group := range [][]core.ReorderCandidate{r.Materials, r.Products} {
		for _, c := range group {
			fmt.Fprintf(w, "  %-9s %-10s %-24s %10s %6d %6d\n",
				c.Item.Ref.Kind, c.Item.Code, truncate(c.Item.Name, 24), c.Item.Stock.String(), c.ReorderPoint, c.EOQ)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 72))
}

func printProcurement(w io.Writer, pr *core.ProcurementRequest) {
	fmt.Fprintf(w, "\nPROCUREMENT REQUEST #%d\n", pr.ID)
	fmt.Fprintf(w, "SOURCE:     %s\n", pr.Source)
	fmt.Fprintf(w, "SUPPLIER:   %d\n", pr.SupplierID)
	fmt.Fprintf(w, "STATUS:     %s\n", pr.Status)
	fmt.Fprintf(w, "PRIORITY:   %s\n", pr.Priority)
	fmt.Fprintf(w, "NEEDED BY:  %s\n", pr.NeededBy.Format("2006-01-02"))
	fmt.Fprintf(w, "TOTAL:      %s\n", pr.TotalCost.StringFixed(2))
	fmt.Fprintln(w, "LINES:")
	for _, l := range pr.Lines {
		approved := "-"
		if l.ApprovedQty != nil {
			approved = l.ApprovedQty.String()
		}
		fmt.Fprintf(w, "  [%d] %s %-4d requested %s approved %s @ %s\n",
			l.ID, l.Item.Kind, l.Item.ID, l.RequestedQty, approved, l.UnitPrice.StringFixed(2))
	}
}

func printPurchaseOrder(w io.Writer, po *core.PurchaseOrder) {
	fmt.Fprintf(w, "\nPURCHASE ORDER #%d (request #%d)\n", po.ID, po.ProcurementID)
	fmt.Fprintf(w, "SUPPLIER:   %d\n", po.SupplierID)
	fmt.Fprintf(w, "STATUS:     %s\n", po.Status)
	fmt.Fprintf(w, "TERMS:      %d days\n", po.PaymentTermsDays)
	fmt.Fprintf(w, "TOTAL:      %s\n", po.TotalCost.StringFixed(2))
	fmt.Fprintln(w, "LINES:")
	for _, l := range po.Lines {
		fmt.Fprintf(w, "  [%d] %s %-4d ordered %s received %s @ %s\n",
			l.ID, l.Item.Kind, l.Item.ID, l.QtyOrdered, l.QtyReceived, l.UnitPrice.StringFixed(2))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
