package web

import (
	"net/http"

	"inventory-planner/internal/app"
	"inventory-planner/internal/core"
)

func (h *Handler) apiGetPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetPurchaseOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.PurchaseOrder)
}

// apiReceivePurchaseOrder handles POST /api/purchase-orders/{id}/receipts.
// The whole batch is applied or none of it is.
func (h *Handler) apiReceivePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ReceivePORequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.POID = id

	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.ReceivePurchaseOrder(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.PurchaseOrder)
}

// apiTransitionPurchaseOrder handles POST /api/purchase-orders/{id}/transition.
func (h *Handler) apiTransitionPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, core.DocumentPurchaseOrder)
}
