package web

import (
	"net/http"

	"inventory-planner/internal/app"
	"inventory-planner/internal/core"
)

// writeProcurementResult answers 201 with the new request, or 200 with
// created=false when the generator found nothing to order.
func writeProcurementResult(w http.ResponseWriter, res *app.ProcurementResult) {
	if !res.Created {
		writeJSON(w, res)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// apiGenerateRopProcurement handles POST /api/procurements/rop.
func (h *Handler) apiGenerateRopProcurement(w http.ResponseWriter, r *http.Request) {
	var req app.RopProcurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.GenerateRopProcurement(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeProcurementResult(w, res)
}

// apiGenerateSalesOrderProcurement handles POST /api/procurements/sales-order.
func (h *Handler) apiGenerateSalesOrderProcurement(w http.ResponseWriter, r *http.Request) {
	var req app.SalesOrderProcurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.GenerateSalesOrderProcurement(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeProcurementResult(w, res)
}

// apiCreateManualProcurement handles POST /api/procurements.
func (h *Handler) apiCreateManualProcurement(w http.ResponseWriter, r *http.Request) {
	var req app.ManualProcurementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.CreateManualProcurement(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeProcurementResult(w, res)
}

func (h *Handler) apiGetProcurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetProcurement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Procurement)
}

// apiApproveProcurement handles POST /api/procurements/{id}/approve.
// An empty body approves every line at its requested quantity.
func (h *Handler) apiApproveProcurement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.ApproveProcurementRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.ProcurementID = id

	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.ApproveProcurement(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Procurement)
}

// apiTransitionProcurement handles POST /api/procurements/{id}/transition.
func (h *Handler) apiTransitionProcurement(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, core.DocumentProcurement)
}

// apiCreatePurchaseOrder handles POST /api/procurements/{id}/purchase-order.
func (h *Handler) apiCreatePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.CreatePurchaseOrderRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	req.ProcurementID = id

	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.CreatePurchaseOrder(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res.PurchaseOrder)
}

// transition applies a status change to the document named in the path.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, doc core.DocumentKind) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.TransitionDocument(r.Context(), actor, app.TransitionRequest{
		Document: string(doc),
		ID:       id,
		Status:   body.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
