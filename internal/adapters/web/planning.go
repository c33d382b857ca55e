package web

import (
	"net/http"

	"inventory-planner/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiComputeMetrics handles GET /api/items/{kind}/{id}/metrics.
func (h *Handler) apiComputeMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.svc.ComputeMetrics(r.Context(), app.ItemRequest{Kind: chi.URLParam(r, "kind"), ID: id})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Metrics)
}

// apiDetectBelowROP handles GET /api/reorders. Read-only; no notification is raised.
func (h *Handler) apiDetectBelowROP(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DetectBelowROP(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Report)
}

// apiScanReorders handles POST /api/reorders/scan.
func (h *Handler) apiScanReorders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	res, err := h.svc.ScanReorders(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res.Report)
}

// apiValidateTransition handles POST /api/transitions/validate.
func (h *Handler) apiValidateTransition(w http.ResponseWriter, r *http.Request) {
	var req app.ValidateTransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ValidateTransition(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
