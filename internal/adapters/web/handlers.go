package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"inventory-planner/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	log       *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log))
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Inventory planning ────────────────────────────────────────────────
		r.Get("/api/items/{kind}/{id}/metrics", h.apiComputeMetrics)
		r.Get("/api/reorders", h.apiDetectBelowROP)
		r.Post("/api/reorders/scan", h.apiScanReorders)

		// ── Procurement requests ──────────────────────────────────────────────
		r.Post("/api/procurements", h.apiCreateManualProcurement)
		r.Post("/api/procurements/rop", h.apiGenerateRopProcurement)
		r.Post("/api/procurements/sales-order", h.apiGenerateSalesOrderProcurement)
		r.Get("/api/procurements/{id}", h.apiGetProcurement)
		r.Post("/api/procurements/{id}/approve", h.apiApproveProcurement)
		r.Post("/api/procurements/{id}/transition", h.apiTransitionProcurement)
		r.Post("/api/procurements/{id}/purchase-order", h.apiCreatePurchaseOrder)

		// ── Purchase orders ───────────────────────────────────────────────────
		r.Get("/api/purchase-orders/{id}", h.apiGetPurchaseOrder)
		r.Post("/api/purchase-orders/{id}/receipts", h.apiReceivePurchaseOrder)
		r.Post("/api/purchase-orders/{id}/transition", h.apiTransitionPurchaseOrder)

		r.Post("/api/transitions/validate", h.apiValidateTransition)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+": must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
