// Package httpapi exposes the siteledger service over JSON/HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"siteledger/internal/blob"
	"siteledger/internal/core"
	"siteledger/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Handler routes /api/v1 requests onto a core.Service.
type Handler struct {
	svc     *core.Service
	backups blob.Store
	logger  core.Logger
	mux     *http.ServeMux
	metrics http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithBackupStore enables the /api/v1/backups routes.
func WithBackupStore(store blob.Store) Option {
	return func(h *Handler) { h.backups = store }
}

// WithLogger sets the logger used for unexpected failures.
func WithLogger(logger core.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics serves /metrics from gatherer. A nil gatherer uses the
// default registry.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(h *Handler) {
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		h.metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
}

// NewHandler constructs a handler for svc.
func NewHandler(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: discardLogger{}, mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(h)
	}
	h.routes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusInternalServerError, "service not configured")
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	h.mux.HandleFunc("GET /api/v1/sites", h.listSites)
	h.mux.HandleFunc("POST /api/v1/sites", h.addSite)
	h.mux.HandleFunc("GET /api/v1/sites/{id}", h.getSite)
	h.mux.HandleFunc("POST /api/v1/sites/{id}/progress", h.updateSiteProgress)
	h.mux.HandleFunc("POST /api/v1/sites/{id}/status", h.setSiteStatus)

	h.mux.HandleFunc("GET /api/v1/workers", h.listWorkers)
	h.mux.HandleFunc("POST /api/v1/workers", h.addWorker)
	h.mux.HandleFunc("POST /api/v1/workers/{id}/status", h.setWorkerStatus)

	h.mux.HandleFunc("GET /api/v1/machines", h.listMachines)
	h.mux.HandleFunc("POST /api/v1/machines", h.addMachine)
	h.mux.HandleFunc("POST /api/v1/machines/{id}/usage", h.recordMachineUsage)
	h.mux.HandleFunc("POST /api/v1/machines/{id}/status", h.setMachineStatus)

	h.mux.HandleFunc("GET /api/v1/inventory", h.inventoryOverview)
	h.mux.HandleFunc("POST /api/v1/inventory", h.addInventoryItem)
	h.mux.HandleFunc("POST /api/v1/inventory/{id}/stock", h.updateStock)
	h.mux.HandleFunc("POST /api/v1/inventory/{id}/thresholds", h.setThresholds)
	h.mux.HandleFunc("GET /api/v1/inventory/{id}/movements", h.stockMovements)

	h.mux.HandleFunc("GET /api/v1/requests", h.listRequests)
	h.mux.HandleFunc("POST /api/v1/requests", h.createRequest)
	h.mux.HandleFunc("POST /api/v1/requests/{id}/approve", h.approveRequest)
	h.mux.HandleFunc("POST /api/v1/requests/{id}/reject", h.rejectRequest)
	h.mux.HandleFunc("POST /api/v1/requests/{id}/advance", h.advanceRequest)
	h.mux.HandleFunc("POST /api/v1/requests/{id}/complete", h.completeRequest)

	h.mux.HandleFunc("GET /api/v1/transfers", h.listTransfers)
	h.mux.HandleFunc("POST /api/v1/transfers", h.createTransfer)
	h.mux.HandleFunc("POST /api/v1/transfers/{id}/approve", h.approveTransfer)
	h.mux.HandleFunc("POST /api/v1/transfers/{id}/reject", h.rejectTransfer)
	h.mux.HandleFunc("POST /api/v1/transfers/{id}/advance", h.advanceTransfer)
	h.mux.HandleFunc("POST /api/v1/transfers/{id}/complete", h.completeTransfer)

	h.mux.HandleFunc("GET /api/v1/suppliers", h.listSuppliers)
	h.mux.HandleFunc("POST /api/v1/suppliers", h.addSupplier)
	h.mux.HandleFunc("POST /api/v1/trips", h.scheduleTrip)
	h.mux.HandleFunc("POST /api/v1/trips/{id}/advance", h.advanceTrip)

	h.mux.HandleFunc("GET /api/v1/reports/low-stock", h.lowStock)
	h.mux.HandleFunc("GET /api/v1/reports/site-progress", h.siteProgress)
	h.mux.HandleFunc("GET /api/v1/reports/supplier-trips", h.supplierTrips)
	h.mux.HandleFunc("GET /api/v1/reports/dashboard", h.dashboard)

	h.mux.HandleFunc("GET /api/v1/backups", h.listBackups)
	h.mux.HandleFunc("POST /api/v1/backups", h.createBackup)
	h.mux.HandleFunc("POST /api/v1/backups/restore", h.restoreBackup)
}

type warningPayload struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_id,omitempty"`
}

// respond writes the command outcome under key, plus any non-blocking
// violations the rules engine reported.
func (h *Handler) respond(w http.ResponseWriter, status int, key string, value any, res core.Result, err error) {
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	body := map[string]any{key: value}
	if len(res.Violations) > 0 {
		warnings := make([]warningPayload, 0, len(res.Violations))
		for _, v := range res.Violations {
			warnings = append(warnings, warningPayload{
				Rule:     v.Rule,
				Severity: string(v.Severity),
				Message:  v.Message,
				Entity:   string(v.Entity),
				EntityID: v.EntityID,
			})
		}
		body["warnings"] = warnings
	}
	writeJSON(w, status, body)
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeJSON(w, status, map[string]any{"error": err.Error(), "kind": string(domain.KindOf(err))})
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, blob.ErrExists):
		return http.StatusConflict
	case errors.Is(err, blob.ErrInvalidKey):
		return http.StatusBadRequest
	}
	switch domain.KindOf(err) {
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrInvalidTransition, domain.ErrStaleSiteReference, domain.ErrInsufficientSource, domain.ErrNegativeStock:
		return http.StatusConflict
	case domain.ErrInvalidReference:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
