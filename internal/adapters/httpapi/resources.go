package httpapi

import (
	"net/http"

	"siteledger/internal/core"
	"siteledger/pkg/domain"

	"github.com/shopspring/decimal"
)

func (h *Handler) listSites(w http.ResponseWriter, r *http.Request) {
	var sites []core.Site
	err := h.svc.Snapshot(r.Context(), func(view core.TransactionView) error {
		sites = view.ListSites()
		return nil
	})
	h.respond(w, http.StatusOK, "sites", sites, core.Result{}, err)
}

func (h *Handler) getSite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var site core.Site
	err := h.svc.Snapshot(r.Context(), func(view core.TransactionView) error {
		found, ok := view.FindSite(id)
		if !ok {
			return domain.NotFound(domain.EntitySite, id)
		}
		site = found
		return nil
	})
	h.respond(w, http.StatusOK, "site", site, core.Result{}, err)
}

func (h *Handler) addSite(w http.ResponseWriter, r *http.Request) {
	var site core.Site
	if !decode(w, r, &site) {
		return
	}
	created, res, err := h.svc.AddSite(r.Context(), site)
	h.respond(w, http.StatusCreated, "site", created, res, err)
}

type progressBody struct {
	Progress int                   `json:"progress"`
	Tasks    []domain.ProgressTask `json:"tasks"`
}

func (h *Handler) updateSiteProgress(w http.ResponseWriter, r *http.Request) {
	var body progressBody
	if !decode(w, r, &body) {
		return
	}
	site, res, err := h.svc.UpdateSiteProgress(r.Context(), r.PathValue("id"), body.Progress, body.Tasks)
	h.respond(w, http.StatusOK, "site", site, res, err)
}

type statusBody struct {
	Status string `json:"status"`
}

func (h *Handler) setSiteStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decode(w, r, &body) {
		return
	}
	site, res, err := h.svc.SetSiteStatus(r.Context(), r.PathValue("id"), domain.SiteStatus(body.Status))
	h.respond(w, http.StatusOK, "site", site, res, err)
}

func (h *Handler) listWorkers(w http.ResponseWriter, r *http.Request) {
	var workers []core.Worker
	err := h.svc.Snapshot(r.Context(), func(view core.TransactionView) error {
		workers = view.ListWorkers()
		return nil
	})
	h.respond(w, http.StatusOK, "workers", workers, core.Result{}, err)
}

func (h *Handler) addWorker(w http.ResponseWriter, r *http.Request) {
	var worker core.Worker
	if !decode(w, r, &worker) {
		return
	}
	created, res, err := h.svc.AddWorker(r.Context(), worker)
	h.respond(w, http.StatusCreated, "worker", created, res, err)
}

func (h *Handler) setWorkerStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decode(w, r, &body) {
		return
	}
	worker, res, err := h.svc.SetWorkerStatus(r.Context(), r.PathValue("id"), domain.WorkerStatus(body.Status))
	h.respond(w, http.StatusOK, "worker", worker, res, err)
}

func (h *Handler) listMachines(w http.ResponseWriter, r *http.Request) {
	var machines []core.Machine
	err := h.svc.Snapshot(r.Context(), func(view core.TransactionView) error {
		machines = view.ListMachines()
		return nil
	})
	h.respond(w, http.StatusOK, "machines", machines, core.Result{}, err)
}

func (h *Handler) addMachine(w http.ResponseWriter, r *http.Request) {
	var machine core.Machine
	if !decode(w, r, &machine) {
		return
	}
	created, res, err := h.svc.AddMachine(r.Context(), machine)
	h.respond(w, http.StatusCreated, "machine", created, res, err)
}

type usageBody struct {
	HoursDelta int  `json:"hours_delta"`
	FuelLevel  *int `json:"fuel_level"`
}

func (h *Handler) recordMachineUsage(w http.ResponseWriter, r *http.Request) {
	var body usageBody
	if !decode(w, r, &body) {
		return
	}
	machine, res, err := h.svc.RecordMachineUsage(r.Context(), r.PathValue("id"), body.HoursDelta, body.FuelLevel)
	h.respond(w, http.StatusOK, "machine", machine, res, err)
}

func (h *Handler) setMachineStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decode(w, r, &body) {
		return
	}
	machine, res, err := h.svc.SetMachineStatus(r.Context(), r.PathValue("id"), domain.MachineStatus(body.Status))
	h.respond(w, http.StatusOK, "machine", machine, res, err)
}

func (h *Handler) inventoryOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.svc.InventoryOverview(r.Context())
	h.respond(w, http.StatusOK, "sites", overview, core.Result{}, err)
}

func (h *Handler) addInventoryItem(w http.ResponseWriter, r *http.Request) {
	var item core.InventoryItem
	if !decode(w, r, &item) {
		return
	}
	created, res, err := h.svc.AddInventoryItem(r.Context(), item)
	h.respond(w, http.StatusCreated, "item", created, res, err)
}

type stockBody struct {
	Level  decimal.Decimal `json:"level"`
	Reason string          `json:"reason"`
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	var body stockBody
	if !decode(w, r, &body) {
		return
	}
	item, res, err := h.svc.UpdateStock(r.Context(), r.PathValue("id"), body.Level, body.Reason)
	h.respond(w, http.StatusOK, "item", item, res, err)
}

type thresholdsBody struct {
	MinStock decimal.Decimal `json:"min_stock"`
	MaxStock decimal.Decimal `json:"max_stock"`
}

func (h *Handler) setThresholds(w http.ResponseWriter, r *http.Request) {
	var body thresholdsBody
	if !decode(w, r, &body) {
		return
	}
	item, res, err := h.svc.SetStockThresholds(r.Context(), r.PathValue("id"), body.MinStock, body.MaxStock)
	h.respond(w, http.StatusOK, "item", item, res, err)
}

func (h *Handler) stockMovements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.svc.StockMovements(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "movements", movements, core.Result{}, err)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := h.svc.ListRequests(r.Context(), core.RequestFilter{
		Status:   domain.RequestStatus(q.Get("status")),
		Priority: domain.Priority(q.Get("priority")),
		SiteID:   q.Get("site"),
		Source:   q.Get("source"),
		Search:   q.Get("q"),
	})
	h.respond(w, http.StatusOK, "requests", requests, core.Result{}, err)
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req core.MaterialRequest
	if !decode(w, r, &req) {
		return
	}
	created, res, err := h.svc.CreateMaterialRequest(r.Context(), req)
	h.respond(w, http.StatusCreated, "request", created, res, err)
}

type decisionBody struct {
	Approver string `json:"approver"`
	Reason   string `json:"reason"`
}

func (h *Handler) approveRequest(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if !decode(w, r, &body) {
		return
	}
	req, res, err := h.svc.ApproveRequest(r.Context(), r.PathValue("id"), body.Approver)
	h.respond(w, http.StatusOK, "request", req, res, err)
}

func (h *Handler) rejectRequest(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if !decode(w, r, &body) {
		return
	}
	req, res, err := h.svc.RejectRequest(r.Context(), r.PathValue("id"), body.Approver, body.Reason)
	h.respond(w, http.StatusOK, "request", req, res, err)
}

func (h *Handler) advanceRequest(w http.ResponseWriter, r *http.Request) {
	req, res, err := h.svc.AdvanceRequest(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "request", req, res, err)
}

func (h *Handler) completeRequest(w http.ResponseWriter, r *http.Request) {
	req, res, err := h.svc.CompleteRequest(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "request", req, res, err)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transfers, err := h.svc.ListTransfers(r.Context(), core.TransferFilter{
		Status:      domain.TransferStatus(q.Get("status")),
		SubjectKind: domain.SubjectKind(q.Get("kind")),
		SiteID:      q.Get("site"),
		Search:      q.Get("q"),
	})
	h.respond(w, http.StatusOK, "transfers", transfers, core.Result{}, err)
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	var transfer core.Transfer
	if !decode(w, r, &transfer) {
		return
	}
	created, res, err := h.svc.CreateTransfer(r.Context(), transfer)
	h.respond(w, http.StatusCreated, "transfer", created, res, err)
}

func (h *Handler) approveTransfer(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if !decode(w, r, &body) {
		return
	}
	transfer, res, err := h.svc.ApproveTransfer(r.Context(), r.PathValue("id"), body.Approver)
	h.respond(w, http.StatusOK, "transfer", transfer, res, err)
}

func (h *Handler) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	var body decisionBody
	if !decode(w, r, &body) {
		return
	}
	transfer, res, err := h.svc.RejectTransfer(r.Context(), r.PathValue("id"), body.Approver, body.Reason)
	h.respond(w, http.StatusOK, "transfer", transfer, res, err)
}

func (h *Handler) advanceTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, res, err := h.svc.AdvanceTransfer(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "transfer", transfer, res, err)
}

func (h *Handler) completeTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, res, err := h.svc.CompleteTransfer(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "transfer", transfer, res, err)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	var suppliers []core.Supplier
	err := h.svc.Snapshot(r.Context(), func(view core.TransactionView) error {
		suppliers = view.ListSuppliers()
		return nil
	})
	h.respond(w, http.StatusOK, "suppliers", suppliers, core.Result{}, err)
}

func (h *Handler) addSupplier(w http.ResponseWriter, r *http.Request) {
	var supplier core.Supplier
	if !decode(w, r, &supplier) {
		return
	}
	created, res, err := h.svc.AddSupplier(r.Context(), supplier)
	h.respond(w, http.StatusCreated, "supplier", created, res, err)
}

func (h *Handler) scheduleTrip(w http.ResponseWriter, r *http.Request) {
	var trip core.Trip
	if !decode(w, r, &trip) {
		return
	}
	created, res, err := h.svc.ScheduleTrip(r.Context(), trip)
	h.respond(w, http.StatusCreated, "trip", created, res, err)
}

func (h *Handler) advanceTrip(w http.ResponseWriter, r *http.Request) {
	trip, res, err := h.svc.AdvanceTrip(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, "trip", trip, res, err)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.LowStockItems(r.Context(), r.URL.Query().Get("site"))
	h.respond(w, http.StatusOK, "items", entries, core.Result{}, err)
}

func (h *Handler) siteProgress(w http.ResponseWriter, r *http.Request) {
	sites, err := h.svc.SiteProgressSummary(r.Context())
	h.respond(w, http.StatusOK, "sites", sites, core.Result{}, err)
}

func (h *Handler) supplierTrips(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.svc.SupplierTripSummary(r.Context())
	h.respond(w, http.StatusOK, "suppliers", suppliers, core.Result{}, err)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.DashboardCounts(r.Context())
	h.respond(w, http.StatusOK, "counts", counts, core.Result{}, err)
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		writeError(w, http.StatusNotFound, "backups not configured")
		return
	}
	backups, err := h.svc.ListBackups(r.Context(), h.backups)
	h.respond(w, http.StatusOK, "backups", backups, core.Result{}, err)
}

func (h *Handler) createBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		writeError(w, http.StatusNotFound, "backups not configured")
		return
	}
	info, err := h.svc.BackupSnapshot(r.Context(), h.backups)
	h.respond(w, http.StatusCreated, "backup", info, core.Result{}, err)
}

type restoreBody struct {
	Key string `json:"key"`
}

func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		writeError(w, http.StatusNotFound, "backups not configured")
		return
	}
	var body restoreBody
	if !decode(w, r, &body) {
		return
	}
	if body.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	res, err := h.svc.RestoreSnapshot(r.Context(), h.backups, body.Key)
	h.respond(w, http.StatusOK, "restored", body.Key, res, err)
}
