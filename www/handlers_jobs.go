package www

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hairops/dispatch"
	"hairops/optimizer"
	"hairops/store"
)

func (h *Handlers) apiListJobs(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	jobs, err := h.engine.DB().ListJobs(state, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, jobs)
}

func (h *Handlers) apiGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.engine.DB().GetJob(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, job)
}

func (h *Handlers) apiJobHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.engine.DB().ListJobHistory(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, history)
}

func (h *Handlers) apiJobSolutions(w http.ResponseWriter, r *http.Request) {
	sols, err := h.engine.DB().ListSolutionsForJob(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, sols)
}

func (h *Handlers) apiGetSolution(w http.ResponseWriter, r *http.Request) {
	sol, err := h.engine.DB().GetSolution(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, "not found", http.StatusNotFound)
		return
	}
	h.jsonOK(w, sol)
}

func (h *Handlers) apiCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ZoneID        *string  `json:"zone_id"`
		ProviderID    string   `json:"provider_id"`
		VehicleID     string   `json:"vehicle_id"`
		HorizonLength int      `json:"horizon_length"`
		ClientIDs     []string `json:"client_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &store.Job{
		ZoneID:        req.ZoneID,
		ProviderID:    req.ProviderID,
		VehicleID:     req.VehicleID,
		HorizonLength: req.HorizonLength,
	}
	if err := h.engine.Dispatcher().CreateJob(job, req.ClientIDs); err != nil {
		var verr *dispatch.ValidationError
		if errors.As(err, &verr) {
			h.jsonError(w, verr.Detail, http.StatusUnprocessableEntity)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, job)
}

func (h *Handlers) apiDispatchJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	iterations, err := h.engine.Dispatcher().Dispatch(jobID, h.getUsername(r))
	if err != nil {
		var verr *dispatch.ValidationError
		var dfe *dispatch.DispatchFailedError
		switch {
		case errors.As(err, &verr):
			h.jsonError(w, verr.Detail, http.StatusUnprocessableEntity)
		case errors.Is(err, dispatch.ErrInvalidState):
			h.jsonError(w, "job is not pending", http.StatusConflict)
		case errors.As(err, &dfe):
			h.jsonError(w, dfe.Error(), http.StatusBadGateway)
		case errors.Is(err, sql.ErrNoRows):
			h.jsonError(w, "not found", http.StatusNotFound)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.jsonOK(w, map[string]any{
		"job_id":     jobID,
		"state":      dispatch.StateProcessing,
		"iterations": iterations,
	})
}

func (h *Handlers) apiRejectJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		req.Reason = "rejected by operator"
	}
	if err := h.engine.Dispatcher().Reject(jobID, req.Reason); err != nil {
		if errors.Is(err, dispatch.ErrInvalidState) {
			h.jsonError(w, "job is already terminal", http.StatusConflict)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]string{"job_id": jobID, "state": dispatch.StateRejected})
}

func (h *Handlers) apiDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if err := h.engine.DB().DeleteJob(jobID); err != nil {
		h.jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	h.engine.DB().AppendAudit("job", jobID, "deleted", "", "", h.getUsername(r))
	h.jsonOK(w, map[string]string{"status": "deleted"})
}

// apiSolutionCallback receives the optimizer's asynchronous result. The
// status codes are part of the contract with the optimizer: 422 means the
// payload is malformed and retrying it is pointless, 409 means the job
// already left Processing, 500 means storage failed and a retry may work.
func (h *Handlers) apiSolutionCallback(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	var payload optimizer.CallbackPayload
	if err := decodeJSONLenient(r, &payload); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sol, err := h.engine.Ingestor().Ingest(jobID, &payload)
	if err != nil {
		var verr *dispatch.ValidationError
		var perr *dispatch.PersistenceError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.jsonError(w, "job not found", http.StatusNotFound)
		case errors.As(err, &verr):
			h.jsonError(w, verr.Detail, http.StatusUnprocessableEntity)
		case errors.Is(err, dispatch.ErrInvalidState):
			h.jsonError(w, "job is not processing", http.StatusConflict)
		case errors.As(err, &perr):
			h.jsonError(w, perr.Error(), http.StatusInternalServerError)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	h.jsonOK(w, sol)
}

func (h *Handlers) apiSetVisitCompleted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.jsonError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req struct {
		Completed bool `json:"completed"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.engine.DB().SetVisitCompleted(id, req.Completed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.jsonError(w, "not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"id": id, "completed": req.Completed})
}

func (h *Handlers) apiStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.DB().CountJobsByState()
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, map[string]any{"jobs": counts})
}

func (h *Handlers) apiHealthCheck(w http.ResponseWriter, r *http.Request) {
	optimizerOK := false
	if err := h.engine.Optimizer().Ping(); err == nil {
		optimizerOK = true
	}
	messagingOK := false
	if mc := h.engine.MsgClient(); mc != nil {
		messagingOK = mc.IsConnected()
	}
	h.jsonOK(w, map[string]any{
		"status":    "ok",
		"optimizer": optimizerOK,
		"messaging": messagingOK,
	})
}

func (h *Handlers) apiListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := h.engine.DB().ListAuditLog(limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonOK(w, entries)
}
