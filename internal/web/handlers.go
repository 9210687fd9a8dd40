package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/datakit/salespipe/internal/logging"
	"github.com/datakit/salespipe/internal/warehouse"
)

// healthStatus is the JSON body of GET /healthz.
type healthStatus struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

// handleHealth reports reachability of the warehouse and the object store.
// Degraded dependencies turn the overall status to "unhealthy" with a 503,
// which is what the container orchestrator keys restarts on.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := healthStatus{
		Status:    "ok",
		Checks:    map[string]string{"warehouse": "ok", "object_store": "ok"},
		CheckedAt: time.Now().UTC(),
	}

	if err := s.dbPing.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["warehouse"] = err.Error()
	}
	if err := s.obPing.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["object_store"] = err.Error()
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}

// maxRunsLimit caps how many audit rows one request may ask for. It must
// stay in step with the cap RecentRuns applies on the query side.
const maxRunsLimit = 500

// handleListRuns returns the audit trail, newest first. Accepts ?limit=N
// up to 500; larger values are capped, not rejected.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxRunsLimit {
			n = maxRunsLimit
		}
		limit = n
	}

	runs, err := s.history.RecentRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "could not read run history")
		return
	}
	if runs == nil {
		// Empty history serializes as [] rather than null.
		runs = []warehouse.RunRecord{}
	}
	respondJSON(w, http.StatusOK, runs)
}

// triggerResponse is the JSON body of POST /api/runs.
type triggerResponse struct {
	RunID        int64  `json:"run_id,omitempty"`
	RunKey       string `json:"run_key"`
	ObjectKey    string `json:"object_key,omitempty"`
	NoOp         bool   `json:"no_op"`
	RowsInserted int    `json:"rows_inserted"`
	RowsUpdated  int    `json:"rows_updated"`
	RowsSkipped  int    `json:"rows_skipped"`
}

// handleTriggerRun starts one pipeline run for the next pending batch.
// Runs are serialized; concurrent triggers queue behind the active one.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	s.triggerMu.Lock()
	defer s.triggerMu.Unlock()

	res, err := s.trigger.Run(r.Context(), r.URL.Query().Get("run_key"))
	if err != nil {
		logging.FromContext(r.Context()).Error("manual run failed", "error", err)
		respondError(w, r, http.StatusInternalServerError, "pipeline run failed: "+err.Error())
		return
	}

	code := http.StatusOK
	if !res.NoOp {
		code = http.StatusCreated
	}
	respondJSON(w, code, triggerResponse{
		RunID:        res.RunID,
		RunKey:       res.RunKey,
		ObjectKey:    res.ObjectKey,
		NoOp:         res.NoOp,
		RowsInserted: res.RowsInserted,
		RowsUpdated:  res.RowsUpdated,
		RowsSkipped:  res.RowsSkipped,
	})
}
