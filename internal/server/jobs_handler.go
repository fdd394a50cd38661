// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cleandoc/internal/database"
	"github.com/cleandoc/internal/logger"
)

// JobsHandler serves GET /api/v1/jobs, the recent cleaning job log.
type JobsHandler struct {
	store *database.JobLogStore
}

// NewJobsHandler builds the job log API handler.
func NewJobsHandler(store *database.JobLogStore) *JobsHandler {
	return &JobsHandler{store: store}
}

func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "job log not available")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	jobs, err := h.store.RecentJobs(limit)
	if err != nil {
		logger.Errorf("[DB] failed to read job log: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read job log")
		return
	}
	if jobs == nil {
		jobs = []database.JobLog{}
	}

	response := map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
