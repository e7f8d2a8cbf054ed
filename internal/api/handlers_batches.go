package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleBatch reports on a recent batch. Reports expire after BATCH_TTL.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	batch := s.processor.GetBatch(chi.URLParam(r, "batchID"))
	if batch == nil {
		jsonError(w, "batch not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batch.Snapshot())
}
