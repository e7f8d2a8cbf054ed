package api

import (
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/dgallion1/formfill/internal/render"
)

// handleTemplateGrid returns the template with a labelled millimetre grid,
// used to read off coordinates when editing a layout.
func (s *Server) handleTemplateGrid(w http.ResponseWriter, r *http.Request) {
	step := float64(render.DefaultGridStep)
	if v := r.URL.Query().Get("step"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < render.MinGridStep || math.IsNaN(n) {
			jsonError(w, fmt.Sprintf("invalid step %q", v), http.StatusBadRequest)
			return
		}
		step = n
	}

	ps, err := s.processor.Layout().PageSize()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := render.Grid(s.processor.Template(), ps, step)
	if err != nil {
		s.log.Error("grid failed", "error", err)
		jsonError(w, "failed to draw grid", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": "grid.pdf"}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
