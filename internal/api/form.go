package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/dgallion1/formfill/internal/parser"
)

//go:embed templates/index.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type formData struct {
	ErrorMessage string
	Accept       string
}

func acceptList() string {
	exts := make([]string, 0, len(parser.SupportedExtensions))
	for ext := range parser.SupportedExtensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ",")
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, http.StatusOK, "")
}

// renderForm writes the upload page, optionally with an error message.
func (s *Server) renderForm(w http.ResponseWriter, code int, msg string) {
	var buf bytes.Buffer
	if err := formTemplate.Execute(&buf, formData{ErrorMessage: msg, Accept: acceptList()}); err != nil {
		s.log.Error("render form", "error", err)
		http.Error(w, msg, code)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	buf.WriteTo(w)
}
