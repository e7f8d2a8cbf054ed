package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/formfill/internal/parser"
	"github.com/dgallion1/formfill/internal/pipeline"
	"github.com/dgallion1/formfill/internal/uploads"
)

var (
	errNoFileProvided = errors.New("no file provided")
	errEmptyFilename  = errors.New("empty filename")
)

// Messages shown on the upload form.
const (
	msgNoFile        = "No file selected."
	msgEmptyFilename = "The file has no name."
	msgTooLarge      = "The file is too large."
)

// handleUpload turns an uploaded spreadsheet into the combined PDF. Every
// failure is reported by re-rendering the form with a message.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for multipart overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)

	filename, data, err := s.readUpload(r)
	switch {
	case errors.Is(err, errNoFileProvided):
		s.renderForm(w, http.StatusBadRequest, msgNoFile)
		return
	case errors.Is(err, errEmptyFilename):
		s.renderForm(w, http.StatusBadRequest, msgEmptyFilename)
		return
	case isTooLarge(err):
		s.renderForm(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	case err != nil:
		s.renderForm(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	if !parser.IsSupportedExtension(filename) {
		s.renderForm(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", filepath.Ext(filename)))
		return
	}

	batch := pipeline.NewBatch(filename)
	log := s.log.With("batch_id", batch.ID)

	path, err := s.uploads.Save(batch.ID, filename, data)
	if err != nil {
		log.Error("save upload failed", "error", err)
		s.renderForm(w, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}
	if !s.cfg.KeepUploads {
		defer func() {
			if err := s.uploads.Remove(path); err != nil {
				log.Warn("remove upload failed", "path", path, "error", err)
			}
		}()
	}

	out, err := s.processor.Process(batch, bytes.NewReader(data))
	w.Header().Set("X-Batch-ID", batch.ID)
	if err != nil {
		code := http.StatusInternalServerError
		if pipeline.IsInputError(err) {
			code = http.StatusUnprocessableEntity
		}
		s.renderForm(w, code, "Error processing file: "+err.Error())
		return
	}

	snap := batch.Snapshot()
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": s.cfg.OutputFilename}))
	h.Set("Content-Length", strconv.Itoa(len(out)))
	h.Set("X-Rows-Rendered", strconv.Itoa(snap.Progress.RowsRendered))
	h.Set("X-Rows-Skipped", strconv.Itoa(snap.Progress.RowsSkipped))
	w.Write(out)
}

// readUpload returns the sanitized name and contents of the "file" part.
func (s *Server) readUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil, errNoFileProvided
		}
		return "", nil, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		// A file input submitted with nothing chosen arrives as a part with
		// an empty filename, which the multipart reader stores as a value.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return "", nil, errEmptyFilename
		}
		return "", nil, errNoFileProvided
	}
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		return "", nil, errEmptyFilename
	}
	filename := uploads.SanitizeFilename(header.Filename)

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", nil, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes}
	}
	return filename, data, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
