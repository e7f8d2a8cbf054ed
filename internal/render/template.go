package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/pdfdoc"
)

// TemplateKind is the format of the template asset.
type TemplateKind string

const (
	TemplatePDF  TemplateKind = "pdf"
	TemplatePNG  TemplateKind = "png"
	TemplateJPEG TemplateKind = "jpeg"
)

// Template is the static background of every generated page. It is read-only
// once built; every render reads it through a fresh reader.
type Template struct {
	name  string
	kind  TemplateKind
	data  []byte
	page  []byte // PDF: the first page on its own
	pages int
	// PDF media box of the first page in millimetres; zero for images.
	width, height float64
}

// LoadTemplate reads a template asset from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return NewTemplate(filepath.Base(path), data)
}

// NewTemplate detects the asset format and, for PDFs, counts pages. Only the
// first page of a multi-page PDF is ever used.
func NewTemplate(name string, data []byte) (*Template, error) {
	t := &Template{name: name, data: bytes.Clone(data), pages: 1}
	switch http.DetectContentType(data) {
	case "application/pdf":
		t.kind = TemplatePDF
		n, err := countPages(t.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("%w: %s has no pages", ErrTemplate, name)
		}
		t.pages = n
		t.page = t.data
		if n > 1 {
			if t.page, err = pdfdoc.FirstPage(t.data); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
			}
		}
		if t.width, t.height, err = pdfdoc.FirstPageSize(t.page); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
		}
	case "image/png":
		t.kind = TemplatePNG
	case "image/jpeg":
		t.kind = TemplateJPEG
	default:
		return nil, fmt.Errorf("%w: %s is not a PDF, PNG or JPEG file", ErrTemplate, name)
	}
	return t, nil
}

func (t *Template) Name() string      { return t.name }
func (t *Template) Kind() TemplateKind { return t.kind }

// Pages is the page count of a PDF template (1 for images).
func (t *Template) Pages() int { return t.pages }

// pageSizeTolerance absorbs rounding between points and millimetres.
const pageSizeTolerance = 1.0

// Fits reports whether the template page has the size of ps. Images have no
// physical size and are stretched to the page, so they always fit.
func (t *Template) Fits(ps layout.PageSize) bool {
	if t.kind != TemplatePDF {
		return true
	}
	return math.Abs(t.width-ps.Width) <= pageSizeTolerance &&
		math.Abs(t.height-ps.Height) <= pageSizeTolerance
}

// Size is the first page's media box in millimetres; zero for images.
func (t *Template) Size() (width, height float64) { return t.width, t.height }

// CheckFit logs a warning for every way the template departs from the
// layout page and reports whether it fits. Coordinates are measured on the
// layout page; an overlay stamped on a differently sized PDF page is centred
// on it, so every field shifts.
func CheckFit(log *slog.Logger, tpl *Template, ps layout.PageSize) bool {
	ok := true
	if tpl.pages > 1 {
		log.Warn("template has several pages, only the first is used", "template", tpl.name, "pages", tpl.pages)
	}
	if !tpl.Fits(ps) {
		ok = false
		log.Warn("template page size differs from the layout page, fields will be offset",
			"template", tpl.name,
			"template_mm", fmt.Sprintf("%.1fx%.1f", tpl.width, tpl.height),
			"page", ps.Name,
			"page_mm", fmt.Sprintf("%gx%g", ps.Width, ps.Height))
	}
	return ok
}

func (t *Template) reader() *bytes.Reader {
	return bytes.NewReader(t.data)
}

// countPages opens the document with ledongthuc/pdf, which panics on some
// malformed inputs.
func countPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return r.NumPage(), nil
}
