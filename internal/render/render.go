package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/pdfdoc"
	"github.com/dgallion1/formfill/internal/record"
)

// Fixed document dates keep output byte-identical across runs.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const templateImageName = "template"

// MergedPage is a complete single-page PDF: the template with one row's overlay on top.
type MergedPage struct {
	Row  int
	Data []byte
}

// Render produces the merged page for one row. It holds no state between
// calls and never modifies the template.
func Render(row record.Row, l *layout.Layout, tpl *Template) (MergedPage, error) {
	ov, err := BuildOverlay(row, l)
	if err != nil {
		return MergedPage{}, err
	}
	return Compose(ov, l, tpl)
}

// Compose draws the overlay on a blank page of the layout size and lays it
// over the template. Image templates are drawn full-page underneath; PDF
// templates get the overlay stamped on top of their first page.
func Compose(ov Overlay, l *layout.Layout, tpl *Template) (MergedPage, error) {
	ps, err := l.PageSize()
	if err != nil {
		return MergedPage{}, err
	}

	pdf := newDocument(ps)
	if err := drawImage(pdf, tpl, ps); err != nil {
		return MergedPage{}, err
	}

	pdf.SetFont(l.Font.Family, l.Font.Style, l.Font.Size)
	pdf.SetTextColor(0, 0, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, p := range ov.Placements {
		pdf.SetXY(p.X, p.Y)
		pdf.CellFormat(0, p.Height, tr(p.Text), "", 0, "L", false, 0, "")
	}

	data, err := finish(pdf, tpl)
	if err != nil {
		return MergedPage{}, fmt.Errorf("row %d: %w", ov.Row, err)
	}
	return MergedPage{Row: ov.Row, Data: data}, nil
}

func newDocument(ps layout.PageSize) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: ps.Width, Ht: ps.Height},
	})
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	// One row is one page, whatever the coordinates say.
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()
	return pdf
}

// drawImage paints an image template across the whole page. PDF templates
// are applied later by finish.
func drawImage(pdf *fpdf.Fpdf, tpl *Template, ps layout.PageSize) error {
	switch tpl.kind {
	case TemplatePDF:
		return nil
	case TemplatePNG, TemplateJPEG:
		opts := fpdf.ImageOptions{ImageType: strings.ToUpper(string(tpl.kind))}
		pdf.RegisterImageOptionsReader(templateImageName, opts, tpl.reader())
		pdf.ImageOptions(templateImageName, 0, 0, ps.Width, ps.Height, false, opts, 0, "")
	default:
		return fmt.Errorf("%w: unsupported kind %q", ErrTemplate, tpl.kind)
	}

	if pdf.Err() {
		return fmt.Errorf("%w: %s: %v", ErrTemplate, tpl.name, pdf.Error())
	}
	return nil
}

// finish writes the drawn page and, for PDF templates, stamps it onto the
// template page. Both steps give the same bytes for the same input.
func finish(pdf *fpdf.Fpdf, tpl *Template) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write page: %w", err)
	}
	if tpl.kind != TemplatePDF {
		return buf.Bytes(), nil
	}
	out, err := pdfdoc.Stamp(tpl.page, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplate, tpl.name, err)
	}
	return out, nil
}
