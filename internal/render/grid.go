package render

import (
	"fmt"
	"math"

	"github.com/dgallion1/formfill/internal/layout"
)

// DefaultGridStep is the spacing of calibration lines in millimetres.
const DefaultGridStep = 10

// MinGridStep is the finest spacing accepted, in millimetres.
const MinGridStep = 1

// Grid draws a labelled millimetre grid over the template. Coordinates read
// off this page go straight into a layout file.
func Grid(tpl *Template, ps layout.PageSize, step float64) ([]byte, error) {
	if step < MinGridStep || math.IsNaN(step) {
		return nil, fmt.Errorf("grid step must be at least %v mm, got %v", MinGridStep, step)
	}

	pdf := newDocument(ps)
	if err := drawImage(pdf, tpl, ps); err != nil {
		return nil, err
	}

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(255, 0, 0)
	pdf.SetDrawColor(255, 0, 0)
	pdf.SetLineWidth(0.1)

	for y := 0.0; y < ps.Height; y += step {
		pdf.Line(0, y, ps.Width, y)
		pdf.SetXY(0, y)
		pdf.CellFormat(0, 5, fmt.Sprintf("Y=%g", y), "", 0, "L", false, 0, "")
	}
	for x := 0.0; x < ps.Width; x += step {
		pdf.Line(x, 0, x, ps.Height)
		pdf.SetXY(x, 0)
		pdf.CellFormat(5, 5, fmt.Sprintf("X=%g", x), "", 0, "L", false, 0, "")
	}

	data, err := finish(pdf, tpl)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	return data, nil
}
