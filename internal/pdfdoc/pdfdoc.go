// Package pdfdoc holds the pdfcpu operations shared by rendering and
// assembly. Every document it writes goes through Normalize, so equal
// inputs give equal bytes.
package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// mmPerPoint converts PDF user space units to millimetres.
const mmPerPoint = 25.4 / 72

// stampDesc places the stamp at its natural size, centred, unrotated.
const stampDesc = "position:c, scalefactor:1 abs, rotation:0, opacity:1"

func init() {
	// Keep pdfcpu from creating a user config directory on first use.
	api.DisableConfigDir()
}

// Config returns a fresh configuration; pdfcpu API calls mutate the one they get.
func Config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	conf.CreateBookmarks = false
	// The optimizer renames and merges resources while walking maps.
	conf.Optimize = false
	conf.OptimizeBeforeWriting = false
	return conf
}

// PageCount returns the number of pages in a document.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), Config())
}

// FirstPageSize returns the media box of page 1 in millimetres.
func FirstPageSize(data []byte) (w, h float64, err error) {
	dims, err := api.PageDims(bytes.NewReader(data), Config())
	if err != nil {
		return 0, 0, err
	}
	if len(dims) == 0 {
		return 0, 0, fmt.Errorf("document has no pages")
	}
	return dims[0].Width * mmPerPoint, dims[0].Height * mmPerPoint, nil
}

// FirstPage returns data cut down to its first page.
func FirstPage(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &out, []string{"1"}, Config()); err != nil {
		return nil, fmt.Errorf("trim: %w", err)
	}
	return Normalize(out.Bytes(), data)
}

// Stamp draws page 1 of overlay on top of every page of base. Resources of
// the overlay are copied into base in map order, so output is only stable
// when the overlay references a single resource chain, as fpdf pages drawn
// with one font do.
func Stamp(base, overlay []byte) ([]byte, error) {
	wm, err := api.PDFWatermarkForReadSeeker(bytes.NewReader(overlay), 1, stampDesc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(base), &out, nil, wm, Config()); err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}
	return Normalize(out.Bytes(), base, overlay)
}
