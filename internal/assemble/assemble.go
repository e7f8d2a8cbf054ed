package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/dgallion1/formfill/internal/pdfdoc"
)

// ErrAssemblyFailure means a generated page could not be reopened. The whole
// batch is abandoned; nothing is salvaged.
var ErrAssemblyFailure = errors.New("assembly failure")

// ErrNoPages means there was nothing to assemble.
var ErrNoPages = errors.New("no pages to assemble")

// PageError identifies the page that broke assembly.
type PageError struct {
	Index int
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%v: page %d: %v", ErrAssemblyFailure, e.Index+1, e.Err)
}

func (e *PageError) Unwrap() []error {
	return []error{ErrAssemblyFailure, e.Err}
}

// Assembler concatenates single-page documents in order.
type Assembler struct{}

func New() *Assembler {
	return &Assembler{}
}

// Assemble validates every page, then writes them as one document to w. No
// byte reaches w unless every page opened cleanly.
func (a *Assembler) Assemble(w io.Writer, pages ...[]byte) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	readers := make([]io.ReadSeeker, len(pages))
	for i, p := range pages {
		if len(p) == 0 {
			return &PageError{Index: i, Err: errors.New("empty buffer")}
		}
		if err := api.Validate(bytes.NewReader(p), pdfdoc.Config()); err != nil {
			return &PageError{Index: i, Err: err}
		}
		readers[i] = bytes.NewReader(p)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, pdfdoc.Config()); err != nil {
		return fmt.Errorf("%w: merge: %v", ErrAssemblyFailure, err)
	}
	doc, err := pdfdoc.Normalize(out.Bytes(), pages...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailure, err)
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in a document.
func PageCount(data []byte) (int, error) {
	return pdfdoc.PageCount(data)
}
