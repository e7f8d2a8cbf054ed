package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/formfill/internal/record"
)

// ErrNoHeader means the spreadsheet has no header row to name its columns.
var ErrNoHeader = errors.New("spreadsheet has no header row")

// Parser converts a spreadsheet into rows keyed by the trimmed header names.
type Parser interface {
	Parse(r io.Reader) ([]record.Row, error)
}

// Options tune how a spreadsheet is read.
type Options struct {
	Sheet string // XLSX sheet name; empty selects the first sheet
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		return &XLSXParser{Sheet: opts.Sheet}, nil
	case ".csv":
		return &CSVParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// buildRows pairs data lines with the header. Line numbers are 1-based with
// the header on line 1; blank lines are dropped but keep their numbering.
func buildRows(header []string, lines [][]any) []record.Row {
	var rows []record.Row
	for i, line := range lines {
		row := record.NewRow(i + 2)
		for j, name := range header {
			var v any
			if j < len(line) {
				v = line[j]
			}
			row.Set(name, v)
		}
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func hasHeader(header []string) bool {
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			return true
		}
	}
	return false
}
