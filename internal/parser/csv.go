package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/formfill/internal/record"
)

// CSVParser handles CSV files. Every value stays a string.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader) ([]record.Row, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 || !hasHeader(records[0]) {
		return nil, ErrNoHeader
	}

	// First row is headers.
	headers := records[0]
	if len(headers) > 0 {
		headers[0] = trimBOM(headers[0])
	}

	lines := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		line := make([]any, len(rec))
		for i, cell := range rec {
			line[i] = cell
		}
		lines = append(lines, line)
	}
	return buildRows(headers, lines), nil
}

// trimBOM drops the UTF-8 byte order mark spreadsheet tools put on exported CSVs.
func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
