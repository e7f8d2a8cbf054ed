package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/formfill/internal/record"
	"github.com/xuri/excelize/v2"
)

// XLSXParser reads one sheet of an Excel workbook. Cells are read raw so that
// date cells can be recognised by their number format instead of being
// re-parsed from a locale-dependent display string.
type XLSXParser struct {
	Sheet string
}

func (p *XLSXParser) Parse(r io.Reader) ([]record.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := p.sheetName(f)
	if err != nil {
		return nil, err
	}

	grid, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(grid) == 0 || !hasHeader(grid[0]) {
		return nil, ErrNoHeader
	}

	c := &cellReader{f: f, sheet: sheet, date1904: uses1904(f), dateStyles: make(map[int]bool)}
	lines := make([][]any, 0, len(grid)-1)
	for i, cells := range grid[1:] {
		line := make([]any, len(cells))
		for j, raw := range cells {
			line[j] = c.value(j+1, i+2, raw)
		}
		lines = append(lines, line)
	}
	return buildRows(grid[0], lines), nil
}

func (p *XLSXParser) sheetName(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if p.Sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == p.Sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found", p.Sheet)
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

type cellReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

// value types a raw cell: nil when blank, time.Time for numbers with a date
// format, float64 for other numbers, string otherwise. Text cells that look
// numeric stay text so postal codes keep their leading zeros.
func (c *cellReader) value(col, row int, raw string) any {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	switch typ, _ := c.f.GetCellType(c.sheet, cell); typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		return raw
	}
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if c.isDateCell(cell) {
		if t, err := excelize.ExcelDateToTime(num, c.date1904); err == nil {
			return t
		}
	}
	return num
}

func (c *cellReader) isDateCell(cell string) bool {
	styleID, err := c.f.GetCellStyle(c.sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := c.dateStyles[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := c.f.GetStyle(styleID); err == nil {
		isDate = isDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	c.dateStyles[styleID] = isDate
	return isDate
}

// isDateFormat recognises built-in date formats and custom codes that carry
// a day or year token.
func isDateFormat(numFmt int, custom *string) bool {
	switch {
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 45 && numFmt <= 47,
		numFmt >= 50 && numFmt <= 58:
		return true
	}
	if custom == nil {
		return false
	}
	code := strings.ToLower(stripLiterals(*custom))
	return strings.ContainsAny(code, "dy")
}

// stripLiterals removes quoted text, escaped characters and [bracketed]
// sections (colours, locales) from a number format code.
func stripLiterals(code string) string {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
