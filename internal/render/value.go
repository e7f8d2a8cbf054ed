package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const dateLayout = "02/01/2006"

// Accepted textual date shapes, tried in order.
var dateInputLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Excel serials outside this range are treated as plain numbers.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// formatValue renders a cell value as display text.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case time.Time:
		return val.Format(dateLayout)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// formatNumber drops the fractional part of integral values so that an age of
// 35 prints as "35" and not "35.0".
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// padDigits left-pads s with '0' to width and keeps the leftmost width characters.
func padDigits(s string, width int) string {
	s = strings.Join(strings.Fields(s), "")
	chars := []rune(s)
	if len(chars) >= width {
		return string(chars[:width])
	}
	return strings.Repeat("0", width-len(chars)) + s
}

// parseDate normalises any supported date representation.
func parseDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, ErrUnparsableValue
		}
		return val, nil
	case float64:
		return fromExcelSerial(val)
	case int:
		return fromExcelSerial(float64(val))
	case int64:
		return fromExcelSerial(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, ErrUnparsableValue
		}
		for _, layout := range dateInputLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromExcelSerial(f)
		}
	}
	return time.Time{}, ErrUnparsableValue
}

func fromExcelSerial(f float64) (time.Time, error) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, ErrUnparsableValue
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparsableValue, err)
	}
	return t, nil
}

// matchOption compares a categorical value against the accepted literals.
func matchOption(value string, literal string) bool {
	return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(literal))
}
