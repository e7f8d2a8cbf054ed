package render

import (
	"strings"

	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/record"
)

// Placement is one string drawn left-aligned in a cell whose top-left corner
// is (X, Y). Units are millimetres.
type Placement struct {
	Field  string
	X      float64
	Y      float64
	Height float64
	Text   string
}

// Overlay is the per-row text layer, independent of any template.
type Overlay struct {
	Row        int
	Placements []Placement
}

// BuildOverlay resolves every field of the layout against a row. The only
// error it returns is a *FieldError wrapping ErrMissingRequiredField.
func BuildOverlay(row record.Row, l *layout.Layout) (Overlay, error) {
	for _, f := range l.Required() {
		for _, col := range f.RequiredColumns() {
			if !row.Present(col) {
				return Overlay{}, &FieldError{Row: row.Number, Field: col, Err: ErrMissingRequiredField}
			}
		}
	}

	ov := Overlay{Row: row.Number}
	for _, f := range l.Fields {
		switch f.Kind {
		case layout.KindText:
			ov.Placements = append(ov.Placements, placeText(row, f)...)
		case layout.KindChoice:
			ov.Placements = append(ov.Placements, placeChoice(row, f, l.Mark)...)
		case layout.KindDigits:
			ov.Placements = append(ov.Placements, placeDigits(row, f)...)
		case layout.KindDate:
			ov.Placements = append(ov.Placements, placeDate(row, f)...)
		}
	}
	return ov, nil
}

// Texts returns the drawn strings in order; handy for diagnostics.
func (o Overlay) Texts() []string {
	out := make([]string, len(o.Placements))
	for i, p := range o.Placements {
		out[i] = p.Text
	}
	return out
}

// fieldText joins the formatted source values of a field, skipping blanks.
func fieldText(row record.Row, f layout.Field) string {
	var parts []string
	for _, col := range f.Sources() {
		v, _ := row.Get(col)
		if s := formatValue(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func placeText(row record.Row, f layout.Field) []Placement {
	text := f.Prefix + fieldText(row, f)
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []Placement{{Field: f.Name, X: f.X, Y: f.Y, Height: f.Height, Text: text}}
}

func placeChoice(row record.Row, f layout.Field, mark string) []Placement {
	value := fieldText(row, f)
	if value == "" {
		return nil
	}
	for _, opt := range f.Options {
		if matchOption(value, opt.Value) {
			return []Placement{{Field: f.Name, X: opt.X, Y: opt.Y, Height: f.Height, Text: mark}}
		}
	}
	return nil
}

func placeDigits(row record.Row, f layout.Field) []Placement {
	value := fieldText(row, f)
	if value == "" {
		return nil
	}
	chars := []rune(padDigits(value, f.Width))
	out := make([]Placement, 0, len(chars))
	for i, c := range chars {
		p := Placement{Field: f.Name, X: f.X, Y: f.Y, Height: f.Height, Text: string(c)}
		step := float64(i) * f.Pitch
		if f.Axis == "y" {
			p.Y += step
		} else {
			p.X += step
		}
		out = append(out, p)
	}
	return out
}

func placeDate(row record.Row, f layout.Field) []Placement {
	var v any
	for _, col := range f.Sources() {
		if row.Present(col) {
			v, _ = row.Get(col)
			break
		}
	}
	t, err := parseDate(v)
	if err != nil {
		return nil
	}
	if f.Parts == nil {
		return []Placement{{Field: f.Name, X: f.X, Y: f.Y, Height: f.Height, Text: f.Prefix + t.Format(dateLayout)}}
	}
	return []Placement{
		{Field: f.Name, X: f.Parts.Day.X, Y: f.Parts.Day.Y, Height: f.Height, Text: t.Format("02")},
		{Field: f.Name, X: f.Parts.Month.X, Y: f.Parts.Month.Y, Height: f.Height, Text: t.Format("01")},
		{Field: f.Name, X: f.Parts.Year.X, Y: f.Parts.Year.Y, Height: f.Height, Text: t.Format("2006")},
	}
}
