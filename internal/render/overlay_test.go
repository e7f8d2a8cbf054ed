package render

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/formfill/internal/layout"
	"github.com/dgallion1/formfill/internal/record"
)

func testLayout(t *testing.T, src string) *layout.Layout {
	t.Helper()
	l, err := layout.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse layout: %v", err)
	}
	return l
}

func rowOf(number int, kv ...any) record.Row {
	r := record.NewRow(number)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

const digitsLayout = `
version: 1
fields:
  - name: CP
    kind: digits
    width: 5
    pitch: 10
    x: 50
    y: 140
`

func TestBuildOverlay_DigitsPadded(t *testing.T) {
	l := testLayout(t, digitsLayout)
	ov, err := BuildOverlay(rowOf(2, "CP", "123"), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ov.Placements) != 5 {
		t.Fatalf("expected 5 placements, got %d", len(ov.Placements))
	}
	want := []string{"0", "0", "1", "2", "3"}
	for i, p := range ov.Placements {
		if p.Text != want[i] {
			t.Errorf("cell %d: expected %q, got %q", i, want[i], p.Text)
		}
		if p.X != 50+float64(i)*10 || p.Y != 140 {
			t.Errorf("cell %d: expected (%v, 140), got (%v, %v)", i, 50+float64(i)*10, p.X, p.Y)
		}
	}
}

func TestBuildOverlay_DigitsFromNumber(t *testing.T) {
	l := testLayout(t, digitsLayout)
	ov, err := BuildOverlay(rowOf(2, "CP", 6500.0), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ""
	for _, s := range ov.Texts() {
		got += s
	}
	if got != "06500" {
		t.Errorf("expected %q, got %q", "06500", got)
	}
}

func TestBuildOverlay_DigitsVerticalAndTruncated(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: RFC
    kind: digits
    width: 3
    pitch: 4
    axis: y
    x: 10
    y: 20
`)
	ov, err := BuildOverlay(rowOf(2, "RFC", "AB CDE"), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ov.Placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(ov.Placements))
	}
	want := []string{"A", "B", "C"}
	for i, p := range ov.Placements {
		if p.Text != want[i] {
			t.Errorf("cell %d: expected %q, got %q", i, want[i], p.Text)
		}
		if p.X != 10 || p.Y != 20+float64(i)*4 {
			t.Errorf("cell %d: expected (10, %v), got (%v, %v)", i, 20+float64(i)*4, p.X, p.Y)
		}
	}
}

func TestBuildOverlay_DateParts(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: Ingreso
    kind: date
    parts:
      day: {x: 10, y: 5}
      month: {x: 20, y: 5}
      year: {x: 30, y: 5}
`)
	inputs := map[string]any{
		"native":      time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC),
		"iso":         "2024-03-07",
		"iso time":    "2024-03-07 00:00:00",
		"formatted":   "07/03/2024",
		"unpadded":    "7/3/2024",
		"serial":      45358.0,
		"serial text": "45358",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			ov, err := BuildOverlay(rowOf(2, "Ingreso", in), l)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ov.Texts()
			if len(got) != 3 || got[0] != "07" || got[1] != "03" || got[2] != "2024" {
				t.Fatalf("expected [07 03 2024], got %v", got)
			}
			if ov.Placements[1].X != 20 {
				t.Errorf("expected month at x=20, got %v", ov.Placements[1].X)
			}
		})
	}
}

func TestBuildOverlay_DateWhole(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: Ingreso
    kind: date
    prefix: "Fecha: "
    x: 40
    y: 150
`)
	ov, err := BuildOverlay(rowOf(2, "Ingreso", "2024-03-07"), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ov.Texts(); len(got) != 1 || got[0] != "Fecha: 07/03/2024" {
		t.Errorf("expected [Fecha: 07/03/2024], got %v", got)
	}
}

func TestBuildOverlay_DateOmittedSilently(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: Ingreso
    kind: date
    prefix: "Fecha: "
`)
	for name, in := range map[string]any{"garbage": "next tuesday", "blank": "  ", "nil": nil, "negative": -3.0} {
		t.Run(name, func(t *testing.T) {
			ov, err := BuildOverlay(rowOf(2, "Ingreso", in), l)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(ov.Placements) != 0 {
				t.Errorf("expected nothing drawn, got %v", ov.Texts())
			}
		})
	}
	ov, err := BuildOverlay(rowOf(2), l)
	if err != nil || len(ov.Placements) != 0 {
		t.Errorf("expected absent column to draw nothing, got %v, %v", ov.Texts(), err)
	}
}

const choiceLayout = `
version: 1
mark: X
fields:
  - name: Sexo
    kind: choice
    options:
      - {value: femenino, x: 50, y: 80}
      - {value: masculino, x: 80, y: 80}
`

func TestBuildOverlay_ChoiceCaseInsensitive(t *testing.T) {
	l := testLayout(t, choiceLayout)
	ov, err := BuildOverlay(rowOf(2, "Sexo", " MASCULINO "), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ov.Placements) != 1 {
		t.Fatalf("expected 1 mark, got %d", len(ov.Placements))
	}
	p := ov.Placements[0]
	if p.Text != "X" || p.X != 80 || p.Y != 80 {
		t.Errorf("expected X at (80, 80), got %q at (%v, %v)", p.Text, p.X, p.Y)
	}
}

func TestBuildOverlay_ChoiceUnknownValue(t *testing.T) {
	l := testLayout(t, choiceLayout)
	ov, err := BuildOverlay(rowOf(2, "Sexo", "otro"), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ov.Placements) != 0 {
		t.Errorf("expected no mark, got %v", ov.Texts())
	}
}

func TestBuildOverlay_TextJoinsColumns(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: Nombre completo
    columns: [Nombres, Apellido paterno, Apellido materno]
    required: true
    x: 40
    y: 50
  - name: Edad
    prefix: "Edad: "
    x: 40
    y: 110
`)
	row := rowOf(2, "Nombres", "Ana", "Apellido paterno", "López", "Apellido materno", "", "Edad", 35.0)
	ov, err := BuildOverlay(row, l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := ov.Texts()
	if len(got) != 2 {
		t.Fatalf("expected 2 placements, got %v", got)
	}
	if got[0] != "Ana López" {
		t.Errorf("expected %q, got %q", "Ana López", got[0])
	}
	if got[1] != "Edad: 35" {
		t.Errorf("expected %q, got %q", "Edad: 35", got[1])
	}
}

func TestBuildOverlay_MissingRequired(t *testing.T) {
	l := testLayout(t, `
version: 1
fields:
  - name: Nombres
    required: true
  - name: Domicilio
`)
	_, err := BuildOverlay(rowOf(7, "Nombres", "  ", "Domicilio", "Calle 1"), l)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Fatalf("expected ErrMissingRequiredField, got %v", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Row != 7 || fe.Field != "Nombres" {
		t.Errorf("expected row 7 field Nombres, got row %d field %q", fe.Row, fe.Field)
	}
}

func TestBuildOverlay_DefaultLayoutSurnamesOptional(t *testing.T) {
	l := layout.Default()

	ov, err := BuildOverlay(rowOf(2, "Nombres", "Ana", "Apellido paterno", "López", "Apellido materno", " "), l)
	if err != nil {
		t.Fatalf("expected a blank second surname to be accepted, got %v", err)
	}
	if got := ov.Texts(); len(got) == 0 || got[0] != "Ana López" {
		t.Errorf("expected the name without the second surname, got %v", got)
	}

	_, err = BuildOverlay(rowOf(3, "Apellido paterno", "López", "Apellido materno", "Ruiz"), l)
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "Nombres" {
		t.Fatalf("expected a missing Nombres error, got %v", err)
	}
}

func TestBuildOverlay_OptionalTextAbsent(t *testing.T) {
	l := testLayout(t, "version: 1\nfields:\n  - name: Domicilio\n")
	ov, err := BuildOverlay(rowOf(2), l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ov.Placements) != 0 {
		t.Errorf("expected nothing drawn, got %v", ov.Texts())
	}
}
