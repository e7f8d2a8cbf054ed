package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	l := Default()
	if l.Version != Version {
		t.Errorf("expected version %d, got %d", Version, l.Version)
	}
	ps, err := l.PageSize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Name != "A4" || ps.Width != 210 || ps.Height != 297 {
		t.Errorf("expected A4 210x297, got %+v", ps)
	}
	req := l.Required()
	if len(req) != 1 || req[0].Name != "Nombre completo" {
		t.Fatalf("expected the full name to be the only required field, got %+v", req)
	}
	if got := req[0].Sources(); len(got) != 3 || got[0] != "Nombres" {
		t.Errorf("expected three name columns, got %v", got)
	}
	if got := req[0].RequiredColumns(); len(got) != 1 || got[0] != "Nombres" {
		t.Errorf("expected only the given names to be mandatory, got %v", got)
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	src := `
version: 1
fields:
  - name: Nombre
  - name: RFC
    kind: DIGITS
    width: 13
    pitch: 5
  - name: Sexo
    kind: choice
    options:
      - {value: femenino, x: 1, y: 2}
`
	l, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Page != "A4" {
		t.Errorf("expected default page A4, got %q", l.Page)
	}
	if l.Font.Family != "Helvetica" || l.Font.Size != 10 {
		t.Errorf("expected Helvetica 10, got %+v", l.Font)
	}
	if l.Mark != "X" {
		t.Errorf("expected default mark X, got %q", l.Mark)
	}
	if l.Fields[0].Kind != KindText || l.Fields[0].Height != 10 {
		t.Errorf("expected text field with height 10, got %+v", l.Fields[0])
	}
	if l.Fields[1].Kind != KindDigits || l.Fields[1].Axis != "x" || l.Fields[1].Height != 5 {
		t.Errorf("expected lowercased digits kind on x axis with height 5, got %+v", l.Fields[1])
	}
	if l.Fields[2].Height != 5 {
		t.Errorf("expected choice height 5, got %v", l.Fields[2].Height)
	}
}

func TestParse_Letter(t *testing.T) {
	l, err := Parse([]byte("version: 1\npage: letter\nfields:\n  - name: a\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ps, _ := l.PageSize()
	if ps.Name != "Letter" {
		t.Errorf("expected Letter, got %q", ps.Name)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"version", "version: 2\nfields:\n  - name: a\n", "unsupported layout version"},
		{"page", "version: 1\npage: A3\nfields:\n  - name: a\n", "unsupported page size"},
		{"no fields", "version: 1\n", "no fields"},
		{"no name", "version: 1\nfields:\n  - x: 1\n", "name is required"},
		{"kind", "version: 1\nfields:\n  - name: a\n    kind: barcode\n", "unknown kind"},
		{"width", "version: 1\nfields:\n  - name: a\n    kind: digits\n    pitch: 2\n", "width must be positive"},
		{"pitch", "version: 1\nfields:\n  - name: a\n    kind: digits\n    width: 2\n", "pitch must be positive"},
		{"axis", "version: 1\nfields:\n  - name: a\n    kind: digits\n    width: 2\n    pitch: 2\n    axis: z\n", "axis must be x or y"},
		{"options", "version: 1\nfields:\n  - name: a\n    kind: choice\n", "at least one option"},
		{"unknown key", "version: 1\nfields:\n  - name: a\n    colour: red\n", "decode layout"},
		{"prefix with parts", "version: 1\nfields:\n  - name: a\n    kind: date\n    prefix: 'Fecha: '\n    parts:\n      day: {x: 1, y: 1}\n      month: {x: 2, y: 1}\n      year: {x: 3, y: 1}\n", "prefix cannot be combined"},
		{"requires without required", "version: 1\nfields:\n  - name: a\n    requires: [a]\n", "only valid on a required field"},
		{"requires unknown column", "version: 1\nfields:\n  - name: a\n    columns: [b, c]\n    required: true\n    requires: [d]\n", "not one of its sources"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestField_RequiredColumns(t *testing.T) {
	f := Field{Name: "Nombre", Columns: []string{"Nombres", "Apellido"}, Required: true}
	if got := f.RequiredColumns(); len(got) != 2 {
		t.Errorf("expected every source to be mandatory by default, got %v", got)
	}
	f.Requires = []string{"Nombres"}
	if got := f.RequiredColumns(); len(got) != 1 || got[0] != "Nombres" {
		t.Errorf("expected the explicit list, got %v", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, DefaultYAML(), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Name != "afiliacion" {
		t.Errorf("expected name %q, got %q", "afiliacion", l.Name)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	l, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Fields) != len(Default().Fields) {
		t.Errorf("expected the embedded layout, got %d fields", len(l.Fields))
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
