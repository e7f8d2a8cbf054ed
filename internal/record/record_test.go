package record

import (
	"testing"
	"time"
)

func TestRow_SetTrimsNames(t *testing.T) {
	r := NewRow(2)
	r.Set("  Nombres ", "Ana")

	v, ok := r.Get("Nombres")
	if !ok {
		t.Fatal("expected trimmed header to resolve")
	}
	if v != "Ana" {
		t.Errorf("expected %q, got %v", "Ana", v)
	}
	if _, ok := r.Get(" Nombres"); !ok {
		t.Error("expected lookup to trim the name as well")
	}
}

func TestRow_NamesKeepOrder(t *testing.T) {
	r := NewRow(2)
	r.Set("b", 1.0)
	r.Set("a", "x")
	r.Set("b", 2.0)

	names := r.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Fatalf("expected [b a], got %v", names)
	}
	if v, _ := r.Get("b"); v != 2.0 {
		t.Errorf("expected overwritten value 2, got %v", v)
	}
}

func TestRow_Present(t *testing.T) {
	r := NewRow(3)
	r.Set("empty", "   ")
	r.Set("nil", nil)
	r.Set("zero", 0.0)
	r.Set("name", "Luis")

	cases := map[string]bool{
		"empty":   false,
		"nil":     false,
		"missing": false,
		"zero":    true,
		"name":    true,
	}
	for name, want := range cases {
		if got := r.Present(name); got != want {
			t.Errorf("Present(%q): expected %v, got %v", name, want, got)
		}
	}
}

func TestRow_Blank(t *testing.T) {
	r := NewRow(4)
	r.Set("a", "")
	r.Set("b", nil)
	r.Set("c", time.Time{})
	if !r.Blank() {
		t.Error("expected row with only blank values to be blank")
	}
	r.Set("d", "x")
	if r.Blank() {
		t.Error("expected row with a value to not be blank")
	}
}

func TestRow_SetIgnoresEmptyName(t *testing.T) {
	r := NewRow(2)
	r.Set("  ", "orphan")
	if r.Len() != 0 {
		t.Errorf("expected empty header to be ignored, got %d columns", r.Len())
	}
}
