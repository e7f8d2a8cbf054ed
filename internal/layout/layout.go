package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v2"
)

// Version is the only layout file version this build understands.
const Version = 1

//go:embed default.yaml
var defaultYAML []byte

// Kind selects how a field value is placed on the page.
type Kind string

const (
	KindText   Kind = "text"   // one left-aligned string
	KindChoice Kind = "choice" // mark glyph at the coordinate of the matching option
	KindDigits Kind = "digits" // zero-padded, one character per cell
	KindDate   Kind = "date"   // DD/MM/YYYY, whole or split into parts
)

const (
	defaultFontFamily = "Helvetica"
	defaultFontSize   = 10
	defaultMark       = "X"
	defaultTextHeight = 10
	defaultCellHeight = 5
)

// PageSize is a page format in millimetres.
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

var pageSizes = map[string]PageSize{
	"a4":     {Name: "A4", Width: 210, Height: 297},
	"letter": {Name: "Letter", Width: 215.9, Height: 279.4},
}

// Point is a page coordinate in millimetres from the top-left corner.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Option is one accepted literal of a choice field.
type Option struct {
	Value string  `yaml:"value"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

// DateParts places day, month and year at independent coordinates.
type DateParts struct {
	Day   Point `yaml:"day"`
	Month Point `yaml:"month"`
	Year  Point `yaml:"year"`
}

// Field is one entry of the placement table.
type Field struct {
	Name     string     `yaml:"name"`     // Column header the value is read from
	Columns  []string   `yaml:"columns"`  // Optional: several columns joined with a space
	Kind     Kind       `yaml:"kind"`
	Required bool       `yaml:"required"`
	Requires []string   `yaml:"requires"` // Subset of the sources that must be present when required
	X        float64    `yaml:"x"`
	Y        float64    `yaml:"y"`
	Height   float64    `yaml:"height"`   // Cell height; text is vertically centred in it
	Prefix   string     `yaml:"prefix"`   // Literal label drawn before the value
	Width    int        `yaml:"width"`    // digits: number of cells
	Pitch    float64    `yaml:"pitch"`    // digits: distance between cells
	Axis     string     `yaml:"axis"`     // digits: "x" (default) or "y"
	Options  []Option   `yaml:"options"`  // choice
	Parts    *DateParts `yaml:"parts"`    // date
}

// Sources returns the columns a field reads from.
func (f Field) Sources() []string {
	if len(f.Columns) > 0 {
		return f.Columns
	}
	return []string{f.Name}
}

// RequiredColumns returns the columns that must be present for a required
// field. Without an explicit list every source column is mandatory.
func (f Field) RequiredColumns() []string {
	if len(f.Requires) > 0 {
		return f.Requires
	}
	return f.Sources()
}

// Font is the single font every field is drawn with.
type Font struct {
	Family string  `yaml:"family"`
	Style  string  `yaml:"style"`
	Size   float64 `yaml:"size"`
}

// Layout is the versioned Field Placement table for one template.
type Layout struct {
	Version int     `yaml:"version"`
	Name    string  `yaml:"name"`
	Page    string  `yaml:"page"`
	Font    Font    `yaml:"font"`
	Mark    string  `yaml:"mark"`
	Fields  []Field `yaml:"fields"`
}

// Parse decodes, defaults and validates a YAML layout.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.UnmarshalStrict(data, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	l.applyDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads a layout file from disk.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// LoadOrDefault reads path, or returns the embedded layout when path is empty.
func LoadOrDefault(path string) (*Layout, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns the embedded layout.
func Default() *Layout {
	l, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded layout is invalid: %v", err))
	}
	return l
}

// DefaultYAML returns the embedded layout source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

func (l *Layout) applyDefaults() {
	if l.Page == "" {
		l.Page = "A4"
	}
	if l.Font.Family == "" {
		l.Font.Family = defaultFontFamily
	}
	if l.Font.Size <= 0 {
		l.Font.Size = defaultFontSize
	}
	if l.Mark == "" {
		l.Mark = defaultMark
	}
	for i := range l.Fields {
		f := &l.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		f.Kind = Kind(strings.ToLower(string(f.Kind)))
		if f.Kind == "" {
			f.Kind = KindText
		}
		f.Axis = strings.ToLower(f.Axis)
		if f.Axis == "" {
			f.Axis = "x"
		}
		if f.Height <= 0 {
			switch f.Kind {
			case KindText, KindDate:
				f.Height = defaultTextHeight
			default:
				f.Height = defaultCellHeight
			}
		}
	}
}

// PageSize resolves the page format name.
func (l *Layout) PageSize() (PageSize, error) {
	ps, ok := pageSizes[strings.ToLower(l.Page)]
	if !ok {
		return PageSize{}, fmt.Errorf("unsupported page size %q", l.Page)
	}
	return ps, nil
}

// Validate checks the layout for problems that would make rendering ambiguous.
func (l *Layout) Validate() error {
	if l.Version != Version {
		return fmt.Errorf("unsupported layout version %d (want %d)", l.Version, Version)
	}
	if _, err := l.PageSize(); err != nil {
		return err
	}
	if len(l.Fields) == 0 {
		return errors.New("layout has no fields")
	}
	var errs []error
	for i, f := range l.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("field %d: name is required", i))
			continue
		}
		if len(f.Requires) > 0 {
			if !f.Required {
				errs = append(errs, fmt.Errorf("field %q: requires is only valid on a required field", f.Name))
			}
			for _, col := range f.Requires {
				if !slices.Contains(f.Sources(), col) {
					errs = append(errs, fmt.Errorf("field %q: required column %q is not one of its sources", f.Name, col))
				}
			}
		}
		switch f.Kind {
		case KindText:
		case KindDate:
			if f.Parts != nil && f.Prefix != "" {
				errs = append(errs, fmt.Errorf("field %q: prefix cannot be combined with split date parts", f.Name))
			}
		case KindChoice:
			if len(f.Options) == 0 {
				errs = append(errs, fmt.Errorf("field %q: choice needs at least one option", f.Name))
			}
		case KindDigits:
			if f.Width <= 0 {
				errs = append(errs, fmt.Errorf("field %q: digits width must be positive", f.Name))
			}
			if f.Pitch <= 0 {
				errs = append(errs, fmt.Errorf("field %q: digits pitch must be positive", f.Name))
			}
			if f.Axis != "x" && f.Axis != "y" {
				errs = append(errs, fmt.Errorf("field %q: axis must be x or y", f.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("field %q: unknown kind %q", f.Name, f.Kind))
		}
	}
	return errors.Join(errs...)
}

// Required returns the fields marked mandatory, in table order.
func (l *Layout) Required() []Field {
	var out []Field
	for _, f := range l.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}
