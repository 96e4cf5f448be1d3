// Package form models the editable metadata form: field descriptors grouped
// under headers, and the schematic describing that layout.
package form

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/metacrate/internal/apperr"
)

// RequiredHeader is the reserved header whose field list is always the
// built-in required list.
const RequiredHeader = "Required items"

// OptionalHeader is the header of the default optional fields.
const OptionalHeader = "Optional items"

// SchematicFile is the file name schematics are exported to.
const SchematicFile = "metadata-schematic.json"

// Field names with dedicated meaning in the export.
const (
	FieldTitle      = "title"
	FieldCreator    = "creator"
	FieldLicenseURL = "license_url"
)

// RequiredFields returns the built-in required field list.
func RequiredFields() []string {
	return []string{FieldTitle, FieldCreator, FieldLicenseURL}
}

func defaultOptionalFields() []string {
	return []string{"description", "version", "citation", "project", "funding"}
}

// Schematic maps header names to ordered field names. Header order is kept
// through JSON encoding.
type Schematic struct {
	m *orderedmap.OrderedMap[string, []string]
}

// NewSchematic returns an empty schematic.
func NewSchematic() *Schematic {
	return &Schematic{m: orderedmap.New[string, []string]()}
}

// DefaultSchematic returns the built-in layout.
func DefaultSchematic() *Schematic {
	s := NewSchematic()
	s.Set(RequiredHeader, RequiredFields())
	s.Set(OptionalHeader, defaultOptionalFields())
	return s
}

// Set assigns the field list of header, appending the header if new.
func (s *Schematic) Set(header string, fields []string) {
	if fields == nil {
		fields = []string{}
	}
	s.m.Set(header, slices.Clone(fields))
}

// Get returns the field list of header.
func (s *Schematic) Get(header string) ([]string, bool) {
	v, ok := s.m.Get(header)
	return slices.Clone(v), ok
}

// Headers returns headers in order.
func (s *Schematic) Headers() []string {
	out := make([]string, 0, s.m.Len())
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

// Len returns the number of headers.
func (s *Schematic) Len() int { return s.m.Len() }

// Clone returns a deep copy.
func (s *Schematic) Clone() *Schematic {
	c := NewSchematic()
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		c.Set(p.Key, p.Value)
	}
	return c
}

// MarshalJSON encodes the schematic as an object in header order.
func (s *Schematic) MarshalJSON() ([]byte, error) {
	return s.m.MarshalJSON()
}

// UnmarshalJSON decodes an object of header -> field-name arrays.
func (s *Schematic) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, []string]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	s.m = m
	return nil
}

// Encode renders the schematic as the exported file: 2-space indentation
// and a trailing newline.
func (s *Schematic) Encode() ([]byte, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("form: encode schematic: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("form: indent schematic: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Validate checks headers and field names are non-empty and that no field
// name appears twice across the schematic.
func (s *Schematic) Validate() error {
	seen := make(map[string]string)
	for p := s.m.Oldest(); p != nil; p = p.Next() {
		header := p.Key
		if err := validation.Validate(header, validation.Required); err != nil {
			return fmt.Errorf("header: %w", err)
		}
		if err := validation.Validate(p.Value, validation.Each(validation.Required)); err != nil {
			return fmt.Errorf("%s: %w", header, err)
		}
		for _, name := range p.Value {
			if prev, dup := seen[name]; dup {
				return fmt.Errorf("field %q listed under both %q and %q", name, prev, header)
			}
			seen[name] = header
		}
	}
	return nil
}

// ParseSchematic decodes an imported schematic file.
func ParseSchematic(data []byte) (*Schematic, error) {
	s := NewSchematic()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, &apperr.ParseError{Reason: "invalid schematic JSON", Err: err}
	}
	return s, nil
}

// ExportSchematic walks the registry's groups in order and collects each
// header's field names. An empty registry yields an empty schematic.
func ExportSchematic(r *Registry) *Schematic {
	s := NewSchematic()
	for _, g := range r.Groups() {
		names := make([]string, 0, len(g.Fields))
		for _, f := range g.Fields {
			names = append(names, f.Name)
		}
		s.Set(g.Header, names)
	}
	return s
}

// ImportSchematic validates an incoming schematic and returns the layout to
// activate: a copy of in whose RequiredHeader entry is the built-in required
// list. A missing RequiredHeader is inserted first.
func ImportSchematic(in *Schematic) (*Schematic, error) {
	if in == nil || in.m == nil {
		return nil, &apperr.ParseError{Reason: "empty schematic"}
	}
	required := make(map[string]struct{})
	for _, name := range RequiredFields() {
		required[name] = struct{}{}
	}

	out := NewSchematic()
	if _, ok := in.m.Get(RequiredHeader); !ok {
		out.Set(RequiredHeader, RequiredFields())
	}
	for p := in.m.Oldest(); p != nil; p = p.Next() {
		if p.Key == RequiredHeader {
			out.Set(RequiredHeader, RequiredFields())
			continue
		}
		// Built-in required fields belong to RequiredHeader only.
		fields := slices.DeleteFunc(slices.Clone(p.Value), func(name string) bool {
			_, ok := required[name]
			return ok
		})
		out.Set(p.Key, fields)
	}
	if err := out.Validate(); err != nil {
		return nil, &apperr.ParseError{Reason: "invalid schematic", Err: err}
	}
	return out, nil
}
