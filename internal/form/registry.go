package form

// Field is one editable form entry.
type Field struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Required bool   `json:"required"`
}

// Group is a header with the fields rendered beneath it.
type Group struct {
	Header string  `json:"header"`
	Fields []Field `json:"fields"`
}

// ValueFunc looks up the persisted value of a field; ok is false when none
// has been stored.
type ValueFunc func(name string) (value string, ok bool)

// Registry is the in-memory list of field descriptors for the active
// schematic. It is rebuilt, never patched, when the schematic changes.
type Registry struct {
	groups []Group
	index  map[string][2]int // name -> group, field position
}

// NewRegistry builds a registry from a schematic. Values come from lookup;
// fields without a stored value start empty.
func NewRegistry(s *Schematic, lookup ValueFunc) *Registry {
	r := &Registry{index: make(map[string][2]int)}
	for _, header := range s.Headers() {
		names, _ := s.Get(header)
		g := Group{Header: header, Fields: make([]Field, 0, len(names))}
		for _, name := range names {
			if _, dup := r.index[name]; dup {
				continue
			}
			f := Field{Name: name, Required: header == RequiredHeader}
			if lookup != nil {
				if v, ok := lookup(name); ok {
					f.Value = v
				}
			}
			r.index[name] = [2]int{len(r.groups), len(g.Fields)}
			g.Fields = append(g.Fields, f)
		}
		r.groups = append(r.groups, g)
	}
	return r
}

// Groups returns a copy of the groups in render order.
func (r *Registry) Groups() []Group {
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		out[i] = Group{Header: g.Header, Fields: append([]Field(nil), g.Fields...)}
	}
	return out
}

// Fields returns every field in render order.
func (r *Registry) Fields() []Field {
	var out []Field
	for _, g := range r.groups {
		out = append(out, g.Fields...)
	}
	return out
}

// Field returns the field called name.
func (r *Registry) Field(name string) (Field, bool) {
	pos, ok := r.index[name]
	if !ok {
		return Field{}, false
	}
	return r.groups[pos[0]].Fields[pos[1]], true
}

// SetValue updates the value of an existing field. It reports false when the
// field is not part of the form.
func (r *Registry) SetValue(name, value string) bool {
	pos, ok := r.index[name]
	if !ok {
		return false
	}
	r.groups[pos[0]].Fields[pos[1]].Value = value
	return true
}

// MissingRequired returns the names of required fields that are still empty.
func (r *Registry) MissingRequired() []string {
	var out []string
	for _, f := range r.Fields() {
		if f.Required && f.Value == "" {
			out = append(out, f.Name)
		}
	}
	return out
}
