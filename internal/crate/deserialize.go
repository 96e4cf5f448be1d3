package crate

import (
	"sort"
	"strings"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/form"
)

// importSkipped are file-node properties describing the file itself rather
// than user-entered metadata.
var importSkipped = map[string]struct{}{
	"@id": {}, "@type": {}, "name": {}, "contentSize": {}, "dateCreated": {}, "dateModified": {},
	"encodingFormat": {}, "author": {},
}

// Imported is the workspace state recovered from a document.
type Imported struct {
	Keywords []string
	Fields   []form.Field
}

// HasKeyword reports whether tag is among the imported keywords.
func (im *Imported) HasKeyword(tag string) bool {
	for _, k := range im.Keywords {
		if k == tag {
			return true
		}
	}
	return false
}

// FromGraph recovers keywords and field values from a parsed document.
// Field values come from the first File or Notebook node, whichever form its
// @type takes; the license reference becomes the license_url field and the
// Person node's name the creator field. Only string values are taken.
func FromGraph(doc *Document) (*Imported, error) {
	if doc == nil || len(doc.Graph) == 0 {
		return nil, &apperr.ParseError{Reason: "empty @graph"}
	}
	descriptor := doc.Graph[0]
	if descriptor.ID() != DescriptorID {
		return nil, &apperr.ParseError{Reason: "missing metadata descriptor"}
	}

	im := &Imported{Keywords: keywordsOf(descriptor["keywords"])}

	values := make(map[string]string)
	var fileSeen, personSeen bool
	for _, n := range doc.Graph {
		t := n.Type()
		switch {
		case !fileSeen && (t.Has("File") || t.Has("Notebook")):
			fileSeen = true
			for prop, v := range n {
				if _, skip := importSkipped[prop]; skip {
					continue
				}
				if prop == "license" {
					if m, ok := v.(map[string]any); ok {
						if id, ok := m["@id"].(string); ok {
							values[form.FieldLicenseURL] = id
						}
					}
					continue
				}
				if s, ok := v.(string); ok {
					values[prop] = s
				}
			}
		case !personSeen && t.Has("Person"):
			personSeen = true
			if name, ok := n["name"].(string); ok {
				values[form.FieldCreator] = name
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		im.Fields = append(im.Fields, form.Field{Name: name, Value: values[name]})
	}
	return im, nil
}

// keywordsOf accepts the array form and the comma-separated string form.
func keywordsOf(v any) []string {
	var out []string
	switch kw := v.(type) {
	case []any:
		for _, item := range kw {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, kw...)
	case string:
		for _, s := range strings.Split(kw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
