package crate

import (
	"encoding/json"
	"path"
	"slices"
	"strings"

	"github.com/starford/metacrate/internal/models"
)

// Type is an RO-Crate @type: a single tag or an ordered pair. A single tag
// is encoded as a JSON string, several as an array.
type Type []string

// MarshalJSON implements json.Marshaler.
func (t Type) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

// Has reports whether tag is one of t's tags.
func (t Type) Has(tag string) bool {
	return slices.Contains(t, tag)
}

var sourceCodeExtensions = map[string]struct{}{
	"py": {}, "R": {}, "jl": {}, "js": {}, "java": {}, "c": {}, "cpp": {}, "h": {}, "hpp": {},
}

// InferType classifies an entry. Extension matching is case-sensitive.
func InferType(e models.FileEntry) Type {
	switch e.Type {
	case models.TypeDirectory:
		return Type{"Dataset"}
	case models.TypeNotebook:
		return Type{"Notebook", "SoftwareSourceCode"}
	}
	name := e.Name
	if name == "" {
		name = path.Base(e.Path)
	}
	if ext := strings.TrimPrefix(path.Ext(name), "."); ext != "" {
		if _, ok := sourceCodeExtensions[ext]; ok {
			return Type{"File", "SoftwareSourceCode"}
		}
	}
	return Type{"File"}
}

// typeOf reads the @type of a decoded node as a set of tags, whichever of
// the string or array forms it uses.
func typeOf(n Node) Type {
	switch v := n["@type"].(type) {
	case string:
		return Type{v}
	case Type:
		return v
	case []string:
		return Type(v)
	case []any:
		var out Type
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
