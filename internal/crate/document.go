// Package crate converts between workspace metadata and RO-Crate 1.1
// JSON-LD documents.
package crate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/metacrate/internal/apperr"
)

// Well-known identifiers and defaults of the exported document.
const (
	MetadataFile   = "ro-crate-metadata.json"
	DescriptorID   = MetadataFile
	RootID         = "./"
	SpecID         = "https://w3id.org/ro/crate/1.1"
	ContextURL     = "https://w3id.org/ro/crate/1.1/context"
	DefaultLicense = "https://creativecommons.org/publicdomain/zero/1.0/"
	DefaultTitle   = "No title set"
	UnknownCreator = "Unknown"
)

// Node is one entry of @graph.
type Node map[string]any

// ID returns the node's @id, or "" if it has none.
func (n Node) ID() string {
	id, _ := n["@id"].(string)
	return id
}

// Type returns the node's @type as a set of tags.
func (n Node) Type() Type { return typeOf(n) }

// Document is an RO-Crate metadata document. Context is the context URL, or
// a two-element array of the URL and an extension mapping.
type Document struct {
	Context any    `json:"@context"`
	Graph   []Node `json:"@graph"`
}

// Node returns the first node with the given @id.
func (d *Document) Node(id string) (Node, bool) {
	for _, n := range d.Graph {
		if n.ID() == id {
			return n, true
		}
	}
	return nil, false
}

// Encode renders the document as written to ro-crate-metadata.json:
// UTF-8, 2-space indentation, trailing newline.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("crate: encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes an imported document. Invalid JSON, a missing @context or
// @graph, or a graph that does not start with the metadata descriptor yields
// an *apperr.ParseError.
func Parse(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &apperr.ParseError{Reason: "invalid JSON", Err: err}
	}
	rawCtx, ok := top["@context"]
	if !ok {
		return nil, &apperr.ParseError{Reason: "missing @context"}
	}
	rawGraph, ok := top["@graph"]
	if !ok {
		return nil, &apperr.ParseError{Reason: "missing @graph"}
	}

	doc := &Document{}
	if err := json.Unmarshal(rawCtx, &doc.Context); err != nil {
		return nil, &apperr.ParseError{Reason: "invalid @context", Err: err}
	}
	if err := json.Unmarshal(rawGraph, &doc.Graph); err != nil {
		return nil, &apperr.ParseError{Reason: "invalid @graph", Err: err}
	}
	if len(doc.Graph) == 0 {
		return nil, &apperr.ParseError{Reason: "empty @graph"}
	}
	if doc.Graph[0].ID() != DescriptorID {
		return nil, &apperr.ParseError{Reason: "missing metadata descriptor"}
	}
	return doc, nil
}

func ref(id string) map[string]any {
	return map[string]any{"@id": id}
}
