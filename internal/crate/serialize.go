package crate

import (
	"context"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/form"
	"github.com/starford/metacrate/internal/models"
	"github.com/starford/metacrate/internal/storage"
	"github.com/starford/metacrate/internal/taxonomy"
)

// reservedProps are file-node properties set by the serializer itself; form
// fields never overwrite them.
var reservedProps = map[string]struct{}{
	"@id": {}, "@type": {}, "name": {}, "contentSize": {}, "dateCreated": {}, "dateModified": {},
	"encodingFormat": {}, "license": {}, "author": {}, "title": {},
}

// ContentReader reads file content for size computation.
type ContentReader interface {
	Read(path string) ([]byte, error)
}

// Serializer builds RO-Crate documents from workspace state.
type Serializer struct {
	vocab    Vocabulary
	files    ContentReader
	taxonomy *taxonomy.Taxonomy
}

// NewSerializer returns a Serializer. Tags are resolved against tx.
func NewSerializer(vocab Vocabulary, files ContentReader, tx *taxonomy.Taxonomy) *Serializer {
	return &Serializer{vocab: vocab, files: files, taxonomy: tx}
}

// Keywords returns every tag of tx whose persisted selection is exactly
// true, in catalog order. Absent, null, false and non-boolean values are
// all excluded.
func Keywords(tx *taxonomy.Taxonomy, selections map[string]any) []string {
	out := []string{}
	for _, tag := range tx.AllTags() {
		if v, ok := selections[tag]; ok && v == true {
			out = append(out, tag)
		}
	}
	return out
}

// ToGraph builds the document for a workspace snapshot. fields are the form
// fields in render order, selections the persisted tag values keyed by tag
// name, entries the recursive scan of the workspace. It only reads: file
// contents for their size and the context vocabulary. A vocabulary failure
// aborts the export.
func (s *Serializer) ToGraph(ctx context.Context, fields []form.Field, selections map[string]any, entries []models.FileEntry) (*Document, error) {
	keywords := Keywords(s.taxonomy, selections)

	terms, err := s.vocab.Terms(ctx)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(fields))
	newItems := orderedmap.New[string, string]()
	var extras []form.Field
	for _, f := range fields {
		values[f.Name] = f.Value
		if f.Value == "" || f.Name == form.FieldLicenseURL || f.Name == form.FieldCreator {
			continue
		}
		_, known := terms[f.Name]
		if !known {
			newItems.Set(f.Name, f.Name)
		}
		if _, reserved := reservedProps[f.Name]; !reserved {
			extras = append(extras, f)
		}
	}

	creator := strings.TrimSpace(values[form.FieldCreator])
	personID := UnknownCreator
	if creator == "" {
		creator = UnknownCreator
	} else {
		personID, _, _ = strings.Cut(creator, " ")
	}
	personRef := ref("#" + personID)

	license := strings.TrimSpace(values[form.FieldLicenseURL])
	if license == "" {
		license = DefaultLicense
	}
	title := values[form.FieldTitle]
	if title == "" {
		title = DefaultTitle
	}

	descriptor := Node{
		"@id":        DescriptorID,
		"@type":      "CreativeWork",
		"conformsTo": ref(SpecID),
		"about":      ref(RootID),
		"keywords":   keywords,
	}

	parts := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, ref(EntryID(e)))
	}
	root := Node{
		"@id":     RootID,
		"@type":   "Dataset",
		"name":    title,
		"license": ref(license),
		"hasPart": parts,
	}

	var folders, files []Node
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, &apperr.ScanError{Path: e.Path, Err: err}
		}
		if e.IsDir() {
			folders = append(folders, folderNode(e, entries))
			continue
		}
		content, err := s.files.Read(e.Path)
		if err != nil {
			return nil, &apperr.ScanError{Path: e.Path, Err: err}
		}
		n := Node{
			"@id":            EntryID(e),
			"@type":          InferType(e),
			"name":           e.Name,
			"contentSize":    len(content),
			"dateCreated":    timestamp(e.CreatedAt),
			"dateModified":   timestamp(e.ModifiedAt),
			"encodingFormat": encodingOf(e),
			"license":        ref(license),
			"title":          title,
			"author":         personRef,
		}
		for _, f := range extras {
			n[f.Name] = f.Value
		}
		files = append(files, n)
	}

	person := Node{
		"@id":   "#" + personID,
		"@type": "Person",
		"name":  creator,
	}

	graph := make([]Node, 0, 3+len(folders)+len(files))
	graph = append(graph, descriptor, root)
	graph = append(graph, folders...)
	graph = append(graph, files...)
	graph = append(graph, person)

	var docContext any = s.vocab.URL()
	if newItems.Len() > 0 {
		docContext = []any{s.vocab.URL(), newItems}
	}
	return &Document{Context: docContext, Graph: graph}, nil
}

// folderNode describes directory d. hasPart lists every entry below d and
// is omitted when there is none.
func folderNode(d models.FileEntry, entries []models.FileEntry) Node {
	n := Node{
		"@id":   EntryID(d),
		"@type": InferType(d),
		"name":  d.Name,
	}
	prefix := d.Path + "/"
	var parts []map[string]any
	for _, e := range entries {
		if strings.HasPrefix(e.Path, prefix) {
			parts = append(parts, ref(EntryID(e)))
		}
	}
	if len(parts) > 0 {
		n["hasPart"] = parts
	}
	return n
}

func encodingOf(e models.FileEntry) string {
	if e.Type == models.TypeNotebook {
		return storage.NotebookMimeType
	}
	return e.MimeType
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
