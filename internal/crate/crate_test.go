package crate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/metacrate/internal/apperr"
	"github.com/starford/metacrate/internal/form"
	"github.com/starford/metacrate/internal/models"
	"github.com/starford/metacrate/internal/taxonomy"
)

type memFiles map[string]string

func (m memFiles) Read(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, apperr.ErrNotFound)
	}
	return []byte(s), nil
}

var stamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func file(path string) models.FileEntry {
	return models.FileEntry{Path: path, Name: path, Type: models.TypeFile, CreatedAt: stamp, ModifiedAt: stamp, MimeType: "text/plain"}
}

func dir(path string) models.FileEntry {
	return models.FileEntry{Path: path, Name: path, Type: models.TypeDirectory, CreatedAt: stamp, ModifiedAt: stamp}
}

func vocab() StaticVocabulary {
	return StaticVocabulary{Known: []string{"title", "description", "name", "license"}}
}

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"a.py":              "a.py",
		"sub/dir/file.txt":  "sub/dir/file.txt",
		"my file.txt":       "my%20file.txt",
		"data#1.csv":        "data%231.csv",
		"50%.txt":           "50%25.txt",
		"café.md":      "caf%C3%A9.md",
		"keep-_.!~*'().txt": "keep-_.!~*'().txt",
	}
	for in, want := range cases {
		assert.Equal(t, want, Escape(in), in)
	}
	assert.NotEqual(t, Escape("a b"), Escape(Escape("a b")))
}

func TestEntryID_DirectoryTrailingSlash(t *testing.T) {
	assert.Equal(t, "sub/", EntryID(dir("sub")))
	assert.Equal(t, "my%20dir/", EntryID(dir("my dir")))
	assert.Equal(t, "a.py", EntryID(file("a.py")))
}

func TestInferType(t *testing.T) {
	assert.Equal(t, Type{"Dataset"}, InferType(dir("d")))
	assert.Equal(t, Type{"Notebook", "SoftwareSourceCode"}, InferType(models.FileEntry{Name: "n.ipynb", Type: models.TypeNotebook}))
	assert.Equal(t, Type{"File", "SoftwareSourceCode"}, InferType(file("a.py")))
	assert.Equal(t, Type{"File", "SoftwareSourceCode"}, InferType(file("model.R")))
	assert.Equal(t, Type{"File"}, InferType(file("a.txt")))
	assert.Equal(t, Type{"File"}, InferType(file("A.PY")))
	assert.Equal(t, Type{"File"}, InferType(file("Makefile")))
}

func TestType_MarshalJSON(t *testing.T) {
	one, err := json.Marshal(Type{"File"})
	require.NoError(t, err)
	assert.Equal(t, `"File"`, string(one))

	two, err := json.Marshal(Type{"File", "SoftwareSourceCode"})
	require.NoError(t, err)
	assert.Equal(t, `["File","SoftwareSourceCode"]`, string(two))
}

func TestKeywords_OnlyStrictTrue(t *testing.T) {
	tx := taxonomy.New(taxonomy.Category{Name: "G", Tags: []string{"A", "B", "C", "D"}})
	got := Keywords(tx, map[string]any{"A": true, "B": false, "D": "true"})
	assert.Equal(t, []string{"A"}, got)

	none := Keywords(tx, nil)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestToGraph_EndToEnd(t *testing.T) {
	files := memFiles{"a.py": "print(1)\n", "notes.txt": "hi"}
	s := NewSerializer(vocab(), files, taxonomy.Default())

	fields := []form.Field{
		{Name: form.FieldTitle, Value: "Survey", Required: true},
		{Name: form.FieldCreator, Value: "Jane Doe", Required: true},
		{Name: form.FieldLicenseURL, Value: "", Required: true},
	}
	entries := []models.FileEntry{file("a.py"), file("notes.txt"), dir("sub")}

	doc, err := s.ToGraph(context.Background(), fields, map[string]any{"Dataset": true}, entries)
	require.NoError(t, err)
	require.Len(t, doc.Graph, 6)

	assert.Equal(t, ContextURL, doc.Context)
	assert.Equal(t, DescriptorID, doc.Graph[0].ID())
	assert.Equal(t, []string{"Dataset"}, doc.Graph[0]["keywords"])
	assert.Equal(t, RootID, doc.Graph[1].ID())
	assert.Len(t, doc.Graph[1]["hasPart"], 3)

	sub, ok := doc.Node("sub/")
	require.True(t, ok)
	_, has := sub["hasPart"]
	assert.False(t, has)

	py, ok := doc.Node("a.py")
	require.True(t, ok)
	assert.Equal(t, Type{"File", "SoftwareSourceCode"}, py["@type"])
	assert.Equal(t, 9, py["contentSize"])
	assert.Equal(t, "2024-03-01T12:00:00Z", py["dateModified"])
	assert.Equal(t, map[string]any{"@id": DefaultLicense}, py["license"])
	assert.Equal(t, map[string]any{"@id": "#Jane"}, py["author"])

	person := doc.Graph[5]
	assert.Equal(t, "#Jane", person.ID())
	assert.Equal(t, "Jane Doe", person["name"])
}

func TestToGraph_FolderHasPart(t *testing.T) {
	files := memFiles{"sub/x.txt": "x", "sub/deep/y.txt": "yy"}
	s := NewSerializer(vocab(), files, taxonomy.Default())
	entries := []models.FileEntry{dir("sub"), dir("sub/deep"), file("sub/deep/y.txt"), file("sub/x.txt")}

	doc, err := s.ToGraph(context.Background(), nil, nil, entries)
	require.NoError(t, err)

	sub, _ := doc.Node("sub/")
	assert.Equal(t, []map[string]any{
		{"@id": "sub/deep/"}, {"@id": "sub/deep/y.txt"}, {"@id": "sub/x.txt"},
	}, sub["hasPart"])
	deep, _ := doc.Node("sub/deep/")
	assert.Len(t, deep["hasPart"], 1)
}

func TestToGraph_EscapesIdentifiersOnce(t *testing.T) {
	files := memFiles{"my dir/a b.txt": "ab"}
	s := NewSerializer(vocab(), files, taxonomy.Default())
	entries := []models.FileEntry{dir("my dir"), file("my dir/a b.txt")}

	doc, err := s.ToGraph(context.Background(), nil, nil, entries)
	require.NoError(t, err)

	want := []map[string]any{{"@id": "my%20dir/"}, {"@id": "my%20dir/a%20b.txt"}}
	assert.Equal(t, want, doc.Graph[1]["hasPart"])

	folder, ok := doc.Node("my%20dir/")
	require.True(t, ok)
	assert.Equal(t, want[1:], folder["hasPart"])

	f, ok := doc.Node("my%20dir/a%20b.txt")
	require.True(t, ok)
	assert.Equal(t, 2, f["contentSize"], "content is read from the unescaped path")

	data, err := doc.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "%25")
}

func TestToGraph_Defaults(t *testing.T) {
	s := NewSerializer(vocab(), memFiles{"f.txt": ""}, taxonomy.Default())
	doc, err := s.ToGraph(context.Background(), nil, nil, []models.FileEntry{file("f.txt")})
	require.NoError(t, err)

	person := doc.Graph[len(doc.Graph)-1]
	assert.Equal(t, "#Unknown", person.ID())
	assert.Equal(t, "Unknown", person["name"])

	f, _ := doc.Node("f.txt")
	assert.Equal(t, DefaultTitle, f["title"])
	assert.Equal(t, map[string]any{"@id": DefaultLicense}, f["license"])
	assert.Equal(t, []string{}, doc.Graph[0]["keywords"])
}

func TestToGraph_CustomFieldsExtendContext(t *testing.T) {
	s := NewSerializer(vocab(), memFiles{"f.txt": "1"}, taxonomy.Default())
	fields := []form.Field{
		{Name: form.FieldTitle, Value: "T"},
		{Name: "description", Value: "known term"},
		{Name: "funding", Value: "ERC-123"},
		{Name: "project", Value: ""},
		{Name: form.FieldLicenseURL, Value: "https://example.org/l"},
	}
	doc, err := s.ToGraph(context.Background(), fields, nil, []models.FileEntry{file("f.txt")})
	require.NoError(t, err)

	out, err := doc.Encode()
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, []any{ContextURL, map[string]any{"funding": "funding"}}, raw["@context"])

	f, _ := doc.Node("f.txt")
	assert.Equal(t, "ERC-123", f["funding"])
	assert.Equal(t, "known term", f["description"])
	_, has := f["project"]
	assert.False(t, has)
}

func TestToGraph_ReadFailure(t *testing.T) {
	s := NewSerializer(vocab(), memFiles{}, taxonomy.Default())
	_, err := s.ToGraph(context.Background(), nil, nil, []models.FileEntry{file("gone.txt")})
	var se *apperr.ScanError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "gone.txt", se.Path)
}

func TestRoundTrip(t *testing.T) {
	files := memFiles{"a.py": "x", "b.txt": "y"}
	s := NewSerializer(vocab(), files, taxonomy.Default())
	fields := []form.Field{
		{Name: form.FieldTitle, Value: "Survey"},
		{Name: form.FieldCreator, Value: "Ada Lovelace"},
		{Name: form.FieldLicenseURL, Value: "https://opensource.org/licenses/MIT"},
		{Name: "description", Value: "A dataset"},
		{Name: "funding", Value: "NSF"},
	}
	tags := map[string]any{"Dataset": true, "Machine Learning": true, "Other": false}

	doc, err := s.ToGraph(context.Background(), fields, tags, []models.FileEntry{file("a.py"), file("b.txt")})
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	im, err := FromGraph(parsed)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Dataset", "Machine Learning"}, im.Keywords)
	assert.True(t, im.HasKeyword("Dataset"))
	assert.False(t, im.HasKeyword("Other"))

	got := map[string]string{}
	for _, f := range im.Fields {
		got[f.Name] = f.Value
	}
	for _, f := range fields {
		assert.Equal(t, f.Value, got[f.Name], f.Name)
	}
}

func TestFromGraph_StringTypedFileAndKeywords(t *testing.T) {
	data := []byte(`{
	  "@context": "https://w3id.org/ro/crate/1.1/context",
	  "@graph": [
	    {"@id": "ro-crate-metadata.json", "keywords": "Dataset, Model"},
	    {"@id": "./", "@type": "Dataset"},
	    {"@id": "x.txt", "@type": "File", "title": "T", "contentSize": 3, "license": {"@id": "L"}},
	    {"@id": "y.txt", "@type": "File", "title": "ignored"},
	    {"@id": "#a", "@type": "Person", "name": "A B"}
	  ]
	}`)
	doc, err := Parse(data)
	require.NoError(t, err)
	im, err := FromGraph(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"Dataset", "Model"}, im.Keywords)
	assert.Equal(t, []form.Field{
		{Name: form.FieldCreator, Value: "A B"},
		{Name: form.FieldLicenseURL, Value: "L"},
		{Name: form.FieldTitle, Value: "T"},
	}, im.Fields)
}

func TestParse_Malformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"@graph": []}`,
		`{"@context": "x"}`,
		`{"@context": "x", "@graph": []}`,
		`{"@context": "x", "@graph": [{"@id": "./"}]}`,
	}
	for _, c := range cases {
		_, err := Parse([]byte(c))
		var pe *apperr.ParseError
		assert.True(t, errors.As(err, &pe), c)
	}
}

func TestHTTPVocabulary_FetchAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/ld+json")
		_, _ = w.Write([]byte(`{"@context": {"name": "http://schema.org/name", "title": "http://schema.org/title"}}`))
	}))
	defer srv.Close()

	v, err := NewHTTPVocabulary(srv.URL, srv.Client(), 4)
	require.NoError(t, err)

	terms, err := v.Terms(context.Background())
	require.NoError(t, err)
	assert.Contains(t, terms, "name")
	assert.Contains(t, terms, "title")

	_, err = v.Terms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPVocabulary_FailureAbortsExport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	v, err := NewHTTPVocabulary(srv.URL, srv.Client(), 0)
	require.NoError(t, err)

	s := NewSerializer(v, memFiles{}, taxonomy.Default())
	_, err = s.ToGraph(context.Background(), nil, nil, nil)
	var ne *apperr.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusBadGateway, ne.Status)
}
