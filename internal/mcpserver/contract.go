package mcpserver

// CrateFormatContract describes the document export_crate produces and
// import_crate accepts.
const CrateFormatContract = `# metacrate RO-Crate Contract

Exports follow RO-Crate 1.1 and are written to ro-crate-metadata.json at the
workspace root.

## Graph layout

1. Metadata descriptor: ` + "`" + `@id` + "`" + ` "ro-crate-metadata.json", ` + "`" + `@type` + "`" + ` "CreativeWork".
   ` + "`" + `keywords` + "`" + ` lists every selected tag.
2. Root dataset: ` + "`" + `@id` + "`" + ` "./", ` + "`" + `hasPart` + "`" + ` references every entry of the workspace.
3. One Dataset node per folder (id ends in "/"), listing the entries below it.
4. One node per file. Source files are ["File", "SoftwareSourceCode"],
   notebooks ["Notebook", "SoftwareSourceCode"], anything else "File".
   Each carries title, license and author plus the custom form fields.
5. One Person node for the creator, referenced by every file's author.

## Identifiers

Paths are percent-encoded outside the URI unreserved set; "/" and "." are
kept. Hidden files and the generated metadata files are never listed.

## Import

import_crate needs @context and an @graph whose first node is the
descriptor. Field values come from the first File or Notebook node, the
license @id becomes license_url, the Person name becomes creator. Every tag
is reset: only tags listed in keywords stay selected.

## Schematic

A schematic maps form headers to ordered field names, e.g.
{"Required items": ["title", "creator", "license_url"], "Optional items": ["description"]}.
"Required items" always holds the built-in list, whatever the import says.
`
