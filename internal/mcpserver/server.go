// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes workspace metadata tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/metacrate/internal/metaservice"
)

const contractURI = "metacrate://crate-format"

// Server wraps the MCP server with metacrate tools.
type Server struct {
	mcp *server.MCPServer
	svc *metaservice.Service
}

// New creates a new MCP server with all metacrate tools registered.
func New(svc *metaservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"metacrate",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("export_crate",
		mcp.WithDescription("Build the RO-Crate document for the workspace and return it. "+
			"Set write to also save it as ro-crate-metadata.json."),
		mcp.WithBoolean("write", mcp.Description("Write the document into the workspace")),
	), s.exportCrate)

	s.mcp.AddTool(mcp.NewTool("import_crate",
		mcp.WithDescription("Restore field values and tag selections from an RO-Crate document. "+
			"Tags missing from its keywords are cleared."),
		mcp.WithString("document", mcp.Required(), mcp.Description("RO-Crate JSON document")),
	), s.importCrate)

	s.mcp.AddTool(mcp.NewTool("push_crate",
		mcp.WithDescription("Export the workspace and send the document to the configured ingestion endpoint."),
	), s.pushCrate)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List keyword tags with their selection state."),
		mcp.WithString("category", mcp.Description("Only list this category")),
		mcp.WithBoolean("checked", mcp.Description("Only list selected tags")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("set_tag",
		mcp.WithDescription("Select or clear a keyword tag."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name, e.g. Machine Learning")),
		mcp.WithBoolean("checked", mcp.Required(), mcp.Description("true to select, false to clear")),
	), s.setTag)

	s.mcp.AddTool(mcp.NewTool("list_fields",
		mcp.WithDescription("List form fields grouped by header, with their values."),
	), s.listFields)

	s.mcp.AddTool(mcp.NewTool("set_field",
		mcp.WithDescription("Set the value of a form field."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Field name, e.g. title")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
	), s.setField)

	s.mcp.AddTool(mcp.NewTool("export_schematic",
		mcp.WithDescription("Return the active form layout (headers and field names)."),
	), s.exportSchematic)

	s.mcp.AddTool(mcp.NewTool("import_schematic",
		mcp.WithDescription("Replace the form layout. Required items always keep the built-in fields."),
		mcp.WithString("schematic", mcp.Required(), mcp.Description("Schematic JSON object")),
	), s.importSchematic)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "RO-Crate Contract",
			mcp.WithResourceDescription("Layout of exported documents and import rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) exportCrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if req.GetBool("write", false) {
		data, err := s.svc.WriteExport(ctx, "")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
	doc, err := s.svc.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := doc.Encode()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) importCrate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	im, err := s.svc.Import(ctx, []byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported %d fields, %d keywords", len(im.Fields), len(im.Keywords))), nil
}

func (s *Server) pushCrate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.svc.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := doc.Encode()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Push(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	onlyChecked := req.GetBool("checked", false)
	if category != "" {
		if _, ok := s.svc.Taxonomy().Category(category); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", category)), nil
		}
	}

	tags, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, t := range tags {
		if category != "" && t.Category != category {
			continue
		}
		if onlyChecked && !t.Checked {
			continue
		}
		mark := " "
		if t.Checked {
			mark = "x"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s / %s", mark, t.Category, t.Tag))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) setTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	checked, err := req.RequireBool("checked")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetTag(ctx, tag, checked); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cats := strings.Join(s.svc.Taxonomy().CategoriesOf(tag), ", ")
	return mcp.NewToolResultText(fmt.Sprintf("%s = %t (%s)", tag, checked, cats)), nil
}

func (s *Server) listFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Groups()), nil
}

func (s *Server) setField(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SetField(ctx, name, value); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s updated", name)), nil
}

func (s *Server) exportSchematic(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.ExportSchematic().Encode()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) importSchematic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("schematic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sch, err := s.svc.ImportSchematic(ctx, []byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("schematic imported: %s", strings.Join(sch.Headers(), ", "))), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     CrateFormatContract,
		},
	}, nil
}
