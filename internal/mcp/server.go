package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codeindex/internal/api"
)

// Server wraps the shared api.Service as an MCP stdio server, registering
// one tool per spec.md §6 operation.
type Server struct {
	svc    *api.Service
	server *mcp.Server
}

// New builds a Server and registers all seven tools.
func New(svc *api.Service) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "codeindex-mcp-server",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s
}

// Start runs the server over stdio until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "index_code",
		Description: "Index a file or directory, populating the symbol store and full-text search index.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {Type: "string", Description: "File or directory path to index"},
			},
			Required: []string{"path"},
		},
	}, s.handleIndexCode)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_symbol",
		Description: "Look up a symbol by its exact name, optionally including its source text.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":           {Type: "string", Description: "Exact symbol name"},
				"include_source": {Type: "boolean", Description: "Include the symbol's source text"},
			},
			Required: []string{"name"},
		},
	}, s.handleGetSymbol)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_symbol_references",
		Description: "List every reference resolved to symbols with the given name.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name": {Type: "string", Description: "Exact symbol name"},
			},
			Required: []string{"name"},
		},
	}, s.handleGetSymbolReferences)

	s.server.AddTool(&mcp.Tool{
		Name:        "find_symbols",
		Description: "Fuzzy search for symbols by name, optionally filtered by type.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":       {Type: "string", Description: "Search query"},
				"symbol_type": {Type: "string", Description: "Optional kind filter (function, method, class, struct, enum, interface|trait, constant|const, variable|var, module|mod, import)"},
				"limit":       {Type: "integer", Description: "Max results, default 10, clamped to [1,50]"},
			},
			Required: []string{"query"},
		},
	}, s.handleFindSymbols)

	s.server.AddTool(&mcp.Tool{
		Name:        "code_search",
		Description: "Full-text BM25 search over indexed source content.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":         {Type: "string", Description: "Search query"},
				"limit":         {Type: "integer", Description: "Max results, default 10"},
				"max_results":   {Type: "integer", Description: "Alias for limit; takes priority when both are given"},
				"context_lines": {Type: "integer", Description: "Lines of context per snippet, default 2"},
			},
			Required: []string{"query"},
		},
	}, s.handleCodeSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_file_outline",
		Description: "Render a symbol outline for one file, grouped by kind.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file_path": {Type: "string", Description: "Path to the file"},
			},
			Required: []string{"file_path"},
		},
	}, s.handleGetFileOutline)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_directory_outline",
		Description: "Render a per-file symbol outline for every indexed file under a directory.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"directory_path": {Type: "string", Description: "Path to the directory"},
				"includes": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Kinds to include, default [functions, classes, structs]",
				},
			},
			Required: []string{"directory_path"},
		},
	}, s.handleGetDirectoryOutline)
}

type indexCodeParams struct {
	Path string `json:"path"`
}

func (s *Server) handleIndexCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p indexCodeParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("index_code", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.svc.IndexCode(p.Path)
	if err != nil {
		return createErrorResponse("index_code", err)
	}
	return createJSONResponse(result)
}

type getSymbolParams struct {
	Name          string `json:"name"`
	IncludeSource bool   `json:"include_source"`
}

func (s *Server) handleGetSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getSymbolParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("get_symbol", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.svc.GetSymbol(p.Name, p.IncludeSource)
	if err != nil {
		return createErrorResponse("get_symbol", err)
	}
	return createJSONResponse(result)
}

type getSymbolReferencesParams struct {
	Name string `json:"name"`
}

func (s *Server) handleGetSymbolReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getSymbolReferencesParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("get_symbol_references", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.svc.GetSymbolReferences(p.Name)
	if err != nil {
		return createErrorResponse("get_symbol_references", err)
	}
	return createJSONResponse(result)
}

type findSymbolsParams struct {
	Query      string `json:"query"`
	SymbolType string `json:"symbol_type"`
	Limit      int    `json:"limit"`
}

func (s *Server) handleFindSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p findSymbolsParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("find_symbols", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.svc.FindSymbols(p.Query, p.SymbolType, p.Limit)
	if err != nil {
		return createErrorResponse("find_symbols", err)
	}
	return createJSONResponse(result)
}

type codeSearchParams struct {
	Query        string `json:"query"`
	Limit        int    `json:"limit"`
	MaxResults   int    `json:"max_results"`
	ContextLines int    `json:"context_lines"`
}

func (s *Server) handleCodeSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p codeSearchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("code_search", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.svc.CodeSearch(p.Query, p.Limit, p.MaxResults, p.ContextLines)
	if err != nil {
		return createErrorResponse("code_search", err)
	}
	return createJSONResponse(result)
}

type getFileOutlineParams struct {
	FilePath string `json:"file_path"`
}

func (s *Server) handleGetFileOutline(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getFileOutlineParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("get_file_outline", fmt.Errorf("invalid parameters: %w", err))
	}
	outline, err := s.svc.GetFileOutline(p.FilePath)
	if err != nil {
		return createErrorResponse("get_file_outline", err)
	}
	return createJSONResponse(map[string]string{"outline": outline})
}

type getDirectoryOutlineParams struct {
	DirectoryPath string   `json:"directory_path"`
	Includes      []string `json:"includes"`
}

func (s *Server) handleGetDirectoryOutline(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getDirectoryOutlineParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("get_directory_outline", fmt.Errorf("invalid parameters: %w", err))
	}
	outline, err := s.svc.GetDirectoryOutline(p.DirectoryPath, p.Includes)
	if err != nil {
		return createErrorResponse("get_directory_outline", err)
	}
	return createJSONResponse(map[string]string{"outline": outline})
}
