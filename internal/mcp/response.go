// Package mcp exposes spec.md §6's seven operations as an MCP stdio
// server, grounded on the teacher's internal/mcp.Server: mcp.NewServer +
// AddTool registration, the createJSONResponse/createErrorResponse result
// shape, and a stdio-only Start/Run loop.
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// createJSONResponse marshals data as the single text-content block every
// tool result carries, matching the teacher's response shape.
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

// createErrorResponse reports a tool failure inside the result body with
// IsError set, per the MCP spec's guidance that tool errors should be
// visible to the calling model rather than surfaced as protocol errors.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	result, marshalErr := createJSONResponse(map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	})
	if marshalErr != nil {
		return nil, marshalErr
	}
	result.IsError = true
	return result, nil
}
