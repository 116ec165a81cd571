package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ReadArgument defines read parameters.
type ReadArgument struct {
	Document string `json:"document" jsonschema_description:"Document name (e.g., API or guides/setup)"`
	Ordinal  int    `json:"ordinal" jsonschema_description:"1-based fence number within the document"`
}

// ReadHandler handles the read_snippet MCP tool.
type ReadHandler struct {
	service *Service
}

// NewReadHandler creates a new read handler.
func NewReadHandler(service *Service) *ReadHandler {
	return &ReadHandler{service: service}
}

// Handle reads a snippet artifact and returns it as a fenced block.
func (h *ReadHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReadArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Document) == "" {
		return errorResult("Document cannot be empty"), nil, nil
	}
	if args.Ordinal < 1 {
		return errorResult("Ordinal must be at least 1"), nil, nil
	}

	snippet, err := h.service.Read(args.Document, args.Ordinal)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotReady):
			return errorResult("Read is not available. Snippets are still being indexed. Please try again later."), nil, nil
		case errors.Is(err, ErrSnippetNotFound):
			return errorResult(fmt.Sprintf("Snippet not found: %s fence #%d", args.Document, args.Ordinal)), nil, nil
		default:
			return errorResult(fmt.Sprintf("Error reading snippet: %s", err)), nil, nil
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**File**: `%s`\n", snippet.Path)
	fmt.Fprintf(&sb, "**Document**: %s\n", snippet.Document)
	fmt.Fprintf(&sb, "**Language**: %s\n", displayLang(snippet.Lang))
	fmt.Fprintf(&sb, "**Size**: %d bytes\n\n", len(snippet.Content))
	fmt.Fprintf(&sb, "%s%s\n%s\n%s", fenceFor(snippet.Content), snippet.Lang, strings.TrimSuffix(snippet.Content, "\n"), fenceFor(snippet.Content))

	return textResult(sb.String()), nil, nil
}

// fenceFor returns a backtick run longer than any run inside content.
func fenceFor(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

// GetToolDefinition returns the MCP tool definition.
func (h *ReadHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "read_snippet",
		Description: "Read an extracted snippet by document name and fence number",
	}
}

// RegisterReadTool registers the read tool with an MCP server.
func RegisterReadTool(server *mcp.Server, service *Service) {
	handler := NewReadHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
