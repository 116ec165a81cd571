package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgument defines search parameters.
type SearchArgument struct {
	Query    string `json:"query" jsonschema_description:"Search query matched against snippet content"`
	Document string `json:"document,omitempty" jsonschema_description:"Filter by document name (e.g., API or guides/setup)"`
	Language string `json:"language,omitempty" jsonschema_description:"Filter by fence language tag (e.g., python, bash)"`
}

// SearchHandler handles the search_snippets MCP tool.
type SearchHandler struct {
	service *Service
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service *Service) *SearchHandler {
	return &SearchHandler{service: service}
}

// Handle executes the search and returns formatted results.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgument) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Query) == "" {
		return errorResult("Query cannot be empty"), nil, nil
	}

	result, err := h.service.Search(ctx, Query{Text: args.Query, Document: args.Document, Lang: args.Language})
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return errorResult("Search is not available. Snippets are still being indexed. Please try again later."), nil, nil
		}
		return errorResult(fmt.Sprintf("Search failed: %s", err)), nil, nil
	}

	return formatResults(result, args.Query), nil, nil
}

// formatResults formats search results for MCP response.
func formatResults(result *Result, queryStr string) *mcp.CallToolResult {
	if result.Total == 0 {
		return textResult(fmt.Sprintf("No snippets found for query: %s", queryStr))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d snippets for '%s':\n\n", result.Total, queryStr)

	for i, hit := range result.Hits {
		fmt.Fprintf(&sb, "### %d. %s fence #%d (%s)\n", i+1, hit.Document, hit.Ordinal, hit.Path)
		fmt.Fprintf(&sb, "**Language**: %s\n", displayLang(hit.Lang))
		fmt.Fprintf(&sb, "**Score**: %.4f\n\n", hit.Score)

		if len(hit.Fragments) > 0 {
			sb.WriteString("```\n")
			for _, fragment := range hit.Fragments {
				sb.WriteString(fragment)
				sb.WriteString("\n")
			}
			sb.WriteString("```\n")
		}
		sb.WriteString("\n")
	}

	if result.Total > uint64(len(result.Hits)) {
		fmt.Fprintf(&sb, "... and %d more results\n", result.Total-uint64(len(result.Hits)))
	}

	return textResult(sb.String())
}

func displayLang(lang string) string {
	if lang == "" {
		return "(none)"
	}
	return lang
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// GetToolDefinition returns the MCP tool definition.
func (h *SearchHandler) GetToolDefinition() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_snippets",
		Description: "Search code snippets extracted from Markdown documentation using full-text search",
	}
}

// RegisterSearchTool registers the search tool with an MCP server.
func RegisterSearchTool(server *mcp.Server, service *Service) {
	handler := NewSearchHandler(service)
	mcp.AddTool(server, handler.GetToolDefinition(), handler.Handle)
}
