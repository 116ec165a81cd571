package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/docsnip/internal/search"
)

// ServerConfig contains configuration for creating an MCP server
type ServerConfig struct {
	Name      string
	Version   string
	SearchSvc *search.Service
}

// Instructions sent to clients on initialize.
const (
	SnippetInstructions = "Serves code snippets extracted from Markdown fences. " +
		"Use search_snippets to find snippets by content, optionally filtered by document or language, " +
		"then read_snippet with the document and fence number to get the full file."
	NoSnippetInstructions = "No snippet index is available. Run docsnip extract and restart the server."
)

// CreateServer creates and configures the MCP server.
// Snippet tools are registered only when a search service is provided.
func CreateServer(cfg ServerConfig) *mcp.Server {
	instructions := NoSnippetInstructions
	if cfg.SearchSvc != nil {
		instructions = SnippetInstructions
	}

	s := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &mcp.ServerOptions{Instructions: instructions})

	if cfg.SearchSvc != nil {
		search.RegisterSearchTool(s, cfg.SearchSvc)
		search.RegisterReadTool(s, cfg.SearchSvc)
	}

	return s
}
