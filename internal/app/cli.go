package app

import "github.com/spf13/pflag"

// RegisterPipelineFlags registers the flags shared by extract, check and archive
func RegisterPipelineFlags(flags *pflag.FlagSet) {
	flags.StringP("input", "i", "", "Root directory scanned for Markdown documents")
	flags.StringP("output", "o", "", "Root directory receiving extracted/ and archive/")
	flags.StringSlice("extensions", nil, "Document file extensions (comma-separated)")
	flags.StringSliceP("exclude", "e", nil, "Extra exclusion patterns (comma-separated)")
	flags.IntP("workers", "w", 0, "Number of documents processed concurrently")
	flags.Bool("strict", false, "Treat unterminated fences as parse errors")
	flags.Int64("max-file-size", 0, "Skip documents larger than this many bytes (0 for no limit)")
	flags.Duration("lock-timeout", 0, "How long to wait for another run to release the output root")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
}

// RegisterServeFlags registers the serve command flags
func RegisterServeFlags(flags *pflag.FlagSet) {
	RegisterPipelineFlags(flags)
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.Int("max-results", 0, "Maximum search hits returned per query")
	flags.Bool("extract-on-start", false, "Run an extraction before building the index")
}
