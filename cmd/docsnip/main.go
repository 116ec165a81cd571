package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sha1n/docsnip/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "docsnip"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

type runFunc func(context.Context, app.RunParams, *pflag.FlagSet, string) error

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Extract fenced code snippets from Markdown",
		Long:    "docsnip scans Markdown documents, extracts every fenced code block into a standalone snippet file with a provenance header, and serves the snippets over MCP.",
		Version: version,
		Args:    cobra.NoArgs,
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.AddCommand(
		newCommand("extract", "Extract snippets into <output>/extracted", version, app.RegisterPipelineFlags, app.RunExtract),
		newCommand("check", "Report snippets that differ from the current documents", version, app.RegisterPipelineFlags, app.RunCheck),
		newCommand("archive", "Move snippets no document produces to <output>/archive/unused", version, app.RegisterPipelineFlags, app.RunArchive),
		newCommand("serve", "Serve extracted snippets over MCP", version, app.RegisterServeFlags, app.RunServe),
	)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func newCommand(name, short, version string, register func(*pflag.FlagSet), run runFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:          name,
		Short:        short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, app.DefaultRunParams(), cmd.Flags(), version)
		},
	}
	register(cmd.Flags())
	return cmd
}
