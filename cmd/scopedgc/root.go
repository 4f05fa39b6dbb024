package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/inhies/go-bytesize"
	"github.com/spf13/cobra"
)

// globalFlags holds flags shared by every subcommand.
type globalFlags struct {
	verbose bool
	quiet   bool
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "scopedgc",
		Short: "Run and inspect scoped garbage collection workloads",
		Long: `scopedgc drives the scoped mark-and-sweep collector from the command line.
It runs scripted workload files and generates synthetic object graphs so
collection behaviour can be checked and measured outside a host program.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log collector events to stderr")
	root.PersistentFlags().
		BoolVarP(&g.quiet, "quiet", "q", false, "Suppress all output except errors")
	root.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "Output in JSON format")

	root.AddCommand(newRunCmd(g), newStressCmd(g))
	return root
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// logger returns the collector logger selected by --verbose.
func (g *globalFlags) logger(w io.Writer) *slog.Logger {
	if !g.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// printInfo prints a message unless in quiet mode
func (g *globalFlags) printInfo(w io.Writer, format string, args ...any) {
	if !g.quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatBytes renders a byte count for humans.
func formatBytes(n uintptr) string {
	return bytesize.New(float64(n)).String()
}
