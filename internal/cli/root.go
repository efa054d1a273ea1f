// Package cli implements the chaosgame command-line interface.
//
// # Commands
//
//   - generate: run the chaos game for a library entry or explicit rows and
//     write SVG, PNG or JSON artifacts
//   - list, show: inspect the fractal library
//   - add, remove, export: edit and write the library file
//   - pick: choose a library entry interactively and generate it
//   - serve: run the HTTP API
//   - cache: manage the persistent point and artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and handed to the pipeline.
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(ctx, os.Stderr); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
)

// Execute builds the command tree and runs it with ctx.
func Execute(ctx context.Context, logOut io.Writer) error {
	return New(logOut, LogInfo).RootCommand().ExecuteContext(ctx)
}
