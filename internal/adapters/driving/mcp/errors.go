// Package mcp provides an MCP (Model Context Protocol) server adapter for
// scribble. It lets AI assistants process files, browse notes and tasks,
// and generate digests.
package mcp

import "errors"

var (
	// ErrMissingLibraryService is returned when the library service is not provided.
	ErrMissingLibraryService = errors.New("mcp: library service is required")

	// ErrMissingDigestService is returned when the digest service is not provided.
	ErrMissingDigestService = errors.New("mcp: digest service is required")

	// ErrMissingDispatcher is returned by process_file when no dispatcher is wired.
	ErrMissingDispatcher = errors.New("mcp: file processing is not available")
)
