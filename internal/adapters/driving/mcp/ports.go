package mcp

import (
	"github.com/behole/scribble/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library browses stored content, tasks, tags and digests.
	Library driving.LibraryService

	// Digests generates reports.
	Digests driving.DigestCompiler

	// Dispatcher processes files. Optional; process_file fails without it.
	Dispatcher driving.Dispatcher
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	if p.Digests == nil {
		return ErrMissingDigestService
	}
	return nil
}
