// Package domain defines the core business entities for Scribble.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceFile: A file from the notes folder, identified by content hash
//   - ContentRecord: Text extracted from a SourceFile at one point in time
//   - Tag and Task: Signals extracted from content
//   - Digest: A compiled, time-windowed report
//   - ProcessingOutcome: The typed result of ingesting one file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
