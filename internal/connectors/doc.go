// Package connectors holds the sources that feed files into the pipeline.
// The filesystem connector scans and watches the notes folder.
package connectors
