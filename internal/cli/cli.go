// Package cli implements the scene-synth command-line interface.
//
// # Commands
//
//   - generate: composite synthetic detection scenes from cutouts and backgrounds
//   - prepare: split a CVAT YOLO 1.1 export into train/val with a data.yaml
//   - stats: summarize the box geometry of a prepared dataset
//   - version: print build information
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through the command's context.Context.
package cli
