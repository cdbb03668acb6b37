// Package analyze implements the transcript analysis and finalization stage
// of the pipeline.
package analyze
