// Package dispatch implements the audio transfer and transcription dispatch
// stage of the pipeline.
package dispatch
